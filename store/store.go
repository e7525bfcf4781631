package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Records.Get when no value exists for the key.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable wraps every backend failure (I/O, driver, connection).
	ErrUnavailable = errors.New("storage unavailable")
	// ErrUnknownCollection is returned for collection names outside Collections.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Application collections owned by the host and cleared by Workspace.Wipe.
const (
	CollectionProjects    = "projects"
	CollectionTasks       = "tasks"
	CollectionTimeEntries = "time_entries"
)

// Collections lists every item collection a backend must hold.
var Collections = []string{
	CollectionProjects,
	CollectionTasks,
	CollectionTimeEntries,
}

// Setting keys seeded by Workspace.InitDefaults.
const (
	SettingTheme       = "theme"
	SettingUserName    = "user_name"
	SettingFirstLaunch = "first_launch"
)

// DefaultSettings returns the settings written to an empty workspace.
func DefaultSettings() map[string]string {
	return map[string]string{
		SettingTheme:       "blue",
		SettingUserName:    "User",
		SettingFirstLaunch: "true",
	}
}

// IsCollection reports whether name is one of Collections.
func IsCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

// Records is a key/value store for singleton records.
type Records interface {
	// Get returns the value for key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put creates or replaces the value for key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Settings is the host application's settings accessor.
type Settings interface {
	// GetSetting returns the value and whether it exists.
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// ItemStore holds the host application's item collections.
type ItemStore interface {
	PutItem(ctx context.Context, collection, id string, data []byte) error
	Count(ctx context.Context, collection string) (int, error)
}

// Workspace is the destructive half of the data-store capability.
type Workspace interface {
	// Wipe clears every item collection, all settings and the named records as
	// one atomic unit: either everything is cleared or nothing is.
	Wipe(ctx context.Context, recordKeys ...string) error
	// InitDefaults seeds DefaultSettings when no settings exist.
	InitDefaults(ctx context.Context) error
}

// Backend is everything pinlock needs from a storage implementation.
type Backend interface {
	Records
	Settings
	ItemStore
	Workspace
}
