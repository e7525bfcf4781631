package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MrEthical07/pinlock/internal/dbx"
	"github.com/MrEthical07/pinlock/store"
	"github.com/MrEthical07/pinlock/store/sqlitestore/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Store is a SQLite-backed store.Backend.
type Store struct {
	db *sql.DB
}

var _ store.Backend = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the
// embedded migrations. MemoryPath yields a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != MemoryPath {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps :memory: on a single connection and serializes
	// file writes the same way SQLite would.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already opened database and applies the embedded migrations.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

// Get returns the record stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM records WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, unavailable(err)
	}
	return value, nil
}

// Put creates or replaces the record under key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Delete removes key; missing keys are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return unavailable(err)
	}
	return nil
}

// GetSetting returns a setting value and whether it exists.
func (s *Store) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, unavailable(err)
	}
	return value, true, nil
}

// SetSetting creates or replaces a setting.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// PutItem creates or replaces an item in collection.
func (s *Store) PutItem(ctx context.Context, collection, id string, data []byte) error {
	if !store.IsCollection(collection) {
		return fmt.Errorf("%w: %q", store.ErrUnknownCollection, collection)
	}
	// collection is one of the fixed store.Collections table names.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO `+collection+` (id, data) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, id, data)
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// Count returns the number of items in collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if !store.IsCollection(collection) {
		return 0, fmt.Errorf("%w: %q", store.ErrUnknownCollection, collection)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+collection).Scan(&n); err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// Wipe clears every collection, the settings table and the named records in
// one transaction.
func (s *Store) Wipe(ctx context.Context, recordKeys ...string) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, c := range store.Collections {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+c); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM settings`); err != nil {
			return err
		}
		for _, k := range recordKeys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}

// InitDefaults seeds store.DefaultSettings when the settings table is empty.
func (s *Store) InitDefaults(ctx context.Context) error {
	defaults := store.DefaultSettings()
	names := make([]string, 0, len(defaults))
	for k := range defaults {
		names = append(names, k)
	}
	sort.Strings(names)

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, k := range names {
			if _, err := tx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)`, k, defaults[k]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return unavailable(err)
	}
	return nil
}
