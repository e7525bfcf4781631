package session

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/MrEthical07/pinlock/store"
	"github.com/google/uuid"
)

const (
	// DefaultKey is the record key the session is stored under.
	DefaultKey = "session"
	// DefaultTTL is the lifetime of an expiring session.
	DefaultTTL = 7 * 24 * time.Hour
)

// Options configures a Manager. Zero fields take the package defaults.
type Options struct {
	Key    string
	TTL    time.Duration
	Random io.Reader
	Now    func() time.Time
}

// Manager owns the session record.
type Manager struct {
	mu sync.Mutex

	records store.Records
	key     string
	ttl     time.Duration
	random  io.Reader
	now     func() time.Time
}

// NewManager creates a Manager over records.
func NewManager(records store.Records, opts Options) *Manager {
	m := &Manager{
		records: records,
		key:     opts.Key,
		ttl:     opts.TTL,
		random:  opts.Random,
		now:     opts.Now,
	}
	if m.key == "" {
		m.key = DefaultKey
	}
	if m.ttl <= 0 {
		m.ttl = DefaultTTL
	}
	if m.random == nil {
		m.random = rand.Reader
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Key returns the record key the session is stored under.
func (m *Manager) Key() string {
	return m.key
}

// TTL returns the lifetime given to expiring sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Open creates a new session, replacing any existing one. Expiring sessions
// end TTL after creation; others never expire.
func (m *Manager) Open(ctx context.Context, expiring bool) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, err := uuid.NewRandomFromReader(m.random)
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &Session{
		Token:     token.String(),
		CreatedAt: now,
	}
	if expiring {
		s.ExpiresAt = now.Add(m.ttl)
	}

	data, err := Encode(s)
	if err != nil {
		return nil, err
	}
	if err := m.records.Put(ctx, m.key, data); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the stored session, expired or not, or nil when none exists.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.load(ctx)
}

// IsValid reports whether a session exists and has not expired at now. An
// expired or undecodable record is deleted by the check.
func (m *Manager) IsValid(ctx context.Context, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return false, err
		}
		return false, m.records.Delete(ctx, m.key)
	}
	if s == nil {
		return false, nil
	}
	if s.ValidAt(now) {
		return true, nil
	}
	return false, m.records.Delete(ctx, m.key)
}

// Close deletes the session. Closing when no session exists is not an error.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.records.Delete(ctx, m.key)
}

func (m *Manager) load(ctx context.Context) (*Session, error) {
	data, err := m.records.Get(ctx, m.key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return Decode(data)
}
