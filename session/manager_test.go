package session

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrEthical07/pinlock/store"
	"github.com/MrEthical07/pinlock/store/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSessionManagerTest(t *testing.T) (*Manager, *redisstore.Store, *time.Time) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	backend := redisstore.New(rdb, "sess-test")
	now := testNow
	m := NewManager(backend, Options{Now: func() time.Time { return now }})
	return m, backend, &now
}

func TestOpenExpiringUsesTTL(t *testing.T) {
	m, _, _ := newSessionManagerTest(t)
	ctx := context.Background()

	s, err := m.Open(ctx, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !s.Expiring() {
		t.Fatalf("expected expiring session")
	}
	if got := s.ExpiresAt.Sub(s.CreatedAt); got != DefaultTTL {
		t.Fatalf("expected %v ttl, got %v", DefaultTTL, got)
	}

	cur, err := m.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if cur == nil || cur.Token != s.Token || !cur.ExpiresAt.Equal(s.ExpiresAt) {
		t.Fatalf("current does not match opened session: %+v vs %+v", cur, s)
	}
}

func TestOpenNonExpiring(t *testing.T) {
	m, _, now := newSessionManagerTest(t)
	ctx := context.Background()

	s, err := m.Open(ctx, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Expiring() {
		t.Fatalf("expected non-expiring session")
	}

	*now = now.Add(10 * 365 * 24 * time.Hour)
	ok, err := m.IsValid(ctx, *now)
	if err != nil || !ok {
		t.Fatalf("non-expiring session must stay valid, ok=%v err=%v", ok, err)
	}
}

func TestOpenReplacesExistingSession(t *testing.T) {
	m, _, _ := newSessionManagerTest(t)
	ctx := context.Background()

	first, err := m.Open(ctx, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	second, err := m.Open(ctx, true)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if first.Token == second.Token {
		t.Fatalf("expected a new token")
	}
	cur, _ := m.Current(ctx)
	if cur.Token != second.Token || !cur.Expiring() {
		t.Fatalf("expected second session to replace first")
	}
}

func TestIsValidLazilyDeletesExpired(t *testing.T) {
	m, backend, now := newSessionManagerTest(t)
	ctx := context.Background()

	if _, err := m.Open(ctx, true); err != nil {
		t.Fatalf("open: %v", err)
	}

	ok, err := m.IsValid(ctx, now.Add(DefaultTTL-time.Second))
	if err != nil || !ok {
		t.Fatalf("expected valid before expiry, ok=%v err=%v", ok, err)
	}
	if _, err := backend.Get(ctx, DefaultKey); err != nil {
		t.Fatalf("record must survive a valid check: %v", err)
	}

	ok, err = m.IsValid(ctx, now.Add(DefaultTTL))
	if err != nil || ok {
		t.Fatalf("expected invalid at expiry, ok=%v err=%v", ok, err)
	}
	if _, err := backend.Get(ctx, DefaultKey); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expired record must be deleted, got %v", err)
	}
	cur, err := m.Current(ctx)
	if err != nil || cur != nil {
		t.Fatalf("expected no current session, got %+v err=%v", cur, err)
	}
}

func TestIsValidWithoutSession(t *testing.T) {
	m, _, now := newSessionManagerTest(t)

	ok, err := m.IsValid(context.Background(), *now)
	if err != nil || ok {
		t.Fatalf("expected invalid without session, ok=%v err=%v", ok, err)
	}
}

func TestIsValidDropsCorruptRecord(t *testing.T) {
	m, backend, now := newSessionManagerTest(t)
	ctx := context.Background()

	if err := backend.Put(ctx, DefaultKey, []byte{42}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := m.Current(ctx); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	ok, err := m.IsValid(ctx, *now)
	if err != nil || ok {
		t.Fatalf("corrupt session must be invalid, ok=%v err=%v", ok, err)
	}
	if _, err := backend.Get(ctx, DefaultKey); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("corrupt record must be deleted, got %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	m, _, _ := newSessionManagerTest(t)
	ctx := context.Background()

	if _, err := m.Open(ctx, true); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := m.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := m.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestTokenUsesInjectedRandom(t *testing.T) {
	backend := &memRecords{data: map[string][]byte{}}
	seed := bytes.Repeat([]byte{0x11}, 16)
	m := NewManager(backend, Options{Random: bytes.NewReader(seed), Now: func() time.Time { return testNow }})

	s, err := m.Open(context.Background(), false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Token != "11111111-1111-4111-9111-111111111111" {
		t.Fatalf("unexpected token %q", s.Token)
	}

	if _, err := m.Open(context.Background(), false); err == nil {
		t.Fatalf("expected error once the random source is exhausted")
	}
}

func TestDecodeRejectsUnsupportedSchemaVersion(t *testing.T) {
	_, err := Decode([]byte{99})
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func FuzzSessionDecode(f *testing.F) {
	encoded, err := Encode(&Session{Token: "tok", CreatedAt: testNow, ExpiresAt: testNow.Add(time.Hour)})
	if err == nil {
		f.Add(encoded)
		f.Add(encoded[:5])
	}
	f.Add([]byte{})
	f.Add([]byte{1, 0})

	f.Fuzz(func(t *testing.T, data []byte) {
		s, err := Decode(data)
		if err != nil {
			return
		}
		if s.Token == "" {
			t.Fatalf("decoded session without token")
		}
	})
}

type memRecords struct {
	data map[string][]byte
}

func (m *memRecords) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (m *memRecords) Put(_ context.Context, key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memRecords) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}
