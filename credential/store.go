package credential

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/MrEthical07/pinlock/internal/limiters"
	"github.com/MrEthical07/pinlock/pin"
	"github.com/MrEthical07/pinlock/store"
)

// DefaultKey is the record key the credential is stored under.
const DefaultKey = "credential"

// Options configures a Store. Zero fields take the package defaults.
type Options struct {
	Key        string
	Params     pin.Params
	SaltLength int
	Format     pin.Format
	Lockout    limiters.LockoutPolicy
	Random     io.Reader
	Now        func() time.Time

	// OnDerive, when set, receives the wall time of every key derivation.
	OnDerive func(time.Duration)
}

// Store owns the credential record.
type Store struct {
	mu sync.Mutex

	records store.Records
	key     string

	params  pin.Params
	saltLen int
	format  pin.Format
	lockout limiters.LockoutPolicy
	random  io.Reader
	now     func() time.Time

	onDerive func(time.Duration)
}

// NewStore creates a Store over records.
func NewStore(records store.Records, opts Options) *Store {
	s := &Store{
		records: records,
		key:     opts.Key,
		params:  opts.Params,
		saltLen: opts.SaltLength,
		format:  opts.Format,
		lockout: opts.Lockout,
		random:  opts.Random,
		now:     opts.Now,

		onDerive: opts.OnDerive,
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.params.Algorithm == "" {
		s.params = pin.DefaultParams()
	}
	if s.saltLen == 0 {
		s.saltLen = pin.DefaultSaltLength
	}
	if s.format == (pin.Format{}) {
		s.format = pin.DefaultFormat()
	}
	if s.lockout == (limiters.LockoutPolicy{}) {
		s.lockout = limiters.DefaultLockoutPolicy()
	}
	if s.random == nil {
		s.random = rand.Reader
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Key returns the record key the credential is stored under.
func (s *Store) Key() string {
	return s.key
}

// Validate applies the format and confirmation rules used by Create, Rotate
// and ForceReset without touching storage.
func (s *Store) Validate(pinValue, confirm string) error {
	return s.validatePair(pinValue, confirm)
}

// Exists reports whether a credential record is stored.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.records.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Load returns a copy of the stored record or ErrNotConfigured.
func (s *Store) Load(ctx context.Context) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Status reports the lock and attempt state at the store clock's now. An
// absent credential reports Configured=false and never errors on that account.
func (s *Store) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return Status{AttemptsRemaining: s.lockout.MaxFailedAttempts}, nil
		}
		return Status{}, err
	}

	lock := s.lockout.Status(rec.LockoutUntil, s.now())
	return Status{
		Configured:        true,
		FailedAttempts:    rec.FailedAttempts,
		AttemptsRemaining: s.lockout.AttemptsRemaining(rec.FailedAttempts),
		Locked:            lock.Locked,
		Remaining:         lock.Remaining,
		UnlockAt:          lock.UnlockAt,
	}, nil
}

// Create stores a new credential for pinValue. It fails with a
// *ValidationError on malformed input and ErrAlreadyConfigured when a
// credential exists.
func (s *Store) Create(ctx context.Context, pinValue, confirm string) error {
	if err := s.validatePair(pinValue, confirm); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.load(ctx)
	switch {
	case err == nil:
		return ErrAlreadyConfigured
	case !errors.Is(err, ErrNotConfigured):
		return err
	}

	return s.write(ctx, pinValue)
}

// Verify checks pinValue against the stored credential and applies the
// lockout policy. While locked, it returns *LockedError without deriving or
// counting the attempt. Malformed input returns *ValidationError and is not
// counted either.
func (s *Store) Verify(ctx context.Context, pinValue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	if lock := s.lockout.Status(rec.LockoutUntil, now); lock.Locked {
		return &LockedError{Remaining: lock.Remaining, UnlockAt: lock.UnlockAt}
	}

	if err := s.format.Validate(pinValue); err != nil {
		return &ValidationError{Reason: err}
	}

	ok, err := s.matches(rec, pinValue)
	if err != nil {
		return err
	}
	if ok {
		if rec.FailedAttempts != 0 || !rec.LockoutUntil.IsZero() {
			rec.FailedAttempts = 0
			rec.LockoutUntil = time.Time{}
			return s.save(ctx, rec)
		}
		return nil
	}

	rec.FailedAttempts, rec.LockoutUntil = s.lockout.RegisterFailure(rec.FailedAttempts, now)
	if err := s.save(ctx, rec); err != nil {
		return err
	}

	if lock := s.lockout.Status(rec.LockoutUntil, now); lock.Locked {
		return &LockedError{Remaining: lock.Remaining, UnlockAt: lock.UnlockAt}
	}
	return &InvalidCredentialError{AttemptsRemaining: s.lockout.AttemptsRemaining(rec.FailedAttempts)}
}

// Rotate replaces the credential after checking oldPIN. A wrong oldPIN
// returns ErrIncorrectCredential and leaves the failure counter untouched.
// Success writes a fresh salt with the current parameters and clears counters.
func (s *Store) Rotate(ctx context.Context, oldPIN, newPIN, confirm string) error {
	if err := s.validatePair(newPIN, confirm); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx)
	if err != nil {
		return err
	}

	if s.format.Validate(oldPIN) != nil {
		return ErrIncorrectCredential
	}
	ok, err := s.matches(rec, oldPIN)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIncorrectCredential
	}

	return s.write(ctx, newPIN)
}

// ForceReset replaces the credential without any old-PIN check, whatever the
// current lock state. It is the recovery path.
func (s *Store) ForceReset(ctx context.Context, newPIN, confirm string) error {
	if err := s.validatePair(newPIN, confirm); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(ctx, newPIN)
}

// Matches reports whether pinValue matches the stored credential without
// touching the failure counter or the lock state.
func (s *Store) Matches(ctx context.Context, pinValue string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	if s.format.Validate(pinValue) != nil {
		return false, nil
	}
	return s.matches(rec, pinValue)
}

// Remove deletes the credential, disabling PIN protection. Removing an absent
// credential is not an error.
func (s *Store) Remove(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.records.Delete(ctx, s.key)
}

func (s *Store) validatePair(pinValue, confirm string) error {
	if err := s.format.Validate(pinValue); err != nil {
		return &ValidationError{Reason: err}
	}
	if pinValue != confirm {
		return &ValidationError{Reason: ErrPINMismatch}
	}
	return nil
}

func (s *Store) load(ctx context.Context) (*Record, error) {
	data, err := s.records.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotConfigured
		}
		return nil, err
	}
	return Decode(data)
}

func (s *Store) save(ctx context.Context, rec *Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	return s.records.Put(ctx, s.key, data)
}

// write derives a new credential generation for pinValue and stores it.
func (s *Store) write(ctx context.Context, pinValue string) error {
	salt, err := pin.GenerateSalt(s.random, s.saltLen)
	if err != nil {
		return err
	}
	secret, err := s.derive(pinValue, salt, s.params)
	if err != nil {
		return err
	}

	return s.save(ctx, &Record{
		SecretHash:  secret,
		Salt:        salt,
		Algorithm:   s.params.Algorithm,
		Iterations:  s.params.Iterations,
		Memory:      s.params.Memory,
		Parallelism: s.params.Parallelism,
		CreatedAt:   s.now(),
	})
}

func (s *Store) matches(rec *Record, pinValue string) (bool, error) {
	derived, err := s.derive(pinValue, rec.Salt, rec.Params())
	if err != nil {
		return false, err
	}
	return pin.Equal(derived, rec.SecretHash), nil
}

func (s *Store) derive(pinValue string, salt []byte, p pin.Params) ([]byte, error) {
	if s.onDerive == nil {
		return pin.Derive(pinValue, salt, p)
	}
	start := time.Now()
	out, err := pin.Derive(pinValue, salt, p)
	s.onDerive(time.Since(start))
	return out, err
}
