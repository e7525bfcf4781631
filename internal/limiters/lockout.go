package limiters

import (
	"time"
)

const (
	// DefaultMaxFailedAttempts is the number of consecutive failures that locks PIN entry.
	DefaultMaxFailedAttempts = 5
	// DefaultLockoutBase is the lockout applied when the threshold is first reached.
	DefaultLockoutBase = 5 * time.Minute
	// DefaultLockoutMax caps the exponential backoff.
	DefaultLockoutMax = 24 * time.Hour
)

// LockoutPolicy computes lock state and backoff from failure history.
// It is a value type with no side effects; callers persist the results.
type LockoutPolicy struct {
	MaxFailedAttempts int
	BaseDuration      time.Duration
	MaxDuration       time.Duration
}

// LockoutStatus is the lock state of a credential at a given instant.
type LockoutStatus struct {
	Locked    bool
	Remaining time.Duration
	UnlockAt  time.Time
}

// DefaultLockoutPolicy returns 5 attempts, 5m base, 24h cap.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxFailedAttempts: DefaultMaxFailedAttempts,
		BaseDuration:      DefaultLockoutBase,
		MaxDuration:       DefaultLockoutMax,
	}
}

// Backoff returns the lockout duration for the given consecutive failure
// count: zero below the threshold, then BaseDuration doubled for every failure
// past it, capped at MaxDuration.
func (p LockoutPolicy) Backoff(failures int) time.Duration {
	if p.MaxFailedAttempts <= 0 || failures < p.MaxFailedAttempts {
		return 0
	}

	d := p.BaseDuration
	for i := p.MaxFailedAttempts; i < failures; i++ {
		if d >= p.MaxDuration || d > p.MaxDuration/2 {
			return p.MaxDuration
		}
		d *= 2
	}
	if d > p.MaxDuration {
		return p.MaxDuration
	}
	return d
}

// Status reports whether lockoutUntil is still in the future relative to now.
// A zero lockoutUntil means no lockout is recorded.
func (p LockoutPolicy) Status(lockoutUntil, now time.Time) LockoutStatus {
	if lockoutUntil.IsZero() || !lockoutUntil.After(now) {
		return LockoutStatus{}
	}
	return LockoutStatus{
		Locked:    true,
		Remaining: lockoutUntil.Sub(now),
		UnlockAt:  lockoutUntil,
	}
}

// RegisterFailure returns the failure count after one more failed attempt and
// the lockout deadline it implies (zero when still under the threshold).
func (p LockoutPolicy) RegisterFailure(failures int, now time.Time) (int, time.Time) {
	if failures < 0 {
		failures = 0
	}
	next := failures + 1

	d := p.Backoff(next)
	if d <= 0 {
		return next, time.Time{}
	}
	return next, now.Add(d)
}

// AttemptsRemaining returns how many failures are left before lockout.
func (p LockoutPolicy) AttemptsRemaining(failures int) int {
	remaining := p.MaxFailedAttempts - failures
	if remaining < 0 {
		return 0
	}
	return remaining
}
