package pinlock

import "time"

// State is the facade state derived from the stored credential and session.
type State int

const (
	// StateUninitialized means no credential exists and no session is open.
	// The UI's transient setup-pending step also reports this state.
	StateUninitialized State = iota
	// StateUnlocked means a valid session exists, with or without a PIN.
	StateUnlocked
	// StateLocked means a credential exists and no valid session is open.
	StateLocked
	// StateAccountLocked means a failure lockout is active.
	StateAccountLocked
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateUnlocked:
		return "unlocked"
	case StateLocked:
		return "locked"
	case StateAccountLocked:
		return "account_locked"
	default:
		return "unknown"
	}
}

// LockInfo reports an active failure lockout.
type LockInfo struct {
	Locked    bool
	Remaining time.Duration
	UnlockAt  time.Time
}

// AttemptsInfo reports the failure counter for display.
type AttemptsInfo struct {
	FailedAttempts int
	MaxAttempts    int
	Remaining      int
}

// SessionInfo describes the current session without exposing its token.
type SessionInfo struct {
	CreatedAt time.Time
	ExpiresAt time.Time // zero when the session never expires
	Expiring  bool
}
