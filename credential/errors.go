package credential

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid pin input")
	// ErrPINMismatch is the ValidationError reason for a confirmation that differs from the PIN.
	ErrPINMismatch = errors.New("pins do not match")
	// ErrNotConfigured is returned when an operation needs a credential and none exists.
	ErrNotConfigured = errors.New("pin not configured")
	// ErrAlreadyConfigured is returned by Create when a credential already exists.
	ErrAlreadyConfigured = errors.New("pin already configured")
	// ErrIncorrectCredential is returned when the current PIN given to rotate or disable is wrong.
	ErrIncorrectCredential = errors.New("current pin is incorrect")
	// ErrInvalidCredential is matched by every *InvalidCredentialError.
	ErrInvalidCredential = errors.New("incorrect pin")
	// ErrLocked is matched by every *LockedError.
	ErrLocked = errors.New("pin entry locked")
	// ErrCorrupt is returned when the stored blob cannot be decoded.
	ErrCorrupt = errors.New("credential record corrupt")
)

// ValidationError reports a malformed PIN or a confirmation mismatch. Reason is
// one of the pin format errors or ErrPINMismatch.
type ValidationError struct {
	Reason error
}

func (e *ValidationError) Error() string {
	if e.Reason == nil {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + e.Reason.Error()
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Reason }

// InvalidCredentialError is returned by Verify on a wrong PIN that did not
// trigger a lockout.
type InvalidCredentialError struct {
	AttemptsRemaining int
}

func (e *InvalidCredentialError) Error() string {
	if e.AttemptsRemaining == 1 {
		return "incorrect pin: 1 attempt remaining"
	}
	return fmt.Sprintf("incorrect pin: %d attempts remaining", e.AttemptsRemaining)
}

func (e *InvalidCredentialError) Is(target error) bool { return target == ErrInvalidCredential }

// LockedError is returned while a failure lockout is active.
type LockedError struct {
	Remaining time.Duration
	UnlockAt  time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("pin entry locked: try again in %d minutes", e.Minutes())
}

func (e *LockedError) Is(target error) bool { return target == ErrLocked }

// Minutes returns Remaining rounded up to whole minutes.
func (e *LockedError) Minutes() int {
	if e.Remaining <= 0 {
		return 0
	}
	return int((e.Remaining + time.Minute - 1) / time.Minute)
}
