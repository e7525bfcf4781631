package pinlock

import (
	"errors"

	"github.com/MrEthical07/pinlock/credential"
	"github.com/MrEthical07/pinlock/store"
)

var (
	// ErrValidation is matched by every *ValidationError: malformed PIN or
	// confirmation mismatch. Nothing is persisted.
	ErrValidation = credential.ErrValidation
	// ErrPINMismatch is the ValidationError reason for differing confirmation input.
	ErrPINMismatch = credential.ErrPINMismatch
	// ErrNotConfigured is returned when an operation needs a PIN and none is set.
	ErrNotConfigured = credential.ErrNotConfigured
	// ErrAlreadyConfigured is returned when setup or skip runs with a PIN already set.
	ErrAlreadyConfigured = credential.ErrAlreadyConfigured
	// ErrIncorrectCredential is returned for a wrong current PIN on change or disable.
	ErrIncorrectCredential = credential.ErrIncorrectCredential
	// ErrInvalidCredential is matched by every *InvalidCredentialError (wrong PIN on login).
	ErrInvalidCredential = credential.ErrInvalidCredential
	// ErrLocked is matched by every *LockedError.
	ErrLocked = credential.ErrLocked
	// ErrCorruptCredential is returned when the stored credential cannot be decoded.
	// ResetPIN still works and replaces it.
	ErrCorruptCredential = credential.ErrCorrupt
	// ErrStorageFailure wraps every backend failure. It is surfaced as-is and
	// never retried.
	ErrStorageFailure = store.ErrUnavailable
	// ErrNotAuthenticated is returned when an operation needs a valid session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

type (
	// ValidationError carries the reason a PIN was rejected.
	ValidationError = credential.ValidationError
	// InvalidCredentialError carries the attempts left before lockout.
	InvalidCredentialError = credential.InvalidCredentialError
	// LockedError carries the remaining lockout time.
	LockedError = credential.LockedError
)
