package credential

import (
	"time"

	"github.com/MrEthical07/pinlock/pin"
)

// Record is the persisted PIN credential. Its presence is what enables PIN
// protection.
type Record struct {
	SecretHash []byte
	Salt       []byte

	Algorithm   pin.Algorithm
	Iterations  uint32
	Memory      uint32
	Parallelism uint8

	CreatedAt time.Time

	FailedAttempts int
	// LockoutUntil is zero when no lockout is recorded.
	LockoutUntil time.Time
}

// Params returns the derivation parameters the record was created with.
func (r *Record) Params() pin.Params {
	return pin.Params{
		Algorithm:   r.Algorithm,
		Iterations:  r.Iterations,
		KeyLength:   uint32(len(r.SecretHash)),
		Memory:      r.Memory,
		Parallelism: r.Parallelism,
	}
}

// Status is the lock and attempt state of the credential at one instant.
type Status struct {
	Configured        bool
	FailedAttempts    int
	AttemptsRemaining int
	Locked            bool
	Remaining         time.Duration
	UnlockAt          time.Time
}
