package security

import "time"

// Weak-configuration thresholds shared by the report and config lint.
const (
	MinPBKDF2Iterations = 100000
	MinArgon2MemoryKiB  = 64 * 1024
	MinPINLength        = 4
)

type DerivationReport struct {
	Algorithm   string
	Iterations  uint32
	KeyLength   uint32
	SaltLength  int
	Memory      uint32
	Parallelism uint8
}

type Report struct {
	Derivation       DerivationReport
	WeakDerivation   bool
	PINMinLength     int
	PINMaxLength     int
	PINSpace         uint64
	LockoutThreshold int
	LockoutBase      time.Duration
	LockoutMax       time.Duration
	LockoutActive    bool
	SessionTTL       time.Duration
	AuditEnabled     bool
	MetricsEnabled   bool
}

type ReportInput struct {
	Algorithm         string
	Iterations        uint32
	KeyLength         uint32
	SaltLength        int
	Memory            uint32
	Parallelism       uint8
	PINMinLength      int
	PINMaxLength      int
	MaxFailedAttempts int
	LockoutBase       time.Duration
	LockoutMax        time.Duration
	SessionTTL        time.Duration
	AuditEnabled      bool
	MetricsEnabled    bool
}

// BuildReport summarizes input. PINSpace counts every accepted PIN and
// saturates at the uint64 maximum.
func BuildReport(input ReportInput) Report {
	var weak bool
	switch input.Algorithm {
	case "argon2id":
		weak = input.Memory < MinArgon2MemoryKiB
	default:
		weak = input.Iterations < MinPBKDF2Iterations
	}

	return Report{
		Derivation: DerivationReport{
			Algorithm:   input.Algorithm,
			Iterations:  input.Iterations,
			KeyLength:   input.KeyLength,
			SaltLength:  input.SaltLength,
			Memory:      input.Memory,
			Parallelism: input.Parallelism,
		},
		WeakDerivation:   weak || input.PINMinLength < MinPINLength,
		PINMinLength:     input.PINMinLength,
		PINMaxLength:     input.PINMaxLength,
		PINSpace:         pinSpace(input.PINMinLength, input.PINMaxLength),
		LockoutThreshold: input.MaxFailedAttempts,
		LockoutBase:      input.LockoutBase,
		LockoutMax:       input.LockoutMax,
		LockoutActive:    input.MaxFailedAttempts > 0 && input.LockoutBase > 0,
		SessionTTL:       input.SessionTTL,
		AuditEnabled:     input.AuditEnabled,
		MetricsEnabled:   input.MetricsEnabled,
	}
}

func pinSpace(minLen, maxLen int) uint64 {
	const maxUint64 = ^uint64(0)
	var total uint64
	for n := minLen; n <= maxLen; n++ {
		if n < 0 {
			continue
		}
		count := uint64(1)
		for i := 0; i < n; i++ {
			if count > maxUint64/10 {
				return maxUint64
			}
			count *= 10
		}
		if total > maxUint64-count {
			return maxUint64
		}
		total += count
	}
	return total
}
