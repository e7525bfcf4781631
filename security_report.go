package pinlock

import (
	"time"

	"github.com/MrEthical07/pinlock/internal/security"
)

// SecurityReport summarizes the protection the effective configuration gives.
type SecurityReport struct {
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

// DerivationReport lists the parameters new credentials are derived with.
type DerivationReport struct {
	Algorithm   string
	Iterations  uint32
	KeyLength   uint32
	SaltLength  int
	Memory      uint32
	Parallelism uint8
}

// SecurityReport builds the report from the engine's configuration. It never
// touches storage.
func (e *Engine) SecurityReport() SecurityReport {
	if e == nil {
		return SecurityReport{}
	}

	p := e.config.pinParams()
	r := security.BuildReport(security.ReportInput{
		Algorithm:         string(p.Algorithm),
		Iterations:        p.Iterations,
		KeyLength:         p.KeyLength,
		SaltLength:        e.config.Derivation.SaltLength,
		Memory:            p.Memory,
		Parallelism:       p.Parallelism,
		PINMinLength:      e.config.PIN.MinLength,
		PINMaxLength:      e.config.PIN.MaxLength,
		MaxFailedAttempts: e.config.Lockout.MaxFailedAttempts,
		LockoutBase:       e.config.Lockout.BaseDuration,
		LockoutMax:        e.config.Lockout.MaxDuration,
		SessionTTL:        e.config.Session.TTL,
		AuditEnabled:      e.config.Audit.Enabled,
		MetricsEnabled:    e.config.Metrics.Enabled,
	})

	return SecurityReport{
		Derivation:       DerivationReport(r.Derivation),
		WeakDerivation:   r.WeakDerivation,
		PINMinLength:     r.PINMinLength,
		PINMaxLength:     r.PINMaxLength,
		PINSpace:         r.PINSpace,
		LockoutThreshold: r.LockoutThreshold,
		LockoutBase:      r.LockoutBase,
		LockoutMax:       r.LockoutMax,
		LockoutActive:    r.LockoutActive,
		SessionTTL:       r.SessionTTL,
		AuditEnabled:     r.AuditEnabled,
		MetricsEnabled:   r.MetricsEnabled,
	}
}
