package internaldefs

import (
	"context"

	"github.com/MrEthical07/pinlock"
)

// Source is the engine surface every exporter reads. *pinlock.Engine
// satisfies it.
type Source interface {
	MetricsSnapshot() pinlock.MetricsSnapshot
	AuditStats() pinlock.AuditStats
	FailedAttemptsInfo(ctx context.Context) (pinlock.AttemptsInfo, error)
	IsLocked(ctx context.Context) (pinlock.LockInfo, error)
}

// CounterDef binds an engine counter to its exported name.
type CounterDef struct {
	ID   pinlock.MetricID
	Name string
	Help string
}

// HistogramDef binds an engine histogram to its exported name.
type HistogramDef struct {
	ID   pinlock.MetricID
	Name string
	Help string
}

// AuditCounterDef binds a dispatcher counter to its exported name.
type AuditCounterDef struct {
	Name  string
	Help  string
	Value func(pinlock.AuditStats) uint64
}

// AuditCounterDefs lists the audit dispatcher counters.
var AuditCounterDefs = []AuditCounterDef{
	{
		Name:  "pinlock_audit_delivered_total",
		Help:  "Audit events handed to the sink.",
		Value: func(s pinlock.AuditStats) uint64 { return s.Delivered },
	},
	{
		Name:  "pinlock_audit_dropped_total",
		Help:  "Audit events dropped on a full queue.",
		Value: func(s pinlock.AuditStats) uint64 { return s.Dropped },
	},
	{
		Name:  "pinlock_audit_failed_total",
		Help:  "Audit events whose sink panicked.",
		Value: func(s pinlock.AuditStats) uint64 { return s.Failed },
	},
}

// AuditPendingName is the gauge for events still waiting for the sink.
const AuditPendingName = "pinlock_audit_pending"

// LockoutState is the stored lockout position at one collection.
type LockoutState struct {
	FailedAttempts   int
	MaxAttempts      int
	Locked           bool
	RemainingSeconds float64
}

// ReadLockout reads the failure counter and the lockout from src. The engine
// reports defaults for an unreadable credential, so an error here means the
// engine is not ready.
func ReadLockout(ctx context.Context, src Source) (LockoutState, error) {
	attempts, err := src.FailedAttemptsInfo(ctx)
	if err != nil {
		return LockoutState{}, err
	}
	lock, err := src.IsLocked(ctx)
	if err != nil {
		return LockoutState{}, err
	}
	return LockoutState{
		FailedAttempts:   attempts.FailedAttempts,
		MaxAttempts:      attempts.MaxAttempts,
		Locked:           lock.Locked,
		RemainingSeconds: lock.Remaining.Seconds(),
	}, nil
}

// GaugeDef binds a lockout reading to its exported name.
type GaugeDef struct {
	Name  string
	Help  string
	Value func(LockoutState) float64
}

// LockoutGaugeDefs lists the lockout gauges in a stable order.
var LockoutGaugeDefs = []GaugeDef{
	{
		Name:  "pinlock_failed_attempts",
		Help:  "Consecutive wrong PINs recorded on the credential.",
		Value: func(s LockoutState) float64 { return float64(s.FailedAttempts) },
	},
	{
		Name:  "pinlock_max_failed_attempts",
		Help:  "Wrong PINs allowed before a lockout starts.",
		Value: func(s LockoutState) float64 { return float64(s.MaxAttempts) },
	},
	{
		Name: "pinlock_locked",
		Help: "1 while a failure lockout is active.",
		Value: func(s LockoutState) float64 {
			if s.Locked {
				return 1
			}
			return 0
		},
	},
	{
		Name:  "pinlock_lockout_remaining_seconds",
		Help:  "Seconds until the active lockout ends.",
		Value: func(s LockoutState) float64 { return s.RemainingSeconds },
	},
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: pinlock.MetricSetupSuccess, Name: "pinlock_setup_success_total", Help: "PINs created by setup."},
	{ID: pinlock.MetricSetupFailure, Name: "pinlock_setup_failure_total", Help: "Rejected setup attempts."},
	{ID: pinlock.MetricSetupSkipped, Name: "pinlock_setup_skipped_total", Help: "Setups skipped without a PIN."},
	{ID: pinlock.MetricLoginSuccess, Name: "pinlock_login_success_total", Help: "Successful logins."},
	{ID: pinlock.MetricLoginFailure, Name: "pinlock_login_failure_total", Help: "Logins rejected for a wrong or malformed PIN."},
	{ID: pinlock.MetricLoginLocked, Name: "pinlock_login_locked_total", Help: "Logins refused during an active lockout."},
	{ID: pinlock.MetricLockoutTriggered, Name: "pinlock_lockout_triggered_total", Help: "Failures that started a lockout."},
	{ID: pinlock.MetricPINChangeSuccess, Name: "pinlock_pin_change_success_total", Help: "Successful PIN changes."},
	{ID: pinlock.MetricPINChangeInvalidOld, Name: "pinlock_pin_change_invalid_old_total", Help: "PIN changes with a wrong current PIN."},
	{ID: pinlock.MetricPINResetSuccess, Name: "pinlock_pin_reset_success_total", Help: "Successful PIN resets."},
	{ID: pinlock.MetricPINResetWipe, Name: "pinlock_pin_reset_wipe_total", Help: "PIN resets that wiped workspace data."},
	{ID: pinlock.MetricPINResetFailure, Name: "pinlock_pin_reset_failure_total", Help: "Failed PIN resets."},
	{ID: pinlock.MetricPINDisabled, Name: "pinlock_pin_disabled_total", Help: "PIN protection disabled."},
	{ID: pinlock.MetricPINDisableFailure, Name: "pinlock_pin_disable_failure_total", Help: "Rejected attempts to disable PIN protection."},
	{ID: pinlock.MetricSessionCreated, Name: "pinlock_session_created_total", Help: "Opened sessions."},
	{ID: pinlock.MetricSessionExpired, Name: "pinlock_session_expired_total", Help: "Sessions found expired by a validity check."},
	{ID: pinlock.MetricLogout, Name: "pinlock_logout_total", Help: "Logout operations."},
	{ID: pinlock.MetricStorageFailure, Name: "pinlock_storage_failure_total", Help: "Operations failed by the storage backend."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: pinlock.MetricDeriveLatency, Name: "pinlock_derive_latency_seconds", Help: "PIN key-derivation latency."},
}

// HistogramBounds are the upper bounds in seconds, matching the engine buckets.
var HistogramBounds = []string{
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"+Inf",
}

// HistogramBoundSuffix is HistogramBounds in a form usable inside metric names.
var HistogramBoundSuffix = []string{
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"1",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding with zeros.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
