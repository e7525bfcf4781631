package pinlock

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/pinlock/internal/security"
	"github.com/MrEthical07/pinlock/pin"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	// LintInfo marks a deliberate but notable choice.
	LintInfo LintSeverity = iota
	// LintWarn marks a setting that weakens protection.
	LintWarn
	// LintHigh marks a setting that defeats the purpose of the PIN.
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one finding from Config.Lint.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError returns an error listing every warning at or above min, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	hits := r.BySeverity(min)
	if len(hits) == 0 {
		return nil
	}
	parts := make([]string, 0, len(hits))
	for _, w := range hits {
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

const (
	lintWeakPBKDF2Iterations = 10000
	lintMaxSessionTTL        = 30 * 24 * time.Hour
	lintMinLockoutBase       = time.Minute
	lintMaxFailedAttempts    = 10
)

// Lint reports settings that are valid but weaken protection. It never
// fails; use AsError to turn findings into a startup gate.
func (c Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	switch c.Derivation.Algorithm {
	case pin.AlgorithmPBKDF2SHA256:
		if c.Derivation.Iterations < lintWeakPBKDF2Iterations {
			add("pbkdf2_iterations_weak", LintHigh, "PBKDF2 iterations %d make offline brute force of a numeric PIN trivial", c.Derivation.Iterations)
		} else if c.Derivation.Iterations < security.MinPBKDF2Iterations {
			add("pbkdf2_iterations_low", LintWarn, "PBKDF2 iterations %d below %d", c.Derivation.Iterations, security.MinPBKDF2Iterations)
		}
	case pin.AlgorithmArgon2id:
		if c.Derivation.Memory < security.MinArgon2MemoryKiB {
			add("argon2_memory_low", LintWarn, "argon2id memory %d KiB below %d KiB", c.Derivation.Memory, security.MinArgon2MemoryKiB)
		}
	}

	if c.PIN.MinLength < security.MinPINLength {
		add("pin_min_length_short", LintHigh, "PINs shorter than %d digits are accepted", security.MinPINLength)
	}

	if c.Lockout.MaxFailedAttempts > lintMaxFailedAttempts {
		add("lockout_threshold_high", LintWarn, "%d failures allowed before lockout", c.Lockout.MaxFailedAttempts)
	}
	if c.Lockout.BaseDuration < lintMinLockoutBase {
		add("lockout_base_short", LintWarn, "first lockout lasts only %s", c.Lockout.BaseDuration)
	}

	if c.Session.TTL > lintMaxSessionTTL {
		add("session_ttl_long", LintInfo, "sessions stay valid for %s", c.Session.TTL)
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "audit events are not emitted")
	} else if !c.Audit.DropIfFull {
		add("audit_backpressure", LintInfo, "a sink slower than the operation rate delays callers once %d events are queued", c.Audit.BufferSize)
	}

	return ws
}
