package pinlock

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/pinlock/credential"
	"github.com/MrEthical07/pinlock/internal/limiters"
	"github.com/MrEthical07/pinlock/pin"
	"github.com/MrEthical07/pinlock/session"
	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "PINLOCK_"

// Config is the complete engine configuration. Every section can be loaded
// from TOML (field tags) or overlaid from PINLOCK_* environment variables.
type Config struct {
	Derivation DerivationConfig `toml:"derivation" envPrefix:"DERIVATION_"`
	PIN        PINConfig        `toml:"pin" envPrefix:"PIN_"`
	Lockout    LockoutConfig    `toml:"lockout" envPrefix:"LOCKOUT_"`
	Session    SessionConfig    `toml:"session" envPrefix:"SESSION_"`
	Storage    StorageConfig    `toml:"storage" envPrefix:"STORAGE_"`
	Audit      AuditConfig      `toml:"audit" envPrefix:"AUDIT_"`
	Metrics    MetricsConfig    `toml:"metrics" envPrefix:"METRICS_"`
}

/*
====================================
DERIVATION CONFIG
====================================
*/

// DerivationConfig selects the key-derivation function for new credentials.
// Existing credentials keep verifying with the parameters stored alongside
// them.
type DerivationConfig struct {
	Algorithm   pin.Algorithm `toml:"algorithm" env:"ALGORITHM"`
	Iterations  uint32        `toml:"iterations" env:"ITERATIONS"`
	KeyLength   uint32        `toml:"key_length" env:"KEY_LENGTH"`
	SaltLength  int           `toml:"salt_length" env:"SALT_LENGTH"`
	Memory      uint32        `toml:"memory_kib" env:"MEMORY_KIB"` // argon2id only
	Parallelism uint8         `toml:"parallelism" env:"PARALLELISM"`
}

// PINConfig bounds the accepted PIN length. PINs are always ASCII digits.
type PINConfig struct {
	MinLength int `toml:"min_length" env:"MIN_LENGTH"`
	MaxLength int `toml:"max_length" env:"MAX_LENGTH"`
}

// LockoutConfig drives the failure backoff policy.
type LockoutConfig struct {
	MaxFailedAttempts int           `toml:"max_failed_attempts" env:"MAX_FAILED_ATTEMPTS"`
	BaseDuration      time.Duration `toml:"base_duration" env:"BASE_DURATION"`
	MaxDuration       time.Duration `toml:"max_duration" env:"MAX_DURATION"`
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	TTL time.Duration `toml:"ttl" env:"TTL"`
}

// StorageConfig names the records the engine owns in the backend.
type StorageConfig struct {
	CredentialKey string `toml:"credential_key" env:"CREDENTIAL_KEY"`
	SessionKey    string `toml:"session_key" env:"SESSION_KEY"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `toml:"enabled" env:"ENABLED"`
	BufferSize int  `toml:"buffer_size" env:"BUFFER_SIZE"`
	DropIfFull bool `toml:"drop_if_full" env:"DROP_IF_FULL"`
}

// MetricsConfig controls in-process counters and the derivation histogram.
type MetricsConfig struct {
	Enabled                 bool `toml:"enabled" env:"ENABLED"`
	EnableLatencyHistograms bool `toml:"latency_histograms" env:"LATENCY_HISTOGRAMS"`
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns PBKDF2-SHA256 at 150,000 iterations, 4-6 digit PINs,
// lockout after 5 failures (5m doubling to 24h) and 7-day sessions.
func DefaultConfig() Config {
	return Config{
		Derivation: DerivationConfig{
			Algorithm:  pin.AlgorithmPBKDF2SHA256,
			Iterations: pin.DefaultIterations,
			KeyLength:  pin.DefaultKeyLength,
			SaltLength: pin.DefaultSaltLength,
		},
		PIN: PINConfig{
			MinLength: pin.DefaultMinLength,
			MaxLength: pin.DefaultMaxLength,
		},
		Lockout: LockoutConfig{
			MaxFailedAttempts: limiters.DefaultMaxFailedAttempts,
			BaseDuration:      limiters.DefaultLockoutBase,
			MaxDuration:       limiters.DefaultLockoutMax,
		},
		Session: SessionConfig{
			TTL: session.DefaultTTL,
		},
		Storage: StorageConfig{
			CredentialKey: credential.DefaultKey,
			SessionKey:    session.DefaultKey,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// ApplyEnv overlays PINLOCK_* environment variables onto cfg. Unset variables
// leave the corresponding fields untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadConfigFromEnv returns DefaultConfig overlaid with the environment and
// validated.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := ApplyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) pinParams() pin.Params {
	p := pin.Params{
		Algorithm:  c.Derivation.Algorithm,
		Iterations: c.Derivation.Iterations,
		KeyLength:  c.Derivation.KeyLength,
	}
	if c.Derivation.Algorithm == pin.AlgorithmArgon2id {
		p.Memory = c.Derivation.Memory
		p.Parallelism = c.Derivation.Parallelism
	}
	return p
}

func (c *Config) pinFormat() pin.Format {
	return pin.Format{MinLength: c.PIN.MinLength, MaxLength: c.PIN.MaxLength}
}

func (c *Config) lockoutPolicy() limiters.LockoutPolicy {
	return limiters.LockoutPolicy{
		MaxFailedAttempts: c.Lockout.MaxFailedAttempts,
		BaseDuration:      c.Lockout.BaseDuration,
		MaxDuration:       c.Lockout.MaxDuration,
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the engine cannot run with safely.
func (c *Config) Validate() error {
	// Derivation
	if err := c.pinParams().Validate(); err != nil {
		return fmt.Errorf("Derivation: %w", err)
	}
	if c.Derivation.KeyLength > 255 {
		return errors.New("Derivation KeyLength must be <= 255")
	}
	if c.Derivation.SaltLength < pin.MinSaltLength || c.Derivation.SaltLength > 255 {
		return fmt.Errorf("Derivation SaltLength must be between %d and 255", pin.MinSaltLength)
	}

	// PIN
	if c.PIN.MinLength < 1 {
		return errors.New("PIN MinLength must be >= 1")
	}
	if c.PIN.MaxLength < c.PIN.MinLength {
		return errors.New("PIN MaxLength must be >= MinLength")
	}

	// Lockout
	if c.Lockout.MaxFailedAttempts < 1 {
		return errors.New("Lockout MaxFailedAttempts must be >= 1")
	}
	if c.Lockout.BaseDuration <= 0 {
		return errors.New("Lockout BaseDuration must be > 0")
	}
	if c.Lockout.MaxDuration < c.Lockout.BaseDuration {
		return errors.New("Lockout MaxDuration must be >= BaseDuration")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}

	// Storage
	if c.Storage.CredentialKey == "" || c.Storage.SessionKey == "" {
		return errors.New("Storage keys must be non-empty")
	}
	if c.Storage.CredentialKey == c.Storage.SessionKey {
		return errors.New("Storage CredentialKey and SessionKey must differ")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
