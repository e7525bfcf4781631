package pinlock

import (
	"testing"
	"time"

	"github.com/MrEthical07/pinlock/pin"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Derivation.Iterations != 150000 || cfg.Derivation.KeyLength != 32 || cfg.Derivation.SaltLength != 16 {
		t.Fatalf("unexpected derivation defaults: %+v", cfg.Derivation)
	}
	if cfg.Lockout.MaxFailedAttempts != 5 || cfg.Lockout.BaseDuration != 5*time.Minute || cfg.Lockout.MaxDuration != 24*time.Hour {
		t.Fatalf("unexpected lockout defaults: %+v", cfg.Lockout)
	}
	if cfg.Session.TTL != 7*24*time.Hour {
		t.Fatalf("unexpected session TTL %v", cfg.Session.TTL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name:      "argon2id with memory",
			wantValid: true,
			mutate: func(c *Config) {
				c.Derivation.Algorithm = pin.AlgorithmArgon2id
				c.Derivation.Iterations = 3
				c.Derivation.Memory = 64 * 1024
				c.Derivation.Parallelism = 2
			},
		},
		{
			name: "argon2id without memory",
			mutate: func(c *Config) {
				c.Derivation.Algorithm = pin.AlgorithmArgon2id
			},
		},
		{
			name: "unknown algorithm",
			mutate: func(c *Config) {
				c.Derivation.Algorithm = "md5"
			},
		},
		{
			name: "zero iterations",
			mutate: func(c *Config) {
				c.Derivation.Iterations = 0
			},
		},
		{
			name: "short salt",
			mutate: func(c *Config) {
				c.Derivation.SaltLength = 8
			},
		},
		{
			name: "oversized key",
			mutate: func(c *Config) {
				c.Derivation.KeyLength = 512
			},
		},
		{
			name: "min length zero",
			mutate: func(c *Config) {
				c.PIN.MinLength = 0
			},
		},
		{
			name: "max below min",
			mutate: func(c *Config) {
				c.PIN.MaxLength = 3
			},
		},
		{
			name: "lockout threshold zero",
			mutate: func(c *Config) {
				c.Lockout.MaxFailedAttempts = 0
			},
		},
		{
			name: "lockout cap below base",
			mutate: func(c *Config) {
				c.Lockout.MaxDuration = time.Minute
			},
		},
		{
			name: "session ttl zero",
			mutate: func(c *Config) {
				c.Session.TTL = 0
			},
		},
		{
			name: "same storage keys",
			mutate: func(c *Config) {
				c.Storage.SessionKey = c.Storage.CredentialKey
			},
		},
		{
			name: "audit enabled without buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
		},
		{
			name:      "audit disabled without buffer",
			wantValid: true,
			mutate: func(c *Config) {
				c.Audit.BufferSize = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tt.wantValid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("PINLOCK_DERIVATION_ITERATIONS", "200000")
	t.Setenv("PINLOCK_PIN_MAX_LENGTH", "8")
	t.Setenv("PINLOCK_LOCKOUT_BASE_DURATION", "2m")
	t.Setenv("PINLOCK_SESSION_TTL", "24h")
	t.Setenv("PINLOCK_AUDIT_ENABLED", "true")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}
	if cfg.Derivation.Iterations != 200000 {
		t.Fatalf("expected iterations override, got %d", cfg.Derivation.Iterations)
	}
	if cfg.PIN.MaxLength != 8 || cfg.PIN.MinLength != 4 {
		t.Fatalf("expected max length override only, got %+v", cfg.PIN)
	}
	if cfg.Lockout.BaseDuration != 2*time.Minute || cfg.Lockout.MaxDuration != 24*time.Hour {
		t.Fatalf("unexpected lockout %+v", cfg.Lockout)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Fatalf("expected session TTL override, got %v", cfg.Session.TTL)
	}
	if !cfg.Audit.Enabled || cfg.Audit.BufferSize != 256 {
		t.Fatalf("unexpected audit %+v", cfg.Audit)
	}
}

func TestLoadConfigFromEnvRejectsBadValue(t *testing.T) {
	t.Setenv("PINLOCK_SESSION_TTL", "forever")

	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigFromEnvValidates(t *testing.T) {
	t.Setenv("PINLOCK_LOCKOUT_MAX_FAILED_ATTEMPTS", "0")

	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestApplyEnvKeepsUnsetFields(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.CredentialKey = "from-file"
	t.Setenv("PINLOCK_STORAGE_SESSION_KEY", "from-env")

	if err := ApplyEnv(&cfg); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Storage.CredentialKey != "from-file" || cfg.Storage.SessionKey != "from-env" {
		t.Fatalf("unexpected storage %+v", cfg.Storage)
	}
}
