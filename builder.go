package pinlock

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/MrEthical07/pinlock/credential"
	"github.com/MrEthical07/pinlock/internal/audit"
	"github.com/MrEthical07/pinlock/session"
	"github.com/MrEthical07/pinlock/store"
)

// Builder assembles an Engine. A Builder is single-use: Build fails on the
// second call.
type Builder struct {
	config  Config
	backend store.Backend

	random    io.Reader
	now       func() time.Time
	logger    *slog.Logger
	auditSink AuditSink

	built bool
}

// New starts from DefaultConfig. No storage is touched until the Engine runs
// an operation.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithBackend sets the storage backend. It is required.
func (b *Builder) WithBackend(backend store.Backend) *Builder {
	b.backend = backend
	return b
}

// WithRandom overrides the randomness source used for salts and session
// tokens. Tests use it for deterministic tokens.
func (b *Builder) WithRandom(r io.Reader) *Builder {
	b.random = r
	return b
}

// WithClock overrides time.Now for lockout and session expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithLogger sets the logger for best-effort side-effect failures.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink enables audit dispatch to sink. A nil sink disables it.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = sink != nil
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the key-derivation latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the credential store and
// session manager over the backend. It fails when no backend was supplied or
// when the Builder was already used.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.backend == nil {
		return nil, errors.New("storage backend required")
	}

	cfg := b.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := b.now
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:  cfg,
		backend: b.backend,
		logger:  logger,
		now:     now,
	}
	engine.metrics = NewMetrics(cfg.Metrics)
	if cfg.Audit.Enabled {
		engine.audit = audit.NewDispatcher(b.auditSink, audit.Options{
			Capacity:   cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
			Logger:     logger,
		})
	}

	engine.credentials = credential.NewStore(b.backend, credential.Options{
		Key:        cfg.Storage.CredentialKey,
		Params:     cfg.pinParams(),
		SaltLength: cfg.Derivation.SaltLength,
		Format:     cfg.pinFormat(),
		Lockout:    cfg.lockoutPolicy(),
		Random:     b.random,
		Now:        now,
		OnDerive: func(d time.Duration) {
			engine.metrics.Observe(MetricDeriveLatency, d)
		},
	})
	engine.sessions = session.NewManager(b.backend, session.Options{
		Key:    cfg.Storage.SessionKey,
		TTL:    cfg.Session.TTL,
		Random: b.random,
		Now:    now,
	})

	b.built = true

	return engine, nil
}
