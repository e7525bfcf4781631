package pinlock

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/pinlock/credential"
	"github.com/MrEthical07/pinlock/internal/audit"
	"github.com/MrEthical07/pinlock/session"
	"github.com/MrEthical07/pinlock/store"
)

// Engine is the PIN authentication facade. Build it with New().Build().
type Engine struct {
	// mu serializes every facade operation over the (credential, session) pair.
	mu sync.Mutex

	config      Config
	backend     store.Backend
	credentials *credential.Store
	sessions    *session.Manager
	audit       *audit.Dispatcher
	auditQueued bool // guarded by mu
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time
}

// Close flushes and stops the audit dispatcher. It does not close the storage
// backend, which the caller owns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// lock takes e.mu and returns its release. An operation that queued audit
// events waits for the audit queue only after e.mu is released, so a slow
// sink delays that caller and never the next operation.
func (e *Engine) lock(ctx context.Context) func() {
	e.mu.Lock()
	return func() {
		queued := e.auditQueued
		e.auditQueued = false
		e.mu.Unlock()
		if queued {
			_ = e.audit.Settle(ctx)
		}
	}
}

// AuditStats returns the audit dispatcher counters. It is zero when audit is
// disabled.
func (e *Engine) AuditStats() AuditStats {
	if e == nil {
		return AuditStats{}
	}
	return e.audit.Stats()
}

// AuditDropped returns how many audit events were dropped on a full buffer.
func (e *Engine) AuditDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Settings exposes the backend's settings accessor to the host application.
func (e *Engine) Settings() store.Settings {
	if e == nil {
		return nil
	}
	return e.backend
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.credentials == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	return nil
}

// noteStorage counts backend failures.
func (e *Engine) noteStorage(err error) {
	if errors.Is(err, ErrStorageFailure) {
		e.metricInc(MetricStorageFailure)
	}
}

/*
====================================
STATUS
====================================
*/

// IsSetUp reports whether a PIN credential exists.
func (e *Engine) IsSetUp(ctx context.Context) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	defer e.lock(ctx)()

	ok, err := e.credentials.Exists(ctx)
	e.noteStorage(err)
	return ok, err
}

// IsAuthenticated reports whether a session exists and has not expired. An
// expired session is deleted by the check.
func (e *Engine) IsAuthenticated(ctx context.Context) (bool, error) {
	if err := e.ready(); err != nil {
		return false, err
	}
	defer e.lock(ctx)()

	return e.sessionValid(ctx)
}

// IsLocked reports the failure lockout at the engine clock's now. An absent
// credential is never locked. A credential that cannot be read reports
// unlocked; the read failure is logged, and Login surfaces it.
func (e *Engine) IsLocked(ctx context.Context) (LockInfo, error) {
	if err := e.ready(); err != nil {
		return LockInfo{}, err
	}
	defer e.lock(ctx)()

	st := e.lockoutStatus(ctx)
	return LockInfo{Locked: st.Locked, Remaining: st.Remaining, UnlockAt: st.UnlockAt}, nil
}

// FailedAttemptsInfo reports the failure counter. An absent or unreadable
// credential reports zero failures and the full allowance.
func (e *Engine) FailedAttemptsInfo(ctx context.Context) (AttemptsInfo, error) {
	if err := e.ready(); err != nil {
		return AttemptsInfo{}, err
	}
	defer e.lock(ctx)()

	st := e.lockoutStatus(ctx)
	return AttemptsInfo{
		FailedAttempts: st.FailedAttempts,
		MaxAttempts:    e.config.Lockout.MaxFailedAttempts,
		Remaining:      st.AttemptsRemaining,
	}, nil
}

// lockoutStatus must be called with e.mu held. Read failures yield the
// unconfigured status so the UI can always render its warning.
func (e *Engine) lockoutStatus(ctx context.Context) credential.Status {
	st, err := e.credentials.Status(ctx)
	if err != nil {
		e.noteStorage(err)
		e.logger.Warn("pinlock: lockout status unavailable, reporting defaults", "error", err)
		return credential.Status{AttemptsRemaining: e.config.Lockout.MaxFailedAttempts}
	}
	return st
}

// State derives the facade state. A valid session always means
// StateUnlocked; otherwise an active lockout wins over StateLocked.
func (e *Engine) State(ctx context.Context) (State, error) {
	if err := e.ready(); err != nil {
		return StateUninitialized, err
	}
	defer e.lock(ctx)()

	valid, err := e.sessionValid(ctx)
	if err != nil {
		return StateUninitialized, err
	}
	if valid {
		return StateUnlocked, nil
	}

	st, err := e.credentials.Status(ctx)
	if err != nil {
		e.noteStorage(err)
		return StateUninitialized, err
	}
	switch {
	case !st.Configured:
		return StateUninitialized, nil
	case st.Locked:
		return StateAccountLocked, nil
	default:
		return StateLocked, nil
	}
}

// CurrentSession returns the valid session, or nil when none is open.
func (e *Engine) CurrentSession(ctx context.Context) (*SessionInfo, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	defer e.lock(ctx)()

	valid, err := e.sessionValid(ctx)
	if err != nil || !valid {
		return nil, err
	}
	s, err := e.sessions.Current(ctx)
	if err != nil {
		e.noteStorage(err)
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return &SessionInfo{
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		Expiring:  s.Expiring(),
	}, nil
}

/*
====================================
SESSION HELPERS
====================================
*/

// sessionValid must be called with e.mu held.
func (e *Engine) sessionValid(ctx context.Context) (bool, error) {
	now := e.now()

	cur, err := e.sessions.Current(ctx)
	switch {
	case errors.Is(err, session.ErrCorrupt):
		e.logger.Warn("pinlock: discarding undecodable session record")
	case err != nil:
		e.noteStorage(err)
		return false, err
	case cur == nil:
		return false, nil
	case cur.ValidAt(now):
		return true, nil
	default:
		e.metricInc(MetricSessionExpired)
		e.emitAudit(AuditEvent{EventType: auditEventSessionExpired, SessionID: cur.Token}, nil)
	}

	if _, err := e.sessions.IsValid(ctx, now); err != nil {
		e.noteStorage(err)
		e.logger.Warn("pinlock: stale session cleanup failed", "error", err)
	}
	return false, nil
}

// openSession must be called with e.mu held.
func (e *Engine) openSession(ctx context.Context, expiring bool) (*session.Session, error) {
	s, err := e.sessions.Open(ctx, expiring)
	if err != nil {
		e.noteStorage(err)
		return nil, err
	}
	e.metricInc(MetricSessionCreated)
	return s, nil
}

// requireSession must be called with e.mu held.
func (e *Engine) requireSession(ctx context.Context) error {
	valid, err := e.sessionValid(ctx)
	if err != nil {
		return err
	}
	if !valid {
		return ErrNotAuthenticated
	}
	return nil
}
