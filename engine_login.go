package pinlock

import (
	"context"
	"errors"
)

// Login verifies pinValue and opens an expiring session. While a lockout is
// active it returns *LockedError without deriving. A wrong PIN returns
// *InvalidCredentialError, or *LockedError when the failure starts a lockout.
func (e *Engine) Login(ctx context.Context, pinValue string) error {
	if err := e.ready(); err != nil {
		return err
	}
	defer e.lock(ctx)()

	before, err := e.credentials.Status(ctx)
	if err != nil {
		e.noteStorage(err)
		e.emitAudit(AuditEvent{EventType: auditEventLoginFailure}, err)
		return err
	}

	if err := e.credentials.Verify(ctx, pinValue); err != nil {
		e.recordLoginFailure(before.Locked, before.FailedAttempts, err)
		return err
	}

	s, err := e.openSession(ctx, true)
	if err != nil {
		e.emitAudit(AuditEvent{EventType: auditEventLoginFailure}, err)
		return err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(AuditEvent{EventType: auditEventLoginSuccess, SessionID: s.Token}, nil)
	return nil
}

// recordLoginFailure classifies a failed Verify. wasLocked and failures are
// the credential status read before the attempt.
func (e *Engine) recordLoginFailure(wasLocked bool, failures int, err error) {
	var locked *LockedError
	var invalid *InvalidCredentialError

	switch {
	case errors.As(err, &locked) && wasLocked:
		e.metricInc(MetricLoginLocked)
		e.emitAudit(AuditEvent{
			EventType:      auditEventLoginLocked,
			FailedAttempts: failures,
			LockoutUntil:   locked.UnlockAt.UTC(),
		}, err)
	case errors.As(err, &locked):
		e.metricInc(MetricLoginFailure)
		e.metricInc(MetricLockoutTriggered)
		e.emitAudit(AuditEvent{
			EventType:      auditEventLockoutTriggered,
			FailedAttempts: failures + 1,
			LockoutUntil:   locked.UnlockAt.UTC(),
		}, err)
	case errors.As(err, &invalid):
		e.metricInc(MetricLoginFailure)
		e.emitAudit(AuditEvent{
			EventType:         auditEventLoginFailure,
			FailedAttempts:    failures + 1,
			AttemptsRemaining: invalid.AttemptsRemaining,
		}, err)
	case errors.Is(err, ErrValidation):
		e.metricInc(MetricLoginFailure)
		e.emitAudit(AuditEvent{EventType: auditEventLoginFailure, FailedAttempts: failures}, err)
	default:
		e.noteStorage(err)
		e.emitAudit(AuditEvent{EventType: auditEventLoginFailure}, err)
	}
}

// Logout closes the session. Logging out twice is not an error.
func (e *Engine) Logout(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	defer e.lock(ctx)()

	if err := e.sessions.Close(ctx); err != nil {
		e.noteStorage(err)
		e.emitAudit(AuditEvent{EventType: auditEventLogout}, err)
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(AuditEvent{EventType: auditEventLogout}, nil)
	return nil
}
