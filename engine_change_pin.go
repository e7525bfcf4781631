package pinlock

import (
	"context"
	"errors"
)

// ChangePIN requires a valid session and the current PIN. A wrong current PIN
// returns ErrIncorrectCredential and does not count toward lockout. The
// session is left untouched.
func (e *Engine) ChangePIN(ctx context.Context, oldPIN, newPIN, confirm string) error {
	if err := e.ready(); err != nil {
		return err
	}
	defer e.lock(ctx)()

	if err := e.requireSession(ctx); err != nil {
		e.emitAudit(AuditEvent{EventType: auditEventPINChangeFailure}, err)
		return err
	}

	if err := e.credentials.Rotate(ctx, oldPIN, newPIN, confirm); err != nil {
		if errors.Is(err, ErrIncorrectCredential) {
			e.metricInc(MetricPINChangeInvalidOld)
			e.emitAudit(AuditEvent{EventType: auditEventPINChangeInvalidOld}, err)
			return err
		}
		e.noteStorage(err)
		e.emitAudit(AuditEvent{EventType: auditEventPINChangeFailure}, err)
		return err
	}

	e.metricInc(MetricPINChangeSuccess)
	e.emitAudit(AuditEvent{EventType: auditEventPINChangeSuccess}, nil)
	return nil
}
