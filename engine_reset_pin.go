package pinlock

import "context"

// ResetPIN replaces the credential without the old PIN, in any state,
// including during a lockout. With wipeData it first clears every item
// collection, all settings and the session in one backend transaction, then
// writes the credential and re-seeds default settings. It always finishes by
// opening a fresh expiring session.
//
// If the credential write fails after a successful wipe, the credential record
// is removed so the emptied workspace opens without a PIN.
func (e *Engine) ResetPIN(ctx context.Context, newPIN, confirm string, wipeData bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	defer e.lock(ctx)()

	if err := e.resetPIN(ctx, newPIN, confirm, wipeData); err != nil {
		e.metricInc(MetricPINResetFailure)
		e.noteStorage(err)
		e.emitAudit(AuditEvent{EventType: auditEventPINResetFailure, Wipe: wipeData}, err)
		return err
	}
	return nil
}

func (e *Engine) resetPIN(ctx context.Context, newPIN, confirm string, wipeData bool) error {
	if err := e.credentials.Validate(newPIN, confirm); err != nil {
		return err
	}

	if wipeData {
		if err := e.backend.Wipe(ctx, e.sessions.Key()); err != nil {
			return err
		}
		e.metricInc(MetricPINResetWipe)
		e.emitAudit(AuditEvent{EventType: auditEventWorkspaceWiped, Wipe: true}, nil)
	}

	if err := e.credentials.ForceReset(ctx, newPIN, confirm); err != nil {
		if wipeData {
			if rmErr := e.credentials.Remove(ctx); rmErr != nil {
				e.logger.Error("pinlock: credential cleanup after wipe failed", "error", rmErr)
			}
		}
		return err
	}

	if wipeData {
		if err := e.backend.InitDefaults(ctx); err != nil {
			e.logger.Error("pinlock: default settings re-seed failed", "error", err)
			return err
		}
	}

	s, err := e.openSession(ctx, true)
	if err != nil {
		return err
	}

	e.metricInc(MetricPINResetSuccess)
	e.emitAudit(AuditEvent{EventType: auditEventPINResetSuccess, SessionID: s.Token, Wipe: wipeData}, nil)
	return nil
}
