package pinlock

import "context"

// SetupPIN creates the credential and opens an expiring session. It fails
// with *ValidationError on malformed input or mismatched confirmation and with
// ErrAlreadyConfigured when a PIN already exists.
func (e *Engine) SetupPIN(ctx context.Context, pinValue, confirm string) error {
	if err := e.ready(); err != nil {
		return err
	}
	defer e.lock(ctx)()

	if err := e.credentials.Create(ctx, pinValue, confirm); err != nil {
		e.metricInc(MetricSetupFailure)
		e.noteStorage(err)
		e.emitAudit(AuditEvent{EventType: auditEventSetupFailure}, err)
		return err
	}

	s, err := e.openSession(ctx, true)
	if err != nil {
		e.metricInc(MetricSetupFailure)
		e.emitAudit(AuditEvent{EventType: auditEventSetupFailure}, err)
		return err
	}

	e.metricInc(MetricSetupSuccess)
	e.emitAudit(AuditEvent{EventType: auditEventSetupSuccess, SessionID: s.Token}, nil)
	return nil
}

// SkipSetup opens a non-expiring session without creating a credential.
func (e *Engine) SkipSetup(ctx context.Context) error {
	if err := e.ready(); err != nil {
		return err
	}
	defer e.lock(ctx)()

	exists, err := e.credentials.Exists(ctx)
	if err != nil {
		e.noteStorage(err)
		return err
	}
	if exists {
		e.emitAudit(AuditEvent{EventType: auditEventSetupSkipped}, ErrAlreadyConfigured)
		return ErrAlreadyConfigured
	}

	s, err := e.openSession(ctx, false)
	if err != nil {
		return err
	}

	e.metricInc(MetricSetupSkipped)
	e.emitAudit(AuditEvent{EventType: auditEventSetupSkipped, SessionID: s.Token}, nil)
	return nil
}

// DisablePIN removes PIN protection. Without a credential it only opens a
// non-expiring session. With one, it requires a valid session and the
// current PIN; a wrong PIN returns ErrIncorrectCredential without counting
// toward lockout.
func (e *Engine) DisablePIN(ctx context.Context, currentPIN string) error {
	if err := e.ready(); err != nil {
		return err
	}
	defer e.lock(ctx)()

	if err := e.disablePIN(ctx, currentPIN); err != nil {
		e.metricInc(MetricPINDisableFailure)
		e.noteStorage(err)
		e.emitAudit(AuditEvent{EventType: auditEventPINDisableFailure}, err)
		return err
	}
	return nil
}

func (e *Engine) disablePIN(ctx context.Context, currentPIN string) error {
	exists, err := e.credentials.Exists(ctx)
	if err != nil {
		return err
	}

	if exists {
		if err := e.requireSession(ctx); err != nil {
			return err
		}
		ok, err := e.credentials.Matches(ctx, currentPIN)
		if err != nil {
			return err
		}
		if !ok {
			return ErrIncorrectCredential
		}
		if err := e.credentials.Remove(ctx); err != nil {
			return err
		}
	}

	s, err := e.openSession(ctx, false)
	if err != nil {
		return err
	}

	e.metricInc(MetricPINDisabled)
	e.emitAudit(AuditEvent{EventType: auditEventPINDisabled, SessionID: s.Token, CredentialRemoved: exists}, nil)
	return nil
}
