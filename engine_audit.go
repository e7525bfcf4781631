package pinlock

import (
	"errors"
)

const (
	auditEventSetupSuccess        = "pin_setup_success"
	auditEventSetupFailure        = "pin_setup_failure"
	auditEventSetupSkipped        = "pin_setup_skipped"
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventLoginLocked         = "login_locked"
	auditEventLockoutTriggered    = "lockout_triggered"
	auditEventPINChangeSuccess    = "pin_change_success"
	auditEventPINChangeInvalidOld = "pin_change_invalid_old"
	auditEventPINChangeFailure    = "pin_change_failure"
	auditEventPINResetSuccess     = "pin_reset_success"
	auditEventPINResetFailure     = "pin_reset_failure"
	auditEventWorkspaceWiped      = "workspace_wiped"
	auditEventPINDisabled         = "pin_disabled"
	auditEventPINDisableFailure   = "pin_disable_failure"
	auditEventSessionExpired      = "session_expired"
	auditEventLogout              = "logout"
)

// AuditErrorCode is the stable error label attached to failed audit events.
type AuditErrorCode string

const (
	auditErrValidation          AuditErrorCode = "validation"
	auditErrNotConfigured       AuditErrorCode = "not_configured"
	auditErrAlreadyConfigured   AuditErrorCode = "already_configured"
	auditErrIncorrectCredential AuditErrorCode = "incorrect_credential"
	auditErrInvalidCredential   AuditErrorCode = "invalid_credential"
	auditErrLocked              AuditErrorCode = "locked"
	auditErrNotAuthenticated    AuditErrorCode = "not_authenticated"
	auditErrCorrupt             AuditErrorCode = "corrupt_record"
	auditErrUnavailable         AuditErrorCode = "backend_unavailable"
	auditErrInternal            AuditErrorCode = "internal_error"
)

// emitAudit stamps ev with the engine clock and the outcome of err and
// queues it. It must be called with e.mu held; the queue never blocks.
func (e *Engine) emitAudit(ev AuditEvent, err error) {
	if e == nil || e.audit == nil {
		return
	}
	ev.Timestamp = e.now().UTC()
	ev.Success = err == nil
	ev.Error = string(auditErrorCode(err))
	e.audit.Enqueue(ev)
	e.auditQueued = true
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrNotConfigured):
		return auditErrNotConfigured
	case errors.Is(err, ErrAlreadyConfigured):
		return auditErrAlreadyConfigured
	case errors.Is(err, ErrIncorrectCredential):
		return auditErrIncorrectCredential
	case errors.Is(err, ErrInvalidCredential):
		return auditErrInvalidCredential
	case errors.Is(err, ErrLocked):
		return auditErrLocked
	case errors.Is(err, ErrNotAuthenticated):
		return auditErrNotAuthenticated
	case errors.Is(err, ErrCorruptCredential):
		return auditErrCorrupt
	case errors.Is(err, ErrStorageFailure):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
