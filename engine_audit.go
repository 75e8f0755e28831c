package realmauth

import (
	"context"
	"errors"
)

const (
	auditEventLoginSuccess             = "login_success"
	auditEventLoginFailure             = "login_failure"
	auditEventRefreshSuccess           = "refresh_success"
	auditEventRefreshInvalid           = "refresh_invalid"
	auditEventRefreshReuseDetected     = "refresh_reuse_detected"
	auditEventRegisterSuccess          = "register_success"
	auditEventRegisterFailure          = "register_failure"
	auditEventRegisterDuplicate        = "register_duplicate"
	auditEventPasswordChangeSuccess    = "password_change_success"
	auditEventPasswordChangeInvalidOld = "password_change_invalid_old"
	auditEventPasswordChangeReuse      = "password_change_reuse_attempt"
	auditEventPasswordChangeFailure    = "password_change_failure"
	auditEventPasswordReset            = "password_reset"
	auditEventAccountLocked            = "account_locked"
	auditEventAccountUnlocked          = "account_unlocked"
	auditEventAccountStatusChange      = "account_status_change"
	auditEventLogoutSession            = "logout_session"
	auditEventLogoutAll                = "logout_all"
	auditEventRoleParentChange         = "role_parent_change"
)

// AuditErrorCode is the machine-readable failure reason carried on audit
// events. It is deliberately more specific than the sentinel errors
// surfaced to callers.
type AuditErrorCode string

const (
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrAccountNotFound       AuditErrorCode = "account_not_found"
	auditErrAccountLocked         AuditErrorCode = "account_locked"
	auditErrAccountDisabled       AuditErrorCode = "account_disabled"
	auditErrAccountBanned         AuditErrorCode = "account_banned"
	auditErrAccountDeleted        AuditErrorCode = "account_deleted"
	auditErrAccountPending        AuditErrorCode = "account_pending"
	auditErrInsufficientPrivilege AuditErrorCode = "insufficient_privilege"
	auditErrRefreshReuse          AuditErrorCode = "refresh_reuse"
	auditErrInvalidToken          AuditErrorCode = "invalid_token"
	auditErrRealmMismatch         AuditErrorCode = "realm_mismatch"
	auditErrSessionNotFound       AuditErrorCode = "session_not_found"
	auditErrSessionInvalid        AuditErrorCode = "session_invalid"
	auditErrSessionInvalidation   AuditErrorCode = "session_invalidation_failed"
	auditErrPasswordPolicy        AuditErrorCode = "password_policy"
	auditErrPasswordReuse         AuditErrorCode = "password_reuse"
	auditErrDuplicate             AuditErrorCode = "duplicate"
	auditErrRoleNotFound          AuditErrorCode = "role_not_found"
	auditErrRoleCycle             AuditErrorCode = "role_cycle"
	auditErrCrossRealm            AuditErrorCode = "cross_realm_inheritance"
	auditErrInvalidInput          AuditErrorCode = "invalid_input"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID int64,
	realm Realm,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: e.now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		Realm:     string(realm),
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountNotFound):
		return auditErrAccountNotFound
	case errors.Is(err, ErrAccountLocked):
		return auditErrAccountLocked
	case errors.Is(err, ErrAccountDisabled):
		return auditErrAccountDisabled
	case errors.Is(err, ErrAccountBanned):
		return auditErrAccountBanned
	case errors.Is(err, ErrAccountDeleted):
		return auditErrAccountDeleted
	case errors.Is(err, ErrAccountPending):
		return auditErrAccountPending
	case errors.Is(err, ErrInsufficientPrivilege):
		return auditErrInsufficientPrivilege
	case errors.Is(err, ErrSessionInvalid):
		return auditErrSessionInvalid
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrSessionInvalidation
	case errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrTokenMalformed):
		return auditErrInvalidToken
	case errors.Is(err, ErrRealmMismatch):
		return auditErrRealmMismatch
	case errors.Is(err, ErrWeakPassword):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrSamePassword):
		return auditErrPasswordReuse
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrRoleNotFound):
		return auditErrRoleNotFound
	case errors.Is(err, ErrRoleCycle):
		return auditErrRoleCycle
	case errors.Is(err, ErrCrossRealmInheritance):
		return auditErrCrossRealm
	case errors.Is(err, ErrInvalidRealm),
		errors.Is(err, ErrInvalidInput):
		return auditErrInvalidInput
	default:
		return auditErrInternal
	}
}
