package realmauth

import "context"

// accountStatusToError maps a non-active status to the sentinel that
// refuses authentication. Active returns nil.
func accountStatusToError(status AccountStatus) error {
	switch status {
	case AccountActive:
		return nil
	case AccountInactive, AccountSuspended:
		return ErrAccountDisabled
	case AccountBanned:
		return ErrAccountBanned
	case AccountDeleted:
		return ErrAccountDeleted
	case AccountPending:
		return ErrAccountPending
	default:
		return ErrAccountDisabled
	}
}

// SetAccountStatus transitions an account's lifecycle state. Any
// transition away from [AccountActive] revokes the account's sessions in
// every realm; the status write persists even when revocation fails, in
// which case [ErrSessionInvalidationFailed] is reported so the caller can
// retry the revocation.
func (e *Engine) SetAccountStatus(ctx context.Context, accountID int64, status AccountStatus) error {
	if e == nil || e.accounts == nil {
		return ErrEngineNotReady
	}

	if _, err := e.accounts.FindByID(ctx, accountID); err != nil {
		return ErrAccountNotFound
	}

	if err := e.accounts.UpdateStatus(ctx, accountID, status); err != nil {
		return err
	}

	var revokeErr error
	if status != AccountActive {
		revokeErr = e.invalidateAllRealms(ctx, accountID)
	}

	e.metricInc(MetricAccountStatusChanged)
	e.emitAudit(ctx, auditEventAccountStatusChange, revokeErr == nil, accountID, "", revokeErr, func() map[string]string {
		return map[string]string{"status": status.String()}
	})

	return revokeErr
}

// DisableAccount marks an account inactive and revokes its sessions.
func (e *Engine) DisableAccount(ctx context.Context, accountID int64) error {
	return e.SetAccountStatus(ctx, accountID, AccountInactive)
}

// SuspendAccount suspends an account and revokes its sessions.
func (e *Engine) SuspendAccount(ctx context.Context, accountID int64) error {
	return e.SetAccountStatus(ctx, accountID, AccountSuspended)
}

// BanAccount permanently bans an account and revokes its sessions.
func (e *Engine) BanAccount(ctx context.Context, accountID int64) error {
	return e.SetAccountStatus(ctx, accountID, AccountBanned)
}

// DeleteAccount soft-deletes an account and revokes its sessions. The
// underlying record survives for audit history.
func (e *Engine) DeleteAccount(ctx context.Context, accountID int64) error {
	return e.SetAccountStatus(ctx, accountID, AccountDeleted)
}

// ActivateAccount returns an account to the active state.
func (e *Engine) ActivateAccount(ctx context.Context, accountID int64) error {
	return e.SetAccountStatus(ctx, accountID, AccountActive)
}
