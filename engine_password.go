package realmauth

import "context"

// ChangePassword verifies the old password, applies the password policy to
// the new one, persists the new hash, and revokes the account's sessions
// in every realm. If revocation fails after the hash write the change
// stands and [ErrSessionInvalidationFailed] is reported so the caller can
// retry the revocation.
func (e *Engine) ChangePassword(ctx context.Context, accountID int64, oldPassword, newPassword string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	account, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		return ErrAccountNotFound
	}

	if statusErr := accountStatusToError(account.Status); statusErr != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, accountID, "", statusErr, nil)
		return statusErr
	}

	ok, err := e.hasher.Verify(oldPassword, account.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricPasswordChangeInvalidOld)
		e.emitAudit(ctx, auditEventPasswordChangeInvalidOld, false, accountID, "", ErrInvalidCredentials, nil)
		return ErrInvalidCredentials
	}

	if oldPassword == newPassword {
		e.metricInc(MetricPasswordChangeReuseRejected)
		e.emitAudit(ctx, auditEventPasswordChangeReuse, false, accountID, "", ErrSamePassword, nil)
		return ErrSamePassword
	}

	if len(newPassword) < e.config.Password.MinLength {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, accountID, "", ErrWeakPassword, nil)
		return ErrWeakPassword
	}

	if err := e.setPassword(ctx, accountID, newPassword); err != nil {
		e.emitAudit(ctx, auditEventPasswordChangeFailure, false, accountID, "", err, nil)
		return err
	}

	revokeErr := e.invalidateAllRealms(ctx, accountID)

	e.metricInc(MetricPasswordChangeSuccess)
	e.emitAudit(ctx, auditEventPasswordChangeSuccess, revokeErr == nil, accountID, "", revokeErr, nil)

	return revokeErr
}

// ResetPassword replaces an account's password without knowing the old
// one. Intended for administrative flows; the same policy and session
// revocation rules as ChangePassword apply.
func (e *Engine) ResetPassword(ctx context.Context, accountID int64, newPassword string) error {
	if e == nil || e.hasher == nil {
		return ErrEngineNotReady
	}

	if _, err := e.accounts.FindByID(ctx, accountID); err != nil {
		return ErrAccountNotFound
	}

	if len(newPassword) < e.config.Password.MinLength {
		return ErrWeakPassword
	}

	if err := e.setPassword(ctx, accountID, newPassword); err != nil {
		return err
	}

	revokeErr := e.invalidateAllRealms(ctx, accountID)

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordReset, revokeErr == nil, accountID, "", revokeErr, nil)

	return revokeErr
}

func (e *Engine) setPassword(ctx context.Context, accountID int64, plaintext string) error {
	hash, err := e.hasher.Hash(plaintext)
	if err != nil {
		return err
	}
	return e.accounts.UpdatePasswordHash(ctx, accountID, hash, e.now())
}
