package realmauth

import (
	"context"
	"time"
)

// checkLock reports [ErrAccountLocked] while the account's lock expiry is
// in the future. An elapsed lock is treated as absent; the stale expiry is
// cleared lazily on the next successful login.
func (e *Engine) checkLock(account *Account) error {
	if account.LockedUntil == nil {
		return nil
	}
	if account.LockedUntil.After(e.now()) {
		return ErrAccountLocked
	}
	return nil
}

// recordLoginFailure pushes the failed attempt into the store's atomic
// increment. The store trips the lock in the same write when the threshold
// is reached, so two racing failures can never both observe a pre-threshold
// count.
func (e *Engine) recordLoginFailure(ctx context.Context, accountID int64) {
	state, err := e.accounts.RecordLoginFailure(ctx, accountID,
		e.config.Lockout.Threshold, e.config.Lockout.Duration)
	if err != nil {
		return
	}
	if state.LockedUntil != nil && state.LockedUntil.After(e.now()) {
		e.metricInc(MetricAccountLockedAuto)
		e.emitAudit(ctx, auditEventAccountLocked, true, accountID, "", nil, func() map[string]string {
			return map[string]string{"trigger": "failed_login_threshold"}
		})
	}
}

// LockAccount administratively locks an account for the given duration and
// revokes its sessions in every realm. A non-positive duration locks the
// account until explicitly unlocked. The reason is recorded on the audit
// trail only.
func (e *Engine) LockAccount(ctx context.Context, accountID int64, d time.Duration, reason string) error {
	if e == nil || e.accounts == nil {
		return ErrEngineNotReady
	}

	if _, err := e.accounts.FindByID(ctx, accountID); err != nil {
		return ErrAccountNotFound
	}

	until := PermanentLockTime
	if d > 0 {
		until = e.now().Add(d)
	}

	if err := e.accounts.SetLock(ctx, accountID, until); err != nil {
		return err
	}

	err := e.invalidateAllRealms(ctx, accountID)

	e.metricInc(MetricAccountLockedAdmin)
	e.emitAudit(ctx, auditEventAccountLocked, err == nil, accountID, "", err, func() map[string]string {
		meta := map[string]string{"trigger": "administrative", "until": until.UTC().Format(time.RFC3339)}
		if reason != "" {
			meta["reason"] = reason
		}
		return meta
	})

	return err
}

// UnlockAccount clears an account's lock and failed-login counter.
func (e *Engine) UnlockAccount(ctx context.Context, accountID int64) error {
	if e == nil || e.accounts == nil {
		return ErrEngineNotReady
	}

	if _, err := e.accounts.FindByID(ctx, accountID); err != nil {
		return ErrAccountNotFound
	}

	if err := e.accounts.ResetSecurityState(ctx, accountID); err != nil {
		return err
	}

	e.metricInc(MetricAccountUnlocked)
	e.emitAudit(ctx, auditEventAccountUnlocked, true, accountID, "", nil, nil)

	return nil
}
