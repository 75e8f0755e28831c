package realmauth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/realmkit/realmauth/password"
	"github.com/realmkit/realmauth/role"
	"github.com/realmkit/realmauth/session"
	"github.com/realmkit/realmauth/token"
)

// Engine is the authentication core. All fields are set by [Builder.Build]
// and never mutated afterwards; every method is safe for concurrent use.
type Engine struct {
	config    Config
	accounts  AccountStore
	roles     RoleStore
	roleGraph *role.Graph
	sessions  *session.Store
	hasher    *password.Hasher
	tokens    *token.Issuer
	clock     Clock
	audit     *auditDispatcher
	metrics   *Metrics
	validate  *validator.Validate
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close returns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were shed under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock.Now()
}

// Login authenticates identifier+plaintext against the given realm and,
// on success, opens the account's single session for that realm and
// returns a fresh token pair. Unknown identifiers and wrong passwords are
// indistinguishable to the caller; lock and status refusals are reported
// regardless of whether the presented password was correct.
func (e *Engine) Login(ctx context.Context, realm Realm, identifier, plaintext string) (*TokenPair, error) {
	if e == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	if !realm.Valid() {
		return nil, ErrInvalidRealm
	}

	account, err := e.accounts.FindByIdentifier(ctx, identifier)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, 0, realm, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": identifier,
				"reason":     "account_not_found",
			}
		})
		return nil, ErrInvalidCredentials
	}

	if lockErr := e.checkLock(account); lockErr != nil {
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, realm, lockErr, func() map[string]string {
			return map[string]string{"identifier": identifier, "reason": "locked"}
		})
		return nil, lockErr
	}

	if statusErr := accountStatusToError(account.Status); statusErr != nil {
		e.metricInc(MetricLoginDisabled)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, realm, statusErr, func() map[string]string {
			return map[string]string{"identifier": identifier, "reason": "account_status"}
		})
		return nil, statusErr
	}

	ok, err := e.hasher.Verify(plaintext, account.PasswordHash)
	if err != nil || !ok {
		e.recordLoginFailure(ctx, account.ID)
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, realm, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{"identifier": identifier, "reason": "password_mismatch"}
		})
		return nil, ErrInvalidCredentials
	}

	roleRec, perms, err := e.resolveRole(ctx, realm, account.RoleID)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, realm, err, func() map[string]string {
			return map[string]string{"identifier": identifier, "reason": "role_resolution"}
		})
		return nil, err
	}

	if e.config.Password.UpgradeOnLogin {
		if needsUpgrade, err := e.hasher.NeedsUpgrade(account.PasswordHash); err == nil && needsUpgrade {
			if upgraded, err := e.hasher.Hash(plaintext); err == nil {
				// Best-effort rehash; a write failure must not block login.
				if err := e.accounts.UpdatePasswordHash(ctx, account.ID, upgraded, e.now()); err != nil {
					log.Print("realmauth: password hash upgrade update failed")
				}
			}
		}
	}
	plaintext = ""

	pair, err := e.openSession(ctx, account.ID, realm, roleRec.Code, perms)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, realm, err, func() map[string]string {
			return map[string]string{"identifier": identifier, "reason": "session_creation"}
		})
		return nil, err
	}

	// The session is live before the counter reset. If the reset fails the
	// session is torn down again so a half-applied login never survives.
	if err := e.accounts.ResetSecurityState(ctx, account.ID); err != nil {
		_ = e.sessions.Invalidate(ctx, account.ID, string(realm))
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, realm, err, func() map[string]string {
			return map[string]string{"identifier": identifier, "reason": "security_state_reset"}
		})
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventLoginSuccess, true, account.ID, realm, nil, func() map[string]string {
		return map[string]string{"role": roleRec.Code}
	})

	return pair, nil
}

// Refresh rotates a refresh token: the presented token is verified against
// the realm's key, matched against the live session record, and replaced
// in one atomic step. Permissions are re-resolved from the role hierarchy
// so the new access token reflects role edits made since login. A token
// that was already rotated away revokes the whole session.
func (e *Engine) Refresh(ctx context.Context, realm Realm, refreshToken string) (*TokenPair, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if !realm.Valid() {
		return nil, ErrInvalidRealm
	}

	claims, err := e.tokens.VerifyRefresh(refreshToken, string(realm))
	if err != nil {
		mapped := mapTokenError(err)
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, 0, realm, mapped, nil)
		return nil, mapped
	}

	accountID, err := token.AccountID(claims)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, 0, realm, ErrTokenMalformed, nil)
		return nil, ErrTokenMalformed
	}

	account, err := e.accounts.FindByID(ctx, accountID)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, accountID, realm, ErrSessionInvalid, nil)
		return nil, ErrSessionInvalid
	}
	if lockErr := e.checkLock(account); lockErr != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, accountID, realm, lockErr, nil)
		return nil, lockErr
	}
	if statusErr := accountStatusToError(account.Status); statusErr != nil {
		// A session surviving a status change is revoked at the next refresh.
		if err := e.sessions.Invalidate(ctx, accountID, string(realm)); err == nil {
			e.metricInc(MetricSessionInvalidated)
		}
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, accountID, realm, statusErr, nil)
		return nil, statusErr
	}

	roleRec, perms, err := e.resolveRole(ctx, realm, account.RoleID)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, accountID, realm, err, nil)
		return nil, err
	}

	nextRefresh, nextTokenID, err := e.tokens.IssueRefresh(accountID, string(realm))
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	presentedID := claims.ID
	_, err = e.sessions.Rotate(ctx, accountID, string(realm),
		presentedID, nextTokenID, e.now(), e.tokens.RefreshTTL(string(realm)))
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenMismatch):
			e.metricInc(MetricRefreshReuseDetected)
			e.metricInc(MetricSessionInvalidated)
			e.emitAudit(ctx, auditEventRefreshReuseDetected, false, accountID, realm, ErrSessionInvalid, nil)
			return nil, ErrSessionInvalid
		case errors.Is(err, session.ErrNotFound):
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, accountID, realm, ErrSessionInvalid, nil)
			return nil, ErrSessionInvalid
		default:
			e.metricInc(MetricRefreshFailure)
			return nil, err
		}
	}

	access, err := e.tokens.IssueAccess(accountID, string(realm), roleRec.Code, perms)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, accountID, realm, nil, nil)

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: nextRefresh,
		TTL:          e.tokens.AccessTTL(string(realm)),
	}, nil
}

// Validate verifies an access token against the realm's signing key and
// returns the identity and permissions embedded in it. No store lookups
// happen here; permission edits take effect at the next token issuance.
func (e *Engine) Validate(ctx context.Context, realm Realm, accessToken string) (*AuthResult, error) {
	if e == nil || e.tokens == nil {
		return nil, ErrEngineNotReady
	}
	if !realm.Valid() {
		return nil, ErrInvalidRealm
	}

	start := e.now()

	claims, err := e.tokens.VerifyAccess(accessToken, string(realm))
	if err != nil {
		return nil, mapTokenError(err)
	}

	accountID, err := token.AccountID(claims)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	result := &AuthResult{
		AccountID:   accountID,
		Realm:       realm,
		Role:        claims.Role,
		Permissions: claims.Perms,
	}

	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, e.now().Sub(start))
	}

	return result, nil
}

// Logout removes the account's session in one realm. Logging out an
// already-absent session succeeds.
func (e *Engine) Logout(ctx context.Context, accountID int64, realm Realm) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	if !realm.Valid() {
		return ErrInvalidRealm
	}

	if err := e.sessions.Invalidate(ctx, accountID, string(realm)); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogoutSession, true, accountID, realm, nil, nil)

	return nil
}

// LogoutAll removes the account's sessions in every realm.
func (e *Engine) LogoutAll(ctx context.Context, accountID int64) error {
	if e == nil || e.sessions == nil {
		return ErrEngineNotReady
	}

	if err := e.invalidateAllRealms(ctx, accountID); err != nil {
		return err
	}

	e.metricInc(MetricLogoutAll)
	e.emitAudit(ctx, auditEventLogoutAll, true, accountID, "", nil, nil)

	return nil
}

// openSession issues a token pair and writes the realm's session record,
// replacing any session already open for accountID in that realm.
func (e *Engine) openSession(ctx context.Context, accountID int64, realm Realm, roleCode string, perms []string) (*TokenPair, error) {
	refresh, tokenID, err := e.tokens.IssueRefresh(accountID, string(realm))
	if err != nil {
		return nil, err
	}

	rec := session.Record{
		TokenID:   tokenID,
		IssuedAt:  e.now(),
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
	}
	if err := e.sessions.Put(ctx, accountID, string(realm), rec, e.tokens.RefreshTTL(string(realm))); err != nil {
		return nil, err
	}

	access, err := e.tokens.IssueAccess(accountID, string(realm), roleCode, perms)
	if err != nil {
		_ = e.sessions.Invalidate(ctx, accountID, string(realm))
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TTL:          e.tokens.AccessTTL(string(realm)),
	}, nil
}

// resolveRole loads the account's role, enforces that it belongs to the
// requested realm, and resolves its effective permission set through the
// inheritance chain.
func (e *Engine) resolveRole(ctx context.Context, realm Realm, roleID int64) (*Role, []string, error) {
	roleRec, err := e.roles.FindByID(ctx, roleID)
	if err != nil {
		if errors.Is(err, role.ErrNotFound) {
			return nil, nil, ErrRoleNotFound
		}
		return nil, nil, err
	}
	if roleRec.Realm != string(realm) {
		return nil, nil, ErrInsufficientPrivilege
	}

	perms, err := e.roleGraph.EffectivePermissions(ctx, roleRec.Code)
	if err != nil {
		return nil, nil, mapRoleError(err)
	}

	return roleRec, perms, nil
}

func (e *Engine) invalidateAllRealms(ctx context.Context, accountID int64) error {
	realms := make([]string, len(Realms))
	for i, r := range Realms {
		realms[i] = string(r)
	}
	if err := e.sessions.InvalidateAll(ctx, accountID, realms...); err != nil {
		return errors.Join(ErrSessionInvalidationFailed, err)
	}
	return nil
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, token.ErrExpired):
		return ErrTokenExpired
	case errors.Is(err, token.ErrRealmMismatch):
		return ErrRealmMismatch
	case errors.Is(err, token.ErrUnknownRealm):
		return ErrInvalidRealm
	default:
		return ErrTokenMalformed
	}
}

func mapRoleError(err error) error {
	switch {
	case errors.Is(err, role.ErrNotFound):
		return ErrRoleNotFound
	case errors.Is(err, role.ErrCycle), errors.Is(err, role.ErrDepthExceeded):
		return ErrRoleCycle
	case errors.Is(err, role.ErrCrossRealm):
		return ErrCrossRealmInheritance
	default:
		return err
	}
}
