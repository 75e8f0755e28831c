package realmauth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown identifiers and wrong
	// passwords: login never reveals which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound is returned by id-addressed operations where
	// enumeration is not a concern (password change, administrative ops).
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists rejects registration with a taken username, email,
	// or phone.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountLocked refuses authentication while a lock expiry is in
	// the future, regardless of credential correctness.
	ErrAccountLocked = errors.New("account locked")
	// ErrAccountDisabled refuses authentication for inactive or suspended
	// accounts.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountBanned refuses authentication for banned accounts.
	ErrAccountBanned = errors.New("account banned")
	// ErrAccountDeleted refuses authentication for soft-deleted accounts.
	ErrAccountDeleted = errors.New("account deleted")
	// ErrAccountPending refuses authentication for accounts not yet
	// activated.
	ErrAccountPending = errors.New("account pending activation")
	// ErrInsufficientPrivilege rejects a login whose role realm does not
	// match the requested realm.
	ErrInsufficientPrivilege = errors.New("insufficient privilege for realm")

	// ErrWeakPassword rejects passwords below the configured minimum
	// length.
	ErrWeakPassword = errors.New("password below minimum strength")
	// ErrSamePassword rejects a password change to the current password.
	ErrSamePassword = errors.New("new password must differ from current password")

	// ErrTokenExpired indicates a structurally valid token past expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMalformed indicates an unparsable or wrongly signed token.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrRealmMismatch indicates a token presented against the wrong
	// realm's verifier.
	ErrRealmMismatch = errors.New("token realm mismatch")
	// ErrSessionInvalid indicates a refresh token that is cryptographically
	// valid but no longer matches the live session record (rotated away,
	// logged out, or revoked).
	ErrSessionInvalid = errors.New("session invalid")
	// ErrSessionNotFound indicates no live session for an introspection
	// lookup.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionInvalidationFailed indicates sessions could not be revoked
	// after a security-relevant mutation. The mutation itself persisted.
	ErrSessionInvalidationFailed = errors.New("session invalidation failed")

	// ErrRoleNotFound indicates a role code or id with no backing record.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleCycle rejects a role edit that would make inheritance cyclic.
	ErrRoleCycle = errors.New("role inheritance cycle")
	// ErrCrossRealmInheritance rejects inheritance between roles of
	// different realms.
	ErrCrossRealmInheritance = errors.New("cross-realm role inheritance")

	// ErrInvalidRealm rejects an operation naming an unsupported realm.
	ErrInvalidRealm = errors.New("invalid realm")
	// ErrInvalidInput rejects registration input that failed shape
	// validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEngineNotReady guards calls on a partially constructed engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
