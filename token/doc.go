// Package token mints and verifies the signed access and refresh tokens
// used by the authentication engine.
//
// Tokens are realm-scoped: every realm carries its own HMAC signing secret
// and lifetimes, and verification always happens against an expected realm.
// A token minted for one realm never verifies against another, even when
// the payload is otherwise well formed.
//
// Access tokens are self-contained (account id, role, resolved permission
// snapshot) and verified by signature alone. Refresh tokens carry only the
// account id, realm, and a rotation identifier; honoring one additionally
// requires a live session-store match, which is enforced by the engine,
// not here.
package token
