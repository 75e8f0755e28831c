// Package realmauth provides an authentication and session engine for API
// backends split into two isolated realms: an end-user surface and an
// administrative surface. Each realm signs its own JWT access tokens,
// rotates its own single-use refresh tokens, and resolves permissions from
// its own role hierarchy; a credential minted for one realm is never
// honored by the other.
//
// Engine methods are safe to call from multiple goroutines once the
// instance is assembled through [Builder.Build].
//
// # Architecture boundaries
//
// realmauth is the public surface. It exposes [Engine], [Builder],
// [Config], and value types (TokenPair, AuthResult, SessionInfo,
// MetricsSnapshot). Password hashing, token signing, session rotation,
// and role resolution live in sub-packages that never import realmauth.
//
// # Performance contract
//
// Validate is the hot path: it verifies the token signature and claims
// without touching Redis or the account store. Login and Refresh are
// allowed one Redis round-trip for session state plus the account and
// role lookups they need.
package realmauth
