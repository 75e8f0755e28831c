// Package session persists the single live refresh-token record per
// account and realm in a shared Redis cache.
//
// Keys are realm-scoped (`<prefix>:session:<accountID>:<realm>`), so writes
// for one realm never contend with the other. Rotation is a single Lua
// script executed atomically server-side: when two refresh calls race with
// the same stale token, exactly one rotates and the other observes the new
// identifier and is rejected. A mismatch also deletes the record, so a
// captured pre-rotation token can never be replayed.
package session
