// Package password implements argon2id password hashing in the PHC string
// format, plus an advisory strength classifier used by registration and
// password-change policy checks.
//
// The stored form is self-describing: cost parameters and salt travel with
// the hash, so verification never consults configuration and parameter
// upgrades can be detected per record.
package password
