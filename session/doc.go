// Package session keeps the single honored refresh reference of each
// account.
//
// A refresh token is accepted only when it verifies cryptographically and
// byte-equals the reference stored on its account. Binding a new token
// replaces the reference and so revokes every earlier token; revoking clears
// it. Writes are full replaces, so concurrent logins for one account resolve
// as last write wins.
//
// # What this package must NOT do
//
//   - Parse or verify token signatures. That belongs to package jwt.
//   - Write any account field other than the refresh reference.
package session
