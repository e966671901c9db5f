// Package password implements one-way salted password hashing with
// constant-time verification.
//
// Two algorithms are supported: bcrypt (cost 10 by default, the format of
// existing account digests) and argon2id in PHC string format. [Set] hashes
// with a primary algorithm and verifies digests from any registered one, so
// switching algorithms never locks existing accounts out.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive digests.
//   - Enforce password policy. That belongs to the engine.
//   - Log plaintext passwords.
package password
