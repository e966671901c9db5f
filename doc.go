// Package vms is the session security core of the facility check-in backend.
//
// It authenticates staff, supervisors and admins by email and password,
// issues short-lived access tokens and a single honored refresh token per
// account, and authenticates requests by re-reading the account on every call.
//
// Engine methods are safe to call from multiple goroutines after
// [Builder.Build].
//
// # Architecture boundaries
//
// vms is the public surface. It exposes [Engine], [Builder], [Config], the
// error taxonomy and value types. Flow orchestration, the expiring store
// behind attempts and challenges, and audit dispatch live under internal/.
//
// # Revocation
//
// A refresh token is honored only when it verifies AND equals the reference
// stored on the account. Login overwrites that reference, logout and password
// changes clear it. Two concurrent logins for one account race, and the last
// write wins.
//
// # Attempts and challenges
//
// Login attempts are counted per client IP (see [WithClientIP]) in a fixed
// window. Once the count reaches Login.ChallengeThreshold every further
// attempt must carry a single-use image challenge from
// [Engine.IssueChallenge].
package vms
