// Package rate tracks login attempts per client key and decides when a
// visual challenge becomes mandatory.
//
// # Window semantics
//
// Fixed window anchored at the first attempt: the counter is created at 1
// with the window as its expiry and later attempts only increment it. The
// entry disappears when the window elapses or when Clear is called after a
// successful login. Keys live under the "attempts:" prefix of the expiring
// store.
//
// # What this package must NOT do
//
//   - Reject logins by itself. The login flow owns the challenge gate.
//   - Be imported outside this module.
package rate
