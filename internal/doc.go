// Package internal contains helpers private to this module, currently
// crypto/rand backed string generation for challenge answers.
//
// # Sub-packages
//
//   - audit: async activity event dispatch (Dispatcher + Sink implementations)
//   - challenge: visual challenge issuance and single-use verification
//   - flows: orchestrators for login, refresh, logout and access validation
//   - rate: per-client login attempt tracking
//   - stores: expiring key/value stores (memory and Redis)
package internal
