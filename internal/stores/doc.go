// Package stores provides the expiring key/value capability behind the
// attempt tracker and the challenge manager.
//
// # Design
//
// Every entry carries an absolute expiry. MemoryStore checks it lazily on
// read and never schedules timers; Sweep reclaims memory on a schedule chosen
// by the host. RedisStore delegates expiry to key TTLs so several instances
// can share state. Take is an atomic get-and-delete used for single-use
// records.
//
// # What this package must NOT do
//
//   - Decide thresholds, windows, or answer comparison. Callers own policy.
//   - Import the root package or any sibling internal package.
package stores
