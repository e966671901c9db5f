// Package middleware exposes net/http adapters for the authorization gate.
//
// # Guards
//
//   - [Guard] verifies the bearer access token through Engine.Authenticate and
//     attaches the identity to the request context.
//   - [RequireRole] compares the attached role with an allowed set.
//   - [ClientInfo] records client IP and User-Agent for attempt tracking and audit.
//
// Errors are written as JSON through [WriteError], using the status mapping of
// vms.StatusCode.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Touch the account store or the expiring store.
package middleware
