// Package httpapi exposes the engine over HTTP with gorilla/mux.
//
// Routes:
//
//	POST /api/auth/login                 public, sets the refresh cookie
//	POST /api/auth/refresh               public, reads the refresh cookie
//	POST /api/auth/logout                public, always clears the cookie
//	GET  /api/auth/captcha               public
//	POST /api/auth/register              admin
//	POST /api/auth/supervisor            admin
//	POST /api/auth/staff                 admin
//	PUT  /api/auth/users/update-password any role
//	PUT  /api/auth/users/profile         any role
//	GET  /health
//	GET  /metrics                        when RouterOptions.Metrics is set
//
// Errors are written as {"message": ..., "challengeRequired": ...} with the
// status from vms.StatusCode.
package httpapi
