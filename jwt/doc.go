// Package jwt issues and verifies the two token kinds of a session: short
// lived access tokens carrying the account role, and refresh tokens used
// only to mint new access tokens.
//
// The kinds use separate key material and a "typ" claim, so neither can be
// replayed as the other. Verification failures are classified as
// ErrExpired, ErrMalformed, ErrSignatureInvalid, ErrWrongType or ErrInvalid.
package jwt
