package vms

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation reports a malformed or incomplete request.
	ErrValidation = errors.New("validation failed")
	// ErrAccountNotFound reports that no account has the presented email.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountInactive reports a deactivated account.
	ErrAccountInactive = errors.New("account is inactive")
	// ErrInvalidCredentials reports a password mismatch.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrChallengeRequired reports that the attempt threshold was reached and no challenge was supplied.
	ErrChallengeRequired = errors.New("challenge required")
	// ErrChallengeInvalid reports a wrong, expired or already used challenge.
	ErrChallengeInvalid = errors.New("invalid challenge")
	// ErrUnauthenticated reports a missing, expired or invalid token.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrRefreshRevoked reports a valid refresh token that is no longer the account's reference.
	ErrRefreshRevoked = errors.New("refresh token revoked")
	// ErrForbidden reports an authenticated identity without the required role.
	ErrForbidden = errors.New("forbidden")
	// ErrEmailTaken reports a duplicate normalized email on account creation.
	ErrEmailTaken = errors.New("email already registered")
	// ErrPasswordReuse reports a password change to the current password.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrTokenClockSkew reports an access token issued too far in the future.
	ErrTokenClockSkew = errors.New("token clock skew exceeded")
	// ErrEngineNotReady reports an Engine that was not built through Builder.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInternal wraps collaborator failures. Its details are never shown to clients.
	ErrInternal = errors.New("internal error")
)

// LoginError is returned by Engine.Login for every failure after the account
// lookup. ChallengeRequired tells the client whether the next attempt must
// carry a challenge.
type LoginError struct {
	Err               error
	ChallengeRequired bool
}

func (e *LoginError) Error() string {
	if e == nil || e.Err == nil {
		return ErrInternal.Error()
	}
	return e.Err.Error()
}

func (e *LoginError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ChallengeRequired reports whether err carries a positive challenge flag.
func ChallengeRequired(err error) bool {
	var le *LoginError
	return errors.As(err, &le) && le.ChallengeRequired
}

// StatusCode maps an Engine error to its HTTP status. Unknown errors are 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrChallengeRequired),
		errors.Is(err, ErrChallengeInvalid),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrPasswordReuse):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrTokenClockSkew):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAccountInactive),
		errors.Is(err, ErrRefreshRevoked),
		errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the client-facing text for err. Lookup and password
// failures share one message so responses do not reveal which was wrong.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrInvalidCredentials):
		return "invalid email or password"
	case errors.Is(err, ErrTokenClockSkew):
		return ErrUnauthenticated.Error()
	case StatusCode(err) == http.StatusInternalServerError:
		return "internal server error"
	}
	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal server error"
}

var publicErrors = []error{
	ErrValidation,
	ErrAccountInactive,
	ErrChallengeRequired,
	ErrChallengeInvalid,
	ErrUnauthenticated,
	ErrRefreshRevoked,
	ErrForbidden,
	ErrEmailTaken,
	ErrPasswordReuse,
}
