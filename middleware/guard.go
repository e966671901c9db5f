package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	vms "github.com/Code4Bharat1/VMS-BACKEND"
)

// Authenticator is the slice of *vms.Engine the guards need.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*vms.Identity, error)
}

// Guard rejects requests without a valid bearer access token with 401 and
// attaches the identity rebuilt from the account store to the request
// context. Retrieve it with [vms.IdentityFromContext].
func Guard(engine Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, vms.ErrUnauthenticated)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				WriteError(w, vms.ErrUnauthenticated)
				return
			}

			id, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(vms.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole answers 403 unless the identity attached by Guard holds one of
// roles, and 401 when no identity is attached.
func RequireRole(roles ...vms.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := vms.IdentityFromContext(r.Context())
			if !ok {
				WriteError(w, vms.ErrUnauthenticated)
				return
			}
			if len(roles) > 0 && !id.HasRole(roles...) {
				WriteError(w, vms.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ErrorBody is the JSON error shape shared with the HTTP API.
type ErrorBody struct {
	Message           string `json:"message"`
	ChallengeRequired *bool  `json:"challengeRequired,omitempty"`
}

// WriteError writes err as JSON with the status from [vms.StatusCode]. Login
// failures also carry the challengeRequired flag.
func WriteError(w http.ResponseWriter, err error) {
	body := ErrorBody{Message: vms.PublicMessage(err)}
	var le *vms.LoginError
	if errors.As(err, &le) {
		flag := le.ChallengeRequired
		body.ChallengeRequired = &flag
	}
	WriteJSON(w, vms.StatusCode(err), body)
}

// WriteJSON writes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
