package vms

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodeTaxonomy(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrValidation, http.StatusBadRequest},
		{ErrAccountNotFound, http.StatusBadRequest},
		{ErrInvalidCredentials, http.StatusBadRequest},
		{&LoginError{Err: ErrChallengeRequired, ChallengeRequired: true}, http.StatusBadRequest},
		{&LoginError{Err: ErrChallengeInvalid, ChallengeRequired: true}, http.StatusBadRequest},
		{ErrEmailTaken, http.StatusBadRequest},
		{ErrPasswordReuse, http.StatusBadRequest},
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrTokenClockSkew, http.StatusUnauthorized},
		{&LoginError{Err: ErrAccountInactive}, http.StatusForbidden},
		{ErrRefreshRevoked, http.StatusForbidden},
		{ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: dial tcp", ErrInternal), http.StatusInternalServerError},
		{errors.New("unexpected"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := StatusCode(tc.err); got != tc.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPublicMessageHidesWhichCredentialFailed(t *testing.T) {
	notFound := PublicMessage(ErrAccountNotFound)
	badPassword := PublicMessage(&LoginError{Err: ErrInvalidCredentials})
	if notFound != badPassword {
		t.Fatalf("messages differ: %q vs %q", notFound, badPassword)
	}
	if got := PublicMessage(fmt.Errorf("%w: pq: connection refused", ErrInternal)); got != "internal server error" {
		t.Fatalf("internal detail leaked: %q", got)
	}
	if got := PublicMessage(ErrTokenClockSkew); got != ErrUnauthenticated.Error() {
		t.Fatalf("expected generic unauthenticated message, got %q", got)
	}
}

func TestChallengeRequiredFlag(t *testing.T) {
	if ChallengeRequired(ErrInvalidCredentials) {
		t.Fatal("plain sentinel carries no flag")
	}
	wrapped := fmt.Errorf("login: %w", &LoginError{Err: ErrInvalidCredentials, ChallengeRequired: true})
	if !ChallengeRequired(wrapped) || !errors.Is(wrapped, ErrInvalidCredentials) {
		t.Fatal("expected flag and sentinel through wrapping")
	}
}
