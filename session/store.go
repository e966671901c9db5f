package session

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
)

// ErrRevoked is returned when a presented token is not the stored reference.
var ErrRevoked = errors.New("refresh reference revoked")

// References is the slice of the account store this package writes through.
type References interface {
	SetRefreshToken(ctx context.Context, id, token string) error
	ClearRefreshToken(ctx context.Context, token string) (string, error)
}

// Store binds, checks and revokes refresh references.
type Store struct {
	refs References
}

// NewStore wraps refs.
func NewStore(refs References) *Store {
	return &Store{refs: refs}
}

// Bind makes token the only honored refresh reference of accountID.
func (s *Store) Bind(ctx context.Context, accountID, token string) error {
	if accountID == "" || token == "" {
		return errors.New("session: bind requires account id and token")
	}
	return s.refs.SetRefreshToken(ctx, accountID, token)
}

// Check returns ErrRevoked unless token equals the reference stored on a.
func (s *Store) Check(a accounts.Account, token string) error {
	if !Matches(a.RefreshToken, token) {
		return ErrRevoked
	}
	return nil
}

// Clear removes the reference of accountID.
func (s *Store) Clear(ctx context.Context, accountID string) error {
	return s.refs.SetRefreshToken(ctx, accountID, "")
}

// Revoke clears the reference on whichever account currently holds token.
// It reports the holder's account id, or "" when no account holds it.
// An empty or unknown token is not an error. The match and the clear are one
// store operation, so a reference bound by a concurrent login survives.
func (s *Store) Revoke(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}

	id, err := s.refs.ClearRefreshToken(ctx, token)
	if errors.Is(err, accounts.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// Matches compares a stored reference with a presented token in constant
// time. An empty stored reference never matches.
func Matches(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
