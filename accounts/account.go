package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no account matches a lookup.
	ErrNotFound = errors.New("accounts: not found")
	// ErrEmailTaken is returned by Create when the normalized email already exists.
	ErrEmailTaken = errors.New("accounts: email already exists")
	// ErrInvalidRole is returned when a stored or requested role is outside the closed set.
	ErrInvalidRole = errors.New("accounts: invalid role")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("accounts: store unavailable")
)

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleStaff      Role = "staff"
)

// ParseRole validates s against the closed role set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleSupervisor, RoleStaff:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string {
	return string(r)
}

// Account is the persisted identity record.
type Account struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         Role
	Active       bool

	// RefreshToken is the single honored refresh reference. Empty means no session.
	RefreshToken string

	AssignedBay string
	ManagedBays []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the invariants enforced whenever an account is loaded.
func (a Account) Validate() error {
	if a.ID == "" {
		return errors.New("accounts: empty id")
	}
	if !a.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, string(a.Role))
	}
	return nil
}

// Profile holds mutable descriptive fields.
type Profile struct {
	Name  string
	Phone string
}

// Store is the account persistence collaborator. Every update writes one
// field with full-replace semantics.
type Store interface {
	GetByEmail(ctx context.Context, normalizedEmail string) (Account, error)
	GetByID(ctx context.Context, id string) (Account, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	// ClearRefreshToken clears the reference on the account whose reference
	// equals token, in one step, and returns that account's id. ErrNotFound
	// when no account holds token.
	ClearRefreshToken(ctx context.Context, token string) (string, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	UpdateProfile(ctx context.Context, id string, p Profile) error
	Create(ctx context.Context, a Account) (Account, error)
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneAccount(a Account) Account {
	if a.ManagedBays != nil {
		bays := make([]string, len(a.ManagedBays))
		copy(bays, a.ManagedBays)
		a.ManagedBays = bays
	}
	return a
}
