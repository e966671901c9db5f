package vms

import (
	"time"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
)

// Role is the closed set of account roles.
type Role = accounts.Role

// Account is the persisted identity record.
type Account = accounts.Account

// AccountStore is the account persistence collaborator.
type AccountStore = accounts.Store

// Profile holds the self-editable account fields.
type Profile = accounts.Profile

const (
	RoleAdmin      = accounts.RoleAdmin
	RoleSupervisor = accounts.RoleSupervisor
	RoleStaff      = accounts.RoleStaff
)

// Identity is the minimal projection of an account handed to clients and
// attached to authorized requests. It is rebuilt from the store on every
// authenticated request.
type Identity struct {
	AccountID   string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Role        Role     `json:"role"`
	AssignedBay string   `json:"assignedBay,omitempty"`
	ManagedBays []string `json:"managedBays,omitempty"`
}

// HasRole reports whether the identity holds one of roles.
func (i *Identity) HasRole(roles ...Role) bool {
	if i == nil {
		return false
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

func identityFromAccount(a Account) *Identity {
	id := &Identity{
		AccountID: a.ID,
		Name:      a.Name,
		Email:     a.Email,
		Role:      a.Role,
	}
	switch a.Role {
	case RoleStaff:
		id.AssignedBay = a.AssignedBay
	case RoleSupervisor:
		if len(a.ManagedBays) > 0 {
			id.ManagedBays = append([]string(nil), a.ManagedBays...)
		}
	}
	return id
}

// LoginRequest is the input of Engine.Login. ChallengeID and ChallengeAnswer
// are only consulted once the attempt threshold is reached.
type LoginRequest struct {
	Email           string
	Password        string
	ChallengeID     string
	ChallengeAnswer string
}

// LoginResult is returned by a successful Engine.Login.
type LoginResult struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	Identity         *Identity
}

// RefreshResult is returned by a successful Engine.Refresh. RefreshToken and
// RefreshExpiresAt are set only when rotation is enabled.
type RefreshResult struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// Challenge is an issued image challenge. Image is a data URI.
type Challenge struct {
	ID        string    `json:"captchaId"`
	Image     string    `json:"image"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateAccountRequest is the input of the account administration calls.
// AssignedBay applies to staff and ManagedBays to supervisors.
type CreateAccountRequest struct {
	Name        string
	Email       string
	Phone       string
	Password    string
	Role        Role
	AssignedBay string
	ManagedBays []string
}
