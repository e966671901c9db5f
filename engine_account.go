package vms

import (
	"context"
	"errors"
	"fmt"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
	"github.com/Code4Bharat1/VMS-BACKEND/internal/flows"
)

// RegisterAdmin creates an account. The role defaults to admin when req.Role
// is empty. Duplicate emails return ErrEmailTaken.
func (e *Engine) RegisterAdmin(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	if req.Role == "" {
		req.Role = RoleAdmin
	}
	return e.createAccount(ctx, req)
}

// CreateSupervisor creates a supervisor. At least one managed bay is required.
func (e *Engine) CreateSupervisor(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	req.Role = RoleSupervisor
	return e.createAccount(ctx, req)
}

// CreateStaff creates a staff account bound to req.AssignedBay.
func (e *Engine) CreateStaff(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	req.Role = RoleStaff
	return e.createAccount(ctx, req)
}

func (e *Engine) createAccount(ctx context.Context, req CreateAccountRequest) (*Account, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	created, err := e.flows.CreateAccount(ctx, actorFromContext(ctx), flows.AccountCreateRequest{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    req.Password,
		Role:        req.Role,
		AssignedBay: req.AssignedBay,
		ManagedBays: req.ManagedBays,
	})
	if err != nil {
		return nil, e.accountError(err)
	}
	return &created, nil
}

// ChangePassword replaces the password of accountID after verifying
// oldPassword. The refresh reference is cleared, so every session of the
// account has to log in again.
func (e *Engine) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	actor := actorFromContext(ctx)
	actor.ID = accountID
	return e.accountError(e.flows.ChangePassword(ctx, actor, oldPassword, newPassword))
}

// UpdateProfile changes the name and phone of accountID. Empty fields keep
// their stored value.
func (e *Engine) UpdateProfile(ctx context.Context, accountID string, p Profile) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	actor := actorFromContext(ctx)
	actor.ID = accountID
	return e.accountError(e.flows.UpdateProfile(ctx, actor, p))
}

// accountError passes taxonomy errors through and hides everything else
// behind ErrInternal.
func (e *Engine) accountError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		ErrValidation,
		ErrEmailTaken,
		ErrAccountNotFound,
		ErrInvalidCredentials,
		ErrPasswordReuse,
		ErrEngineNotReady,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, accounts.ErrInvalidRole) {
		return ErrValidation
	}
	e.warn("vms: account operation failed: %v", err)
	return fmt.Errorf("%w: %v", ErrInternal, err)
}

func actorFromContext(ctx context.Context) flows.AccountActor {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return flows.AccountActor{}
	}
	return flows.AccountActor{
		ID:   id.AccountID,
		Role: id.Role.String(),
	}
}
