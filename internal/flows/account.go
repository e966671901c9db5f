package flows

import (
	"context"
	"errors"
	"strings"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
)

// AccountCreateRequest is the flow-local shape for creating any role.
type AccountCreateRequest struct {
	Name        string
	Email       string
	Phone       string
	Password    string
	Role        accounts.Role
	AssignedBay string
	ManagedBays []string
}

// AccountActor identifies the caller performing an account change.
type AccountActor struct {
	ID   string
	Role string
}

// AccountMetrics carries metric IDs needed by the account flows.
type AccountMetrics struct {
	AccountCreationSuccess   int
	AccountCreationDuplicate int
	PasswordChangeSuccess    int
	PasswordChangeInvalidOld int
	PasswordChangeReuse      int
	ProfileUpdated           int
}

// AccountEvents carries audit action names used by the account flows.
type AccountEvents struct {
	RegisterAdmin    string
	CreateSupervisor string
	CreateStaff      string
	UpdatePassword   string
	UpdateProfile    string
}

func (e AccountEvents) create(role accounts.Role) string {
	switch role {
	case accounts.RoleSupervisor:
		return e.CreateSupervisor
	case accounts.RoleStaff:
		return e.CreateStaff
	default:
		return e.RegisterAdmin
	}
}

// AccountErrors carries host-level sentinel errors used by the account flows.
type AccountErrors struct {
	EngineNotReady     error
	Validation         error
	EmailTaken         error
	AccountNotFound    error
	InvalidCredentials error
	PasswordReuse      error
}

// AccountDeps captures account flow dependencies.
type AccountDeps struct {
	CreateAccount      func(context.Context, accounts.Account) (accounts.Account, error)
	GetAccountByID     func(context.Context, string) (accounts.Account, error)
	UpdatePasswordHash func(context.Context, string, string) error
	UpdateProfile      func(context.Context, string, accounts.Profile) error
	ClearRefresh       func(context.Context, string) error

	HashPassword   func(string) (string, error)
	VerifyPassword func(string, string) (bool, error)

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, string, string, error, func() map[string]string)
	Warn      func(string, ...any)

	Metrics AccountMetrics
	Events  AccountEvents
	Errors  AccountErrors
}

// RunCreateAccount validates the request for its role, hashes the password
// and stores the account. The returned account never carries a digest.
func RunCreateAccount(ctx context.Context, actor AccountActor, req AccountCreateRequest, deps AccountDeps) (accounts.Account, error) {
	normalizeAccountDeps(&deps)
	if deps.CreateAccount == nil || deps.HashPassword == nil {
		return accounts.Account{}, deps.Errors.EngineNotReady
	}

	event := deps.Events.create(req.Role)
	failed := func(err error, reason string) (accounts.Account, error) {
		deps.EmitAudit(ctx, event, false, actor.ID, actor.Role, "", err, func() map[string]string {
			return map[string]string{
				"reason": reason,
				"role":   req.Role.String(),
			}
		})
		return accounts.Account{}, err
	}

	email := accounts.NormalizeEmail(req.Email)
	switch {
	case email == "":
		return failed(deps.Errors.Validation, "empty_email")
	case req.Password == "":
		return failed(deps.Errors.Validation, "empty_password")
	case !req.Role.Valid():
		return failed(deps.Errors.Validation, "role_invalid")
	case req.Role == accounts.RoleStaff && strings.TrimSpace(req.AssignedBay) == "":
		return failed(deps.Errors.Validation, "assigned_bay_missing")
	case req.Role == accounts.RoleSupervisor && len(compactBays(req.ManagedBays)) == 0:
		return failed(deps.Errors.Validation, "managed_bays_missing")
	}

	digest, err := deps.HashPassword(req.Password)
	if err != nil {
		return failed(err, "hash_failed")
	}

	account := accounts.Account{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: digest,
		Role:         req.Role,
		Active:       true,
	}
	switch req.Role {
	case accounts.RoleStaff:
		account.AssignedBay = strings.TrimSpace(req.AssignedBay)
	case accounts.RoleSupervisor:
		account.ManagedBays = compactBays(req.ManagedBays)
	}

	created, err := deps.CreateAccount(ctx, account)
	if err != nil {
		if errors.Is(err, accounts.ErrEmailTaken) {
			deps.MetricInc(deps.Metrics.AccountCreationDuplicate)
			return failed(deps.Errors.EmailTaken, "duplicate_email")
		}
		if errors.Is(err, accounts.ErrInvalidRole) {
			return failed(deps.Errors.Validation, "role_invalid")
		}
		return failed(err, "store_failed")
	}

	deps.MetricInc(deps.Metrics.AccountCreationSuccess)
	deps.EmitAudit(ctx, event, true, actor.ID, actor.Role, created.ID, nil, func() map[string]string {
		return map[string]string{
			"role": created.Role.String(),
		}
	})

	created.PasswordHash = ""
	created.RefreshToken = ""
	return created, nil
}

// RunChangePassword verifies the current password, stores a digest of the new
// one and clears the refresh reference so other sessions must log in again.
func RunChangePassword(ctx context.Context, actor AccountActor, oldPassword, newPassword string, deps AccountDeps) error {
	normalizeAccountDeps(&deps)
	if deps.GetAccountByID == nil || deps.UpdatePasswordHash == nil || deps.VerifyPassword == nil || deps.HashPassword == nil {
		return deps.Errors.EngineNotReady
	}

	failed := func(err error, reason string) error {
		deps.EmitAudit(ctx, deps.Events.UpdatePassword, false, actor.ID, actor.Role, actor.ID, err, func() map[string]string {
			return map[string]string{"reason": reason}
		})
		return err
	}

	if actor.ID == "" || oldPassword == "" || newPassword == "" {
		return failed(deps.Errors.Validation, "missing_fields")
	}

	account, err := deps.GetAccountByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return failed(deps.Errors.AccountNotFound, "account_missing")
		}
		return failed(err, "lookup_failed")
	}

	ok, err := deps.VerifyPassword(oldPassword, account.PasswordHash)
	if err != nil || !ok {
		deps.MetricInc(deps.Metrics.PasswordChangeInvalidOld)
		return failed(deps.Errors.InvalidCredentials, "old_password_mismatch")
	}
	if oldPassword == newPassword {
		deps.MetricInc(deps.Metrics.PasswordChangeReuse)
		return failed(deps.Errors.PasswordReuse, "password_reuse")
	}

	digest, err := deps.HashPassword(newPassword)
	if err != nil {
		return failed(err, "hash_failed")
	}
	if err := deps.UpdatePasswordHash(ctx, account.ID, digest); err != nil {
		return failed(err, "store_failed")
	}
	if deps.ClearRefresh != nil {
		if err := deps.ClearRefresh(ctx, account.ID); err != nil {
			deps.Warn("vms: refresh reference clear failed after password change")
		}
	}

	deps.MetricInc(deps.Metrics.PasswordChangeSuccess)
	deps.EmitAudit(ctx, deps.Events.UpdatePassword, true, actor.ID, actor.Role, account.ID, nil, nil)
	return nil
}

// RunUpdateProfile updates the display fields of the actor's own account.
// Empty fields keep their stored value.
func RunUpdateProfile(ctx context.Context, actor AccountActor, p accounts.Profile, deps AccountDeps) error {
	normalizeAccountDeps(&deps)
	if deps.UpdateProfile == nil || deps.GetAccountByID == nil {
		return deps.Errors.EngineNotReady
	}

	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	if actor.ID == "" || (p.Name == "" && p.Phone == "") {
		return deps.Errors.Validation
	}

	current, err := deps.GetAccountByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return deps.Errors.AccountNotFound
		}
		return err
	}
	if p.Name == "" {
		p.Name = current.Name
	}
	if p.Phone == "" {
		p.Phone = current.Phone
	}

	if err := deps.UpdateProfile(ctx, actor.ID, p); err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			err = deps.Errors.AccountNotFound
		}
		deps.EmitAudit(ctx, deps.Events.UpdateProfile, false, actor.ID, actor.Role, actor.ID, err, nil)
		return err
	}

	deps.MetricInc(deps.Metrics.ProfileUpdated)
	deps.EmitAudit(ctx, deps.Events.UpdateProfile, true, actor.ID, actor.Role, actor.ID, nil, nil)
	return nil
}

func compactBays(bays []string) []string {
	out := make([]string, 0, len(bays))
	seen := make(map[string]struct{}, len(bays))
	for _, b := range bays {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	return out
}

func normalizeAccountDeps(deps *AccountDeps) {
	if deps.MetricInc == nil {
		deps.MetricInc = func(int) {}
	}
	if deps.EmitAudit == nil {
		deps.EmitAudit = func(context.Context, string, bool, string, string, string, error, func() map[string]string) {}
	}
	if deps.Warn == nil {
		deps.Warn = func(string, ...any) {}
	}
}
