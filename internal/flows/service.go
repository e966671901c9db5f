package flows

import (
	"context"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
)

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.ParseAccess != nil
}

func (s Service) Login(ctx context.Context, in LoginInput) LoginResult {
	return RunLogin(ctx, in, s.deps.Login)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Validate(ctx context.Context, tokenStr string) ValidateResult {
	return RunValidate(ctx, tokenStr, s.deps.Validate)
}

func (s Service) Logout(ctx context.Context, refreshToken string) LogoutResult {
	return RunLogout(ctx, refreshToken, s.deps.Logout)
}

func (s Service) CreateAccount(ctx context.Context, actor AccountActor, req AccountCreateRequest) (accounts.Account, error) {
	return RunCreateAccount(ctx, actor, req, s.deps.Account)
}

func (s Service) ChangePassword(ctx context.Context, actor AccountActor, oldPassword, newPassword string) error {
	return RunChangePassword(ctx, actor, oldPassword, newPassword, s.deps.Account)
}

func (s Service) UpdateProfile(ctx context.Context, actor AccountActor, p accounts.Profile) error {
	return RunUpdateProfile(ctx, actor, p, s.deps.Account)
}
