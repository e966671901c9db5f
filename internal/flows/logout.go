package flows

import "context"

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Revoke func(context.Context, string) (string, error)
}

// LogoutResult reports which account, if any, held the presented reference.
type LogoutResult struct {
	AccountID string
	Err       error
}

// RunLogout clears the reference of whichever account holds refreshToken.
// Unknown and empty tokens succeed without effect.
func RunLogout(ctx context.Context, refreshToken string, deps LogoutDeps) LogoutResult {
	if refreshToken == "" {
		return LogoutResult{}
	}
	id, err := deps.Revoke(ctx, refreshToken)
	return LogoutResult{AccountID: id, Err: err}
}
