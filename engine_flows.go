package vms

import (
	"context"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
	"github.com/Code4Bharat1/VMS-BACKEND/internal/flows"
)

func (e *Engine) buildFlows() flows.Service {
	return flows.New(flows.Deps{
		Login:    e.loginDeps(),
		Refresh:  e.refreshDeps(),
		Validate: e.validateDeps(),
		Logout:   e.logoutDeps(),
		Account:  e.accountDeps(),
	})
}

func (e *Engine) metricIncFlow(id int) {
	e.metricInc(MetricID(id))
}

func (e *Engine) issueAccess(a accounts.Account) (string, error) {
	return e.jwtManager.IssueAccess(a.ID, a.Role.String())
}

func (e *Engine) issueRefresh(a accounts.Account) (string, error) {
	return e.jwtManager.IssueRefresh(a.ID)
}

func (e *Engine) loginDeps() flows.LoginDeps {
	return flows.LoginDeps{
		RecordOnlyFailures: e.config.Login.RecordOnlyFailures,
		GetAccountByEmail:  e.accounts.GetByEmail,
		NormalizeEmail:     accounts.NormalizeEmail,
		RecordAttempt:      e.tracker.Record,
		CountAttempts:      e.tracker.Count,
		ClearAttempts:      e.tracker.Clear,
		ChallengeRequired:  e.tracker.ChallengeRequired,
		VerifyPassword:     e.hasher.Verify,
		VerifyChallenge:    e.challenges.Verify,
		NeedsRehash:        e.hasher.NeedsRehash,
		HashPassword:       e.hasher.Hash,
		UpdatePasswordHash: e.accounts.UpdatePasswordHash,
		IssueAccess:        e.issueAccess,
		IssueRefresh:       e.issueRefresh,
		BindRefresh:        e.sessions.Bind,
		MetricInc:          e.metricIncFlow,
		EmitAudit:          e.emitAudit,
		Warn:               e.warn,
		Metrics: flows.LoginMetrics{
			LoginSuccess:           int(MetricLoginSuccess),
			LoginFailure:           int(MetricLoginFailure),
			LoginChallengeRequired: int(MetricLoginChallengeRequired),
			LoginChallengeInvalid:  int(MetricLoginChallengeInvalid),
			SessionCreated:         int(MetricSessionCreated),
		},
		Events: flows.LoginEvents{
			Login: auditActionLogin,
		},
		Errors: flows.LoginErrors{
			EngineNotReady:     ErrEngineNotReady,
			Validation:         ErrValidation,
			AccountNotFound:    ErrAccountNotFound,
			AccountInactive:    ErrAccountInactive,
			InvalidCredentials: ErrInvalidCredentials,
			ChallengeRequired:  ErrChallengeRequired,
			ChallengeInvalid:   ErrChallengeInvalid,
		},
	}
}

func (e *Engine) refreshDeps() flows.RefreshDeps {
	return flows.RefreshDeps{
		Rotate: e.config.Refresh.RotateOnRefresh,
		VerifyRefresh: func(token string) (string, error) {
			claims, err := e.jwtManager.VerifyRefresh(token)
			if err != nil {
				return "", err
			}
			return claims.AccountID(), nil
		},
		GetAccountByID: e.accounts.GetByID,
		CheckReference: e.sessions.Check,
		IssueAccess:    e.issueAccess,
		IssueRefresh:   e.issueRefresh,
		BindRefresh:    e.sessions.Bind,
	}
}

func (e *Engine) validateDeps() flows.ValidateDeps {
	return flows.ValidateDeps{
		ParseAccess: func(token string) (flows.AccessClaims, error) {
			claims, err := e.jwtManager.VerifyAccess(token)
			if err != nil {
				return flows.AccessClaims{}, err
			}
			out := flows.AccessClaims{
				AccountID: claims.AccountID(),
				Role:      claims.Role,
			}
			if claims.IssuedAt != nil {
				out.IssuedAt = claims.IssuedAt.Time
			}
			return out, nil
		},
		GetAccountByID: e.accounts.GetByID,
		Now:            e.now,
		MaxClockSkew:   e.config.JWT.MaxClockSkew,
	}
}

func (e *Engine) logoutDeps() flows.LogoutDeps {
	return flows.LogoutDeps{
		Revoke: e.sessions.Revoke,
	}
}

func (e *Engine) accountDeps() flows.AccountDeps {
	return flows.AccountDeps{
		CreateAccount:      e.accounts.Create,
		GetAccountByID:     e.accounts.GetByID,
		UpdatePasswordHash: e.accounts.UpdatePasswordHash,
		UpdateProfile:      e.accounts.UpdateProfile,
		ClearRefresh: func(ctx context.Context, id string) error {
			if err := e.sessions.Clear(ctx, id); err != nil {
				return err
			}
			e.metricInc(MetricSessionInvalidated)
			return nil
		},
		HashPassword:   e.hasher.Hash,
		VerifyPassword: e.hasher.Verify,
		MetricInc:      e.metricIncFlow,
		EmitAudit:      e.emitAudit,
		Warn:           e.warn,
		Metrics: flows.AccountMetrics{
			AccountCreationSuccess:   int(MetricAccountCreationSuccess),
			AccountCreationDuplicate: int(MetricAccountCreationDuplicate),
			PasswordChangeSuccess:    int(MetricPasswordChangeSuccess),
			PasswordChangeInvalidOld: int(MetricPasswordChangeInvalidOld),
			PasswordChangeReuse:      int(MetricPasswordChangeReuseRejected),
			ProfileUpdated:           int(MetricProfileUpdated),
		},
		Events: flows.AccountEvents{
			RegisterAdmin:    auditActionRegisterAdmin,
			CreateSupervisor: auditActionCreateSupervisor,
			CreateStaff:      auditActionCreateStaff,
			UpdatePassword:   auditActionUpdatePassword,
			UpdateProfile:    auditActionUpdateProfile,
		},
		Errors: flows.AccountErrors{
			EngineNotReady:     ErrEngineNotReady,
			Validation:         ErrValidation,
			EmailTaken:         ErrEmailTaken,
			AccountNotFound:    ErrAccountNotFound,
			InvalidCredentials: ErrInvalidCredentials,
			PasswordReuse:      ErrPasswordReuse,
		},
	}
}
