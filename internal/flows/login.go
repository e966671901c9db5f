package flows

import (
	"context"
	"errors"
	"strconv"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
)

// LoginFailureKind classifies login failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureValidation
	LoginFailureAccountNotFound
	LoginFailureLookup
	LoginFailureTracker
	LoginFailureInactive
	LoginFailureInvalidCredentials
	LoginFailureChallengeRequired
	LoginFailureChallengeInvalid
	LoginFailureChallengeBackend
	LoginFailureIssue
)

// LoginInput is the flow-local login request shape.
type LoginInput struct {
	Email           string
	Password        string
	ChallengeID     string
	ChallengeAnswer string
	ClientKey       string
}

// LoginResult carries either the issued pair or failure metadata.
// ChallengeRequired is meaningful on every failure after the account lookup.
type LoginResult struct {
	Failure           LoginFailureKind
	Err               error
	Attempts          int
	ChallengeRequired bool
	Account           accounts.Account
	AccessToken       string
	RefreshToken      string
}

// LoginMetrics carries metric IDs needed by the login flow.
type LoginMetrics struct {
	LoginSuccess           int
	LoginFailure           int
	LoginChallengeRequired int
	LoginChallengeInvalid  int
	SessionCreated         int
}

// LoginEvents carries audit action names used by the login flow.
type LoginEvents struct {
	Login string
}

// LoginErrors carries host-level sentinel errors used by the login flow.
type LoginErrors struct {
	EngineNotReady     error
	Validation         error
	AccountNotFound    error
	AccountInactive    error
	InvalidCredentials error
	ChallengeRequired  error
	ChallengeInvalid   error
}

// LoginDeps captures login dependencies.
type LoginDeps struct {
	// RecordOnlyFailures counts an attempt only after it fails instead of on
	// every call that reaches an existing account.
	RecordOnlyFailures bool

	GetAccountByEmail func(context.Context, string) (accounts.Account, error)
	NormalizeEmail    func(string) string

	RecordAttempt     func(context.Context, string) (int, error)
	CountAttempts     func(context.Context, string) (int, error)
	ClearAttempts     func(context.Context, string) error
	ChallengeRequired func(int) bool

	VerifyPassword  func(string, string) (bool, error)
	VerifyChallenge func(context.Context, string, string) (bool, error)

	// Optional. A verified digest that NeedsRehash reports is replaced
	// with HashPassword of the plaintext. Failures only warn.
	NeedsRehash        func(string) bool
	HashPassword       func(string) (string, error)
	UpdatePasswordHash func(context.Context, string, string) error

	IssueAccess  func(accounts.Account) (string, error)
	IssueRefresh func(accounts.Account) (string, error)
	BindRefresh  func(context.Context, string, string) error

	MetricInc func(int)
	EmitAudit func(context.Context, string, bool, string, string, string, error, func() map[string]string)
	Warn      func(string, ...any)

	Metrics LoginMetrics
	Events  LoginEvents
	Errors  LoginErrors
}

// RunLogin executes lookup, attempt tracking, credential and challenge checks,
// then issues and binds a fresh token pair.
func RunLogin(ctx context.Context, in LoginInput, deps LoginDeps) LoginResult {
	normalizeLoginDeps(&deps)
	if deps.GetAccountByEmail == nil ||
		deps.RecordAttempt == nil ||
		deps.VerifyPassword == nil ||
		deps.VerifyChallenge == nil ||
		deps.IssueAccess == nil ||
		deps.IssueRefresh == nil ||
		deps.BindRefresh == nil {
		return LoginResult{Failure: LoginFailureLookup, Err: deps.Errors.EngineNotReady}
	}

	email := deps.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return LoginResult{Failure: LoginFailureValidation, Err: deps.Errors.Validation}
	}

	account, err := deps.GetAccountByEmail(ctx, email)
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		if errors.Is(err, accounts.ErrNotFound) {
			return LoginResult{Failure: LoginFailureAccountNotFound, Err: deps.Errors.AccountNotFound}
		}
		return LoginResult{Failure: LoginFailureLookup, Err: err}
	}

	clientKey := in.ClientKey
	if clientKey == "" {
		clientKey = email
	}

	var attempts int
	if deps.RecordOnlyFailures {
		attempts, err = deps.CountAttempts(ctx, clientKey)
	} else {
		attempts, err = deps.RecordAttempt(ctx, clientKey)
	}
	if err != nil {
		deps.MetricInc(deps.Metrics.LoginFailure)
		return LoginResult{Failure: LoginFailureTracker, Err: err, Account: account}
	}

	fail := func(kind LoginFailureKind, failErr error, reason string) LoginResult {
		n := attempts
		if deps.RecordOnlyFailures {
			if recorded, recErr := deps.RecordAttempt(ctx, clientKey); recErr == nil {
				n = recorded
			} else {
				deps.Warn("vms: attempt record failed")
			}
		}
		deps.MetricInc(deps.Metrics.LoginFailure)
		deps.EmitAudit(ctx, deps.Events.Login, false, account.ID, account.Role.String(), account.ID, failErr, func() map[string]string {
			return map[string]string{
				"reason":   reason,
				"attempts": strconv.Itoa(n),
			}
		})
		return LoginResult{
			Failure:           kind,
			Err:               failErr,
			Attempts:          n,
			ChallengeRequired: deps.ChallengeRequired(n),
			Account:           account,
		}
	}

	if !account.Active {
		return fail(LoginFailureInactive, deps.Errors.AccountInactive, "inactive")
	}

	ok, err := deps.VerifyPassword(in.Password, account.PasswordHash)
	if err != nil {
		deps.Warn("vms: password digest unreadable")
	}
	if err != nil || !ok {
		return fail(LoginFailureInvalidCredentials, deps.Errors.InvalidCredentials, "password_mismatch")
	}
	rehash := deps.NeedsRehash(account.PasswordHash)
	plaintext := in.Password
	in.Password = ""

	if deps.ChallengeRequired(attempts) {
		if in.ChallengeID == "" || in.ChallengeAnswer == "" {
			deps.MetricInc(deps.Metrics.LoginChallengeRequired)
			return fail(LoginFailureChallengeRequired, deps.Errors.ChallengeRequired, "challenge_missing")
		}
		valid, err := deps.VerifyChallenge(ctx, in.ChallengeID, in.ChallengeAnswer)
		if err != nil {
			deps.MetricInc(deps.Metrics.LoginFailure)
			return LoginResult{Failure: LoginFailureChallengeBackend, Err: err, Account: account, Attempts: attempts, ChallengeRequired: true}
		}
		if !valid {
			deps.MetricInc(deps.Metrics.LoginChallengeInvalid)
			return fail(LoginFailureChallengeInvalid, deps.Errors.ChallengeInvalid, "challenge_invalid")
		}
	}

	if deps.ClearAttempts != nil {
		if err := deps.ClearAttempts(ctx, clientKey); err != nil {
			deps.Warn("vms: attempt reset failed")
		}
	}

	if rehash {
		rehashPassword(ctx, &account, plaintext, deps)
	}

	access, err := deps.IssueAccess(account)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Account: account}
	}
	refresh, err := deps.IssueRefresh(account)
	if err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Account: account}
	}
	if err := deps.BindRefresh(ctx, account.ID, refresh); err != nil {
		return LoginResult{Failure: LoginFailureIssue, Err: err, Account: account}
	}
	account.RefreshToken = refresh

	deps.MetricInc(deps.Metrics.LoginSuccess)
	deps.MetricInc(deps.Metrics.SessionCreated)
	deps.EmitAudit(ctx, deps.Events.Login, true, account.ID, account.Role.String(), account.ID, nil, nil)

	return LoginResult{
		Account:      account,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}

func rehashPassword(ctx context.Context, account *accounts.Account, plaintext string, deps LoginDeps) {
	if deps.HashPassword == nil || deps.UpdatePasswordHash == nil {
		return
	}
	digest, err := deps.HashPassword(plaintext)
	if err != nil {
		deps.Warn("vms: password rehash failed")
		return
	}
	if err := deps.UpdatePasswordHash(ctx, account.ID, digest); err != nil {
		deps.Warn("vms: password rehash not stored")
		return
	}
	account.PasswordHash = digest
}

func normalizeLoginDeps(deps *LoginDeps) {
	if deps.NormalizeEmail == nil {
		deps.NormalizeEmail = accounts.NormalizeEmail
	}
	if deps.CountAttempts == nil {
		deps.CountAttempts = func(context.Context, string) (int, error) { return 0, nil }
	}
	if deps.ChallengeRequired == nil {
		deps.ChallengeRequired = func(int) bool { return false }
	}
	if deps.NeedsRehash == nil {
		deps.NeedsRehash = func(string) bool { return false }
	}
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
