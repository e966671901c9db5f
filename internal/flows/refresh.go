package flows

import (
	"context"
	"errors"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissing
	RefreshFailureVerify
	RefreshFailureAccountMissing
	RefreshFailureLookup
	RefreshFailureRevoked
	RefreshFailureInactive
	RefreshFailureIssueAccess
	RefreshFailureRotate
)

// RefreshResult carries either the issued token(s) or failure metadata.
// RefreshToken is set only when the reference was rotated.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	Account      accounts.Account
	AccessToken  string
	RefreshToken string
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Rotate bool

	VerifyRefresh  func(string) (string, error)
	GetAccountByID func(context.Context, string) (accounts.Account, error)
	CheckReference func(accounts.Account, string) error
	IssueAccess    func(accounts.Account) (string, error)
	IssueRefresh   func(accounts.Account) (string, error)
	BindRefresh    func(context.Context, string, string) error
}

// RunRefresh verifies a refresh token, requires it to be the account's
// current reference, and mints a new access token.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{Failure: RefreshFailureMissing}
	}

	accountID, err := deps.VerifyRefresh(refreshToken)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureVerify, Err: err}
	}

	account, err := deps.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return RefreshResult{Failure: RefreshFailureAccountMissing, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureLookup, Err: err}
	}

	if err := deps.CheckReference(account, refreshToken); err != nil {
		return RefreshResult{Failure: RefreshFailureRevoked, Err: err, Account: account}
	}
	if !account.Active {
		return RefreshResult{Failure: RefreshFailureInactive, Account: account}
	}

	access, err := deps.IssueAccess(account)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssueAccess, Err: err, Account: account}
	}

	if !deps.Rotate {
		return RefreshResult{Account: account, AccessToken: access}
	}

	next, err := deps.IssueRefresh(account)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureRotate, Err: err, Account: account}
	}
	if err := deps.BindRefresh(ctx, account.ID, next); err != nil {
		return RefreshResult{Failure: RefreshFailureRotate, Err: err, Account: account}
	}
	account.RefreshToken = next

	return RefreshResult{
		Account:      account,
		AccessToken:  access,
		RefreshToken: next,
	}
}
