package flows

import (
	"context"
	"errors"
	"time"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureUnauthorized
	ValidateFailureTokenClockSkew
	ValidateFailureAccountMissing
	ValidateFailureLookup
	ValidateFailureInactive
)

// AccessClaims is the flow-local view of a verified access token.
type AccessClaims struct {
	AccountID string
	Role      string
	IssuedAt  time.Time
}

// ValidateResult returns either the current account or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  AccessClaims
	Account accounts.Account
}

// ValidateDeps captures access-token validation dependencies.
type ValidateDeps struct {
	ParseAccess    func(string) (AccessClaims, error)
	GetAccountByID func(context.Context, string) (accounts.Account, error)
	Now            func() time.Time
	// MaxClockSkew rejects tokens issued further in the future; negative
	// disables the check.
	MaxClockSkew time.Duration
}

// RunValidate verifies the access token and re-reads the account so that
// role and bay assignments reflect the store, not the token.
func RunValidate(ctx context.Context, tokenStr string, deps ValidateDeps) ValidateResult {
	if tokenStr == "" {
		return ValidateResult{Failure: ValidateFailureMissing}
	}

	claims, err := deps.ParseAccess(tokenStr)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureUnauthorized, Err: err}
	}
	if deps.Now != nil && deps.MaxClockSkew >= 0 && !claims.IssuedAt.IsZero() {
		if claims.IssuedAt.After(deps.Now().Add(deps.MaxClockSkew)) {
			return ValidateResult{Failure: ValidateFailureTokenClockSkew, Claims: claims}
		}
	}

	account, err := deps.GetAccountByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) || errors.Is(err, accounts.ErrInvalidRole) {
			return ValidateResult{Failure: ValidateFailureAccountMissing, Err: err, Claims: claims}
		}
		return ValidateResult{Failure: ValidateFailureLookup, Err: err, Claims: claims}
	}
	if !account.Active {
		return ValidateResult{Failure: ValidateFailureInactive, Claims: claims, Account: account}
	}

	return ValidateResult{Claims: claims, Account: account}
}
