package vms

import (
	"context"
	"errors"
	"testing"
)

// End-to-end walk through a staff login with normalization, attempt
// counting and the challenge gate.
func TestSecurityInvariantStaffLoginScenario(t *testing.T) {
	h := newHarness(t)
	h.seed(t, Account{Email: "a@x.com", Role: RoleStaff, Active: true, AssignedBay: "bay-3"}, "secret")
	ctx := WithClientIP(context.Background(), "203.0.113.1")

	res := h.login(t, ctx, "A@X.com ", "secret")
	id, err := h.engine.Authenticate(ctx, res.AccessToken)
	if err != nil || id.Role != RoleStaff {
		t.Fatalf("expected staff identity, got %+v %v", id, err)
	}

	for i := 0; i < 3; i++ {
		_, _ = h.engine.Login(ctx, LoginRequest{Email: "a@x.com", Password: "wrong"})
	}
	_, err = h.engine.Login(ctx, LoginRequest{Email: "a@x.com", Password: "secret"})
	if !errors.Is(err, ErrChallengeRequired) || !ChallengeRequired(err) {
		t.Fatalf("expected challenge required, got %v", err)
	}

	c, err := h.engine.IssueChallenge(ctx)
	if err != nil {
		t.Fatalf("IssueChallenge: %v", err)
	}
	if _, err := h.engine.Login(ctx, LoginRequest{
		Email:           "a@x.com",
		Password:        "secret",
		ChallengeID:     c.ID,
		ChallengeAnswer: solve(c),
	}); err != nil {
		t.Fatalf("expected success with challenge, got %v", err)
	}
}

func TestSecurityInvariantRefreshNeedsSignatureAndReference(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.login(t, ctx, "staff@x.com", staffPassword)

	// Stored reference alone is not enough.
	if err := h.accounts.SetRefreshToken(ctx, h.staff.ID, "forged"); err != nil {
		t.Fatalf("SetRefreshToken: %v", err)
	}
	if _, err := h.engine.Refresh(ctx, "forged"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected unsigned reference rejected, got %v", err)
	}
	// Signature alone is not enough.
	if _, err := h.engine.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrRefreshRevoked) {
		t.Fatalf("expected superseded token rejected, got %v", err)
	}
}

func TestSecurityInvariantInactiveAccountLosesAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.login(t, ctx, "staff@x.com", staffPassword)
	if err := h.accounts.SetActive(ctx, h.staff.ID, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if _, err := h.engine.Authenticate(ctx, res.AccessToken); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
	if _, err := h.engine.Refresh(ctx, res.RefreshToken); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive on refresh, got %v", err)
	}
}
