package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
)

func newAccount(t *testing.T, s *accounts.MemoryStore) accounts.Account {
	t.Helper()
	a, err := s.Create(context.Background(), accounts.Account{Email: "a@x.com", Role: accounts.RoleStaff, Active: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return a
}

func TestBindReplacesPreviousReference(t *testing.T) {
	ctx := context.Background()
	accts := accounts.NewMemoryStore()
	a := newAccount(t, accts)
	s := NewStore(accts)

	if err := s.Bind(ctx, a.ID, "first"); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if err := s.Bind(ctx, a.ID, "second"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	current, _ := accts.GetByID(ctx, a.ID)
	if err := s.Check(current, "first"); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected first reference revoked, got %v", err)
	}
	if err := s.Check(current, "second"); err != nil {
		t.Fatalf("expected second reference honored, got %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	accts := accounts.NewMemoryStore()
	a := newAccount(t, accts)
	s := NewStore(accts)
	_ = s.Bind(ctx, a.ID, "tok")

	holder, err := s.Revoke(ctx, "tok")
	if err != nil || holder != a.ID {
		t.Fatalf("expected holder %s, got %q (%v)", a.ID, holder, err)
	}
	for _, tok := range []string{"tok", "", "never-issued"} {
		holder, err := s.Revoke(ctx, tok)
		if err != nil || holder != "" {
			t.Fatalf("expected silent no-op for %q, got %q (%v)", tok, holder, err)
		}
	}

	current, _ := accts.GetByID(ctx, a.ID)
	if current.RefreshToken != "" {
		t.Fatalf("expected cleared reference, got %q", current.RefreshToken)
	}
}

func TestMatchesNeverAcceptsEmpty(t *testing.T) {
	if Matches("", "") || Matches("", "x") || Matches("x", "") {
		t.Fatal("empty values must never match")
	}
	if !Matches("abc", "abc") || Matches("abc", "abd") {
		t.Fatal("unexpected comparison result")
	}
}

func TestBindRejectsEmpty(t *testing.T) {
	s := NewStore(accounts.NewMemoryStore())
	if err := s.Bind(context.Background(), "", "tok"); err == nil {
		t.Fatal("expected error for empty account id")
	}
}

func TestClearDropsReference(t *testing.T) {
	ctx := context.Background()
	accts := accounts.NewMemoryStore()
	a := newAccount(t, accts)
	s := NewStore(accts)
	_ = s.Bind(ctx, a.ID, "tok")

	if err := s.Clear(ctx, a.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	current, _ := accts.GetByID(ctx, a.ID)
	if err := s.Check(current, "tok"); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected cleared reference rejected, got %v", err)
	}
	if holder, _ := s.Revoke(ctx, "tok"); holder != "" {
		t.Fatalf("cleared token must have no holder, got %q", holder)
	}
}

// interleavedRefs binds a fresh reference on the first clear, as a login
// landing between a logout's request and its store write would.
type interleavedRefs struct {
	*accounts.MemoryStore
	accountID string
	fresh     string
	once      sync.Once
}

func (r *interleavedRefs) ClearRefreshToken(ctx context.Context, token string) (string, error) {
	r.once.Do(func() {
		_ = r.MemoryStore.SetRefreshToken(ctx, r.accountID, r.fresh)
	})
	return r.MemoryStore.ClearRefreshToken(ctx, token)
}

func TestRevokeStaleTokenKeepsConcurrentLogin(t *testing.T) {
	ctx := context.Background()
	accts := accounts.NewMemoryStore()
	a := newAccount(t, accts)
	refs := &interleavedRefs{MemoryStore: accts, accountID: a.ID, fresh: "new"}
	s := NewStore(refs)
	if err := s.Bind(ctx, a.ID, "old"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	holder, err := s.Revoke(ctx, "old")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if holder != "" {
		t.Fatalf("stale token must have no holder, got %q", holder)
	}

	current, _ := accts.GetByID(ctx, a.ID)
	if current.RefreshToken != "new" {
		t.Fatalf("expected fresh reference to survive, got %q", current.RefreshToken)
	}
	if err := s.Check(current, "new"); err != nil {
		t.Fatalf("fresh reference must still verify: %v", err)
	}
}

func TestRevokeRacingBindsNeverClearsNewest(t *testing.T) {
	ctx := context.Background()
	accts := accounts.NewMemoryStore()
	a := newAccount(t, accts)
	s := NewStore(accts)

	const rounds = 200
	tokens := make(chan string, rounds)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for tok := range tokens {
			_, _ = s.Revoke(ctx, tok)
		}
	}()

	var previous string
	for i := 0; i < rounds; i++ {
		next := fmt.Sprintf("tok-%d", i)
		if err := s.Bind(ctx, a.ID, next); err != nil {
			t.Fatalf("bind: %v", err)
		}
		if previous != "" {
			tokens <- previous
		}
		previous = next
	}
	close(tokens)
	wg.Wait()

	current, _ := accts.GetByID(ctx, a.ID)
	if current.RefreshToken != previous {
		t.Fatalf("expected newest reference %q, got %q", previous, current.RefreshToken)
	}
}
