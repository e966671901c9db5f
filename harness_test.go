package vms

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
	"github.com/Code4Bharat1/VMS-BACKEND/password"
)

const (
	staffPassword = "secret"
	adminPassword = "admin-secret"

	testAccessSecret  = "access-secret-access-secret-access-secret"
	testRefreshSecret = "refresh-secret-refresh-secret-refresh-secret"
)

// plainRenderer leaks the answer through the image so tests can solve
// challenges.
type plainRenderer struct{}

func (plainRenderer) Render(answer string) (string, error) {
	return "answer:" + answer, nil
}

func solve(c *Challenge) string {
	return strings.TrimPrefix(c.Image, "answer:")
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	engine   *Engine
	accounts *accounts.MemoryStore
	clock    *testClock
	staff    Account
	admin    Account
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.AccessSecret = testAccessSecret
	cfg.JWT.RefreshSecret = testRefreshSecret
	cfg.Password.BcryptCost = 4
	return cfg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, testConfig(), nil)
}

func newHarnessWith(t *testing.T, cfg Config, configure func(*Builder)) *harness {
	t.Helper()

	store := accounts.NewMemoryStore()
	clock := newTestClock()

	b := New().
		WithConfig(cfg).
		WithAccountStore(store).
		WithChallengeRenderer(plainRenderer{}).
		WithClock(clock.Now)
	if configure != nil {
		configure(b)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	h := &harness{engine: engine, accounts: store, clock: clock}
	h.staff = h.seed(t, Account{
		Name:        "Bay Staff",
		Email:       "staff@x.com",
		Role:        RoleStaff,
		Active:      true,
		AssignedBay: "bay-1",
	}, staffPassword)
	h.admin = h.seed(t, Account{
		Name:   "Admin",
		Email:  "admin@x.com",
		Role:   RoleAdmin,
		Active: true,
	}, adminPassword)
	return h
}

func (h *harness) seed(t *testing.T, a Account, plain string) Account {
	t.Helper()

	hasher, err := password.NewBcrypt(4)
	if err != nil {
		t.Fatalf("NewBcrypt: %v", err)
	}
	a.PasswordHash, err = hasher.Hash(plain)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	created, err := h.accounts.Create(context.Background(), a)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return created
}

func (h *harness) login(t *testing.T, ctx context.Context, email, plain string) *LoginResult {
	t.Helper()

	res, err := h.engine.Login(ctx, LoginRequest{Email: email, Password: plain})
	if err != nil {
		t.Fatalf("Login(%s): %v", email, err)
	}
	return res
}

func (h *harness) storedReference(t *testing.T, id string) string {
	t.Helper()

	a, err := h.accounts.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return a.RefreshToken
}
