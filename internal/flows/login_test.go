package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/Code4Bharat1/VMS-BACKEND/accounts"
)

var (
	errValidation   = errors.New("validation")
	errNotFound     = errors.New("not found")
	errInactive     = errors.New("inactive")
	errInvalidCreds = errors.New("invalid credentials")
	errChallReq     = errors.New("challenge required")
	errChallBad     = errors.New("challenge invalid")
)

type fakeLogin struct {
	account    accounts.Account
	attempts   map[string]int
	bound      map[string]string
	challenges map[string]string
	events     []string
}

func newFakeLogin() *fakeLogin {
	return &fakeLogin{
		account: accounts.Account{
			ID:           "acc-1",
			Email:        "a@x.com",
			PasswordHash: "secret",
			Role:         accounts.RoleStaff,
			Active:       true,
			AssignedBay:  "bay-1",
		},
		attempts:   map[string]int{},
		bound:      map[string]string{},
		challenges: map[string]string{},
	}
}

func (f *fakeLogin) deps() LoginDeps {
	return LoginDeps{
		GetAccountByEmail: func(_ context.Context, email string) (accounts.Account, error) {
			if email != f.account.Email {
				return accounts.Account{}, accounts.ErrNotFound
			}
			return f.account, nil
		},
		RecordAttempt: func(_ context.Context, key string) (int, error) {
			f.attempts[key]++
			return f.attempts[key], nil
		},
		CountAttempts: func(_ context.Context, key string) (int, error) {
			return f.attempts[key], nil
		},
		ClearAttempts: func(_ context.Context, key string) error {
			delete(f.attempts, key)
			return nil
		},
		ChallengeRequired: func(n int) bool { return n >= 3 },
		VerifyPassword: func(plain, digest string) (bool, error) {
			return plain == digest, nil
		},
		VerifyChallenge: func(_ context.Context, id, answer string) (bool, error) {
			want, ok := f.challenges[id]
			delete(f.challenges, id)
			return ok && want == answer, nil
		},
		IssueAccess:  func(a accounts.Account) (string, error) { return "access-" + a.ID, nil },
		IssueRefresh: func(a accounts.Account) (string, error) { return "refresh-" + a.ID, nil },
		BindRefresh: func(_ context.Context, id, token string) error {
			f.bound[id] = token
			return nil
		},
		EmitAudit: func(_ context.Context, action string, success bool, _, _, _ string, _ error, _ func() map[string]string) {
			if success {
				f.events = append(f.events, action+":ok")
			} else {
				f.events = append(f.events, action+":fail")
			}
		},
		Events: LoginEvents{Login: "LOGIN"},
		Errors: LoginErrors{
			EngineNotReady:     errors.New("not ready"),
			Validation:         errValidation,
			AccountNotFound:    errNotFound,
			AccountInactive:    errInactive,
			InvalidCredentials: errInvalidCreds,
			ChallengeRequired:  errChallReq,
			ChallengeInvalid:   errChallBad,
		},
	}
}

func TestRunLoginSuccessNormalizesEmailAndBinds(t *testing.T) {
	f := newFakeLogin()
	res := RunLogin(context.Background(), LoginInput{Email: " A@X.com ", Password: "secret", ClientKey: "10.0.0.1"}, f.deps())
	if res.Failure != LoginFailureNone {
		t.Fatalf("expected success, got %v (%v)", res.Failure, res.Err)
	}
	if f.bound["acc-1"] != res.RefreshToken || res.AccessToken == "" {
		t.Fatalf("expected refresh bound, got %+v", f.bound)
	}
	if _, ok := f.attempts["10.0.0.1"]; ok {
		t.Fatal("expected attempt counter cleared on success")
	}
	if len(f.events) != 1 || f.events[0] != "LOGIN:ok" {
		t.Fatalf("unexpected audit trail %v", f.events)
	}
}

func TestRunLoginUnknownAccountDoesNotRecord(t *testing.T) {
	f := newFakeLogin()
	res := RunLogin(context.Background(), LoginInput{Email: "b@x.com", Password: "secret", ClientKey: "ip"}, f.deps())
	if res.Failure != LoginFailureAccountNotFound || !errors.Is(res.Err, errNotFound) {
		t.Fatalf("expected not found, got %v (%v)", res.Failure, res.Err)
	}
	if res.ChallengeRequired {
		t.Fatal("lookup failures carry no challenge flag")
	}
	if f.attempts["ip"] != 0 {
		t.Fatalf("expected no attempt recorded, got %d", f.attempts["ip"])
	}
}

func TestRunLoginValidation(t *testing.T) {
	f := newFakeLogin()
	for _, in := range []LoginInput{{Email: "", Password: "x"}, {Email: "a@x.com", Password: ""}, {Email: "   ", Password: "x"}} {
		res := RunLogin(context.Background(), in, f.deps())
		if res.Failure != LoginFailureValidation {
			t.Fatalf("expected validation failure for %+v, got %v", in, res.Failure)
		}
	}
}

func TestRunLoginInactiveChecksBeforePassword(t *testing.T) {
	f := newFakeLogin()
	f.account.Active = false
	res := RunLogin(context.Background(), LoginInput{Email: "a@x.com", Password: "wrong", ClientKey: "ip"}, f.deps())
	if res.Failure != LoginFailureInactive || !errors.Is(res.Err, errInactive) {
		t.Fatalf("expected inactive, got %v", res.Failure)
	}
	if f.attempts["ip"] != 1 {
		t.Fatalf("expected attempt recorded, got %d", f.attempts["ip"])
	}
}

func TestRunLoginChallengeGate(t *testing.T) {
	f := newFakeLogin()
	deps := f.deps()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res := RunLogin(ctx, LoginInput{Email: "a@x.com", Password: "wrong", ClientKey: "ip"}, deps)
		if res.Failure != LoginFailureInvalidCredentials {
			t.Fatalf("attempt %d: expected invalid credentials, got %v", i, res.Failure)
		}
		if res.ChallengeRequired != (i >= 3) {
			t.Fatalf("attempt %d: unexpected challenge flag %v", i, res.ChallengeRequired)
		}
	}

	res := RunLogin(ctx, LoginInput{Email: "a@x.com", Password: "secret", ClientKey: "ip"}, deps)
	if res.Failure != LoginFailureChallengeRequired || !res.ChallengeRequired {
		t.Fatalf("expected challenge required, got %v", res.Failure)
	}

	f.challenges["c1"] = "abcde"
	res = RunLogin(ctx, LoginInput{Email: "a@x.com", Password: "secret", ClientKey: "ip", ChallengeID: "c1", ChallengeAnswer: "zzzzz"}, deps)
	if res.Failure != LoginFailureChallengeInvalid || !res.ChallengeRequired {
		t.Fatalf("expected challenge invalid, got %v", res.Failure)
	}

	// The failed answer consumed c1.
	res = RunLogin(ctx, LoginInput{Email: "a@x.com", Password: "secret", ClientKey: "ip", ChallengeID: "c1", ChallengeAnswer: "abcde"}, deps)
	if res.Failure != LoginFailureChallengeInvalid {
		t.Fatalf("expected consumed challenge to fail, got %v", res.Failure)
	}

	f.challenges["c2"] = "abcde"
	res = RunLogin(ctx, LoginInput{Email: "a@x.com", Password: "secret", ClientKey: "ip", ChallengeID: "c2", ChallengeAnswer: "abcde"}, deps)
	if res.Failure != LoginFailureNone {
		t.Fatalf("expected success with challenge, got %v", res.Failure)
	}
	if f.attempts["ip"] != 0 {
		t.Fatalf("expected counter cleared, got %d", f.attempts["ip"])
	}
}

func TestRunLoginRecordOnlyFailures(t *testing.T) {
	f := newFakeLogin()
	deps := f.deps()
	deps.RecordOnlyFailures = true
	ctx := context.Background()

	res := RunLogin(ctx, LoginInput{Email: "a@x.com", Password: "secret", ClientKey: "ip"}, deps)
	if res.Failure != LoginFailureNone {
		t.Fatalf("expected success, got %v", res.Failure)
	}

	for i := 1; i <= 3; i++ {
		res = RunLogin(ctx, LoginInput{Email: "a@x.com", Password: "wrong", ClientKey: "ip"}, deps)
		if res.Attempts != i {
			t.Fatalf("expected %d recorded failures, got %d", i, res.Attempts)
		}
	}

	res = RunLogin(ctx, LoginInput{Email: "a@x.com", Password: "secret", ClientKey: "ip"}, deps)
	if res.Failure != LoginFailureChallengeRequired {
		t.Fatalf("expected challenge required, got %v", res.Failure)
	}
}

func TestRunLoginClientKeyFallsBackToEmail(t *testing.T) {
	f := newFakeLogin()
	_ = RunLogin(context.Background(), LoginInput{Email: "a@x.com", Password: "wrong"}, f.deps())
	if f.attempts["a@x.com"] != 1 {
		t.Fatalf("expected attempts keyed by email, got %v", f.attempts)
	}
}

func TestRunLoginRehashesOutdatedDigest(t *testing.T) {
	f := newFakeLogin()
	var stored string
	deps := f.deps()
	deps.NeedsRehash = func(digest string) bool { return digest == "secret" }
	deps.HashPassword = func(plain string) (string, error) { return "v2:" + plain, nil }
	deps.UpdatePasswordHash = func(_ context.Context, id, digest string) error {
		stored = id + "=" + digest
		return nil
	}

	res := RunLogin(context.Background(), LoginInput{Email: "a@x.com", Password: "secret"}, deps)
	if res.Failure != LoginFailureNone {
		t.Fatalf("expected success, got %v (%v)", res.Failure, res.Err)
	}
	if stored != "acc-1=v2:secret" || res.Account.PasswordHash != "v2:secret" {
		t.Fatalf("expected digest replaced, stored=%q result=%q", stored, res.Account.PasswordHash)
	}
}

func TestRunLoginRehashFailureStillSucceeds(t *testing.T) {
	f := newFakeLogin()
	var warned []string
	deps := f.deps()
	deps.NeedsRehash = func(string) bool { return true }
	deps.HashPassword = func(plain string) (string, error) { return "v2:" + plain, nil }
	deps.UpdatePasswordHash = func(context.Context, string, string) error { return errors.New("down") }
	deps.Warn = func(msg string, _ ...any) { warned = append(warned, msg) }

	res := RunLogin(context.Background(), LoginInput{Email: "a@x.com", Password: "secret"}, deps)
	if res.Failure != LoginFailureNone {
		t.Fatalf("expected success, got %v (%v)", res.Failure, res.Err)
	}
	if res.Account.PasswordHash != "secret" || len(warned) != 1 {
		t.Fatalf("expected old digest kept with one warning, hash=%q warned=%v", res.Account.PasswordHash, warned)
	}
}

func TestRunLoginNoRehashOnFailure(t *testing.T) {
	f := newFakeLogin()
	deps := f.deps()
	deps.NeedsRehash = func(string) bool { return true }
	deps.HashPassword = func(string) (string, error) {
		t.Fatal("failed login must not rehash")
		return "", nil
	}
	deps.UpdatePasswordHash = func(context.Context, string, string) error { return nil }

	res := RunLogin(context.Background(), LoginInput{Email: "a@x.com", Password: "wrong"}, deps)
	if res.Failure != LoginFailureInvalidCredentials {
		t.Fatalf("expected invalid credentials, got %v", res.Failure)
	}
}
