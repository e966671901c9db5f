package vms

import (
	"errors"
	"strings"
	"time"

	"github.com/Code4Bharat1/VMS-BACKEND/password"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning is a configuration that validates but is probably unintended.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the list of warnings returned by Config.Lint.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError joins warnings at or above min into one error, or returns nil.
func (r LintResult) AsError(min LintSeverity) error {
	filtered := r.BySeverity(min)
	if len(filtered) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(filtered))
	for _, w := range filtered {
		msgs = append(msgs, w.Severity.String()+" "+w.Code+": "+w.Message)
	}
	return errors.New("config lint: " + strings.Join(msgs, "; "))
}

// Lint reports settings that are valid but weaken the login throttle or the
// token lifetimes.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if c.JWT.Leeway > time.Minute {
		add("leeway_large", LintWarn, "JWT leeway above 1m widens the expiry window")
	}
	if c.JWT.AccessTTL > 30*time.Minute {
		add("access_ttl_long", LintWarn, "access tokens outlive a role change for more than 30m")
	}
	if c.JWT.RefreshTTL > 14*24*time.Hour {
		add("refresh_ttl_long", LintWarn, "refresh tokens live longer than 14 days")
	}
	if strings.EqualFold(c.JWT.SigningMethod, "hs256") {
		add("signing_hs256", LintInfo, "hs256 requires every verifier to hold the signing secret")
	}
	if c.JWT.MaxClockSkew < 0 {
		add("clock_skew_unchecked", LintWarn, "future-dated access tokens are accepted")
	}
	if c.Login.ChallengeThreshold > 10 {
		add("challenge_threshold_high", LintHigh, "more than 10 password guesses are allowed before a challenge")
	}
	if c.Login.AttemptWindow < time.Minute {
		add("attempt_window_short", LintHigh, "attempt counters expire in under a minute")
	}
	if c.Login.RecordOnlyFailures {
		add("record_only_failures", LintInfo, "successful logins do not count toward the challenge threshold")
	}
	if c.Challenge.TTL > 10*time.Minute {
		add("challenge_ttl_long", LintWarn, "challenges stay answerable for more than 10m")
	}
	if strings.EqualFold(c.Password.Algorithm, password.AlgorithmArgon2id) && c.Password.Argon2.Memory < 64*1024 {
		add("argon2_memory_low", LintWarn, "argon2id memory below 64 MiB")
	}
	if (c.Password.Algorithm == "" || strings.EqualFold(c.Password.Algorithm, password.AlgorithmBcrypt)) &&
		c.Password.BcryptCost != 0 && c.Password.BcryptCost < password.DefaultBcryptCost {
		add("bcrypt_cost_low", LintWarn, "bcrypt cost below 10")
	}
	if !c.Audit.Enabled {
		add("audit_disabled", LintInfo, "activity log events are not emitted")
	}
	if c.Refresh.RotateOnRefresh {
		add("refresh_rotation", LintInfo, "concurrent refreshes with the same token race; the last rotation wins")
	}

	return ws
}
