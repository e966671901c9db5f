package vms

import "time"

// SecurityReport summarizes the security-relevant settings an Engine runs
// with. It carries no secrets.
type SecurityReport struct {
	SigningAlgorithm       string
	AccessTTL              time.Duration
	RefreshTTL             time.Duration
	MaxClockSkew           time.Duration
	PasswordAlgorithm      string
	BcryptCost             int
	Argon2                 PasswordConfigReport
	AttemptWindow          time.Duration
	ChallengeThreshold     int
	RecordOnlyFailures     bool
	ChallengeTTL           time.Duration
	RefreshRotationEnabled bool
	SharedAttemptStore     bool
	AuditEnabled           bool
	LintWarnings           []string
}

type PasswordConfigReport struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

func (e *Engine) SecurityReport() SecurityReport {
	if e == nil || e.jwtManager == nil || e.tracker == nil {
		return SecurityReport{}
	}

	_, inMemory := e.kv.(interface{ Sweep() int })
	lint := e.config.Lint()

	return SecurityReport{
		SigningAlgorithm:  string(e.jwtManager.Method()),
		AccessTTL:         e.config.JWT.AccessTTL,
		RefreshTTL:        e.config.JWT.RefreshTTL,
		MaxClockSkew:      e.config.JWT.MaxClockSkew,
		PasswordAlgorithm: e.config.Password.Algorithm,
		BcryptCost:        e.config.Password.BcryptCost,
		Argon2: PasswordConfigReport{
			Memory:      e.config.Password.Argon2.Memory,
			Time:        e.config.Password.Argon2.Time,
			Parallelism: e.config.Password.Argon2.Parallelism,
			SaltLength:  e.config.Password.Argon2.SaltLength,
			KeyLength:   e.config.Password.Argon2.KeyLength,
		},
		AttemptWindow:          e.tracker.Window(),
		ChallengeThreshold:     e.config.Login.ChallengeThreshold,
		RecordOnlyFailures:     e.config.Login.RecordOnlyFailures,
		ChallengeTTL:           e.config.Challenge.TTL,
		RefreshRotationEnabled: e.config.Refresh.RotateOnRefresh,
		SharedAttemptStore:     !inMemory,
		AuditEnabled:           e.audit != nil,
		LintWarnings:           lint.Codes(),
	}
}
