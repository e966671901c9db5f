package vms

import (
	"errors"
	"strings"
	"time"

	"github.com/Code4Bharat1/VMS-BACKEND/password"
)

// Config is the engine configuration. Build clones it, so later changes to
// the caller's copy have no effect.
type Config struct {
	JWT       JWTConfig       `yaml:"jwt"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Password  PasswordConfig  `yaml:"password"`
	Login     LoginConfig     `yaml:"login"`
	Challenge ChallengeConfig `yaml:"challenge"`
	Store     StoreConfig     `yaml:"store"`
	Audit     AuditConfig     `yaml:"audit"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures both token kinds. With hs256 the two secrets must be
// distinct and at least 32 bytes; with ed25519 each kind has its own key pair.
type JWTConfig struct {
	SigningMethod     string        `yaml:"signing_method"` // "hs256" (default) or "ed25519"
	AccessSecret      string        `yaml:"access_secret"`
	RefreshSecret     string        `yaml:"refresh_secret"`
	AccessPrivateKey  []byte        `yaml:"-"`
	AccessPublicKey   []byte        `yaml:"-"`
	RefreshPrivateKey []byte        `yaml:"-"`
	RefreshPublicKey  []byte        `yaml:"-"`
	AccessTTL         time.Duration `yaml:"access_ttl"`
	RefreshTTL        time.Duration `yaml:"refresh_ttl"`
	Issuer            string        `yaml:"issuer"`
	Audience          string        `yaml:"audience"`
	Leeway            time.Duration `yaml:"leeway"`
	// MaxClockSkew rejects access tokens issued further in the future on
	// Authenticate. Negative disables the check.
	MaxClockSkew time.Duration `yaml:"max_clock_skew"`
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig controls the refresh flow.
type RefreshConfig struct {
	// RotateOnRefresh issues and binds a new refresh token on every refresh.
	RotateOnRefresh bool `yaml:"rotate_on_refresh"`
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the digest used for new passwords. Digests of the
// other supported algorithm still verify.
type PasswordConfig struct {
	Algorithm  string          `yaml:"algorithm"` // "bcrypt" (default) or "argon2id"
	BcryptCost int             `yaml:"bcrypt_cost"`
	Argon2     password.Config `yaml:"argon2"`
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig controls attempt tracking.
type LoginConfig struct {
	AttemptWindow      time.Duration `yaml:"attempt_window"`
	ChallengeThreshold int           `yaml:"challenge_threshold"`
	// RecordOnlyFailures counts only failed attempts instead of every call
	// that reaches an existing account.
	RecordOnlyFailures bool `yaml:"record_only_failures"`
}

/*
====================================
CHALLENGE CONFIG
====================================
*/

// ChallengeConfig controls image challenges.
type ChallengeConfig struct {
	Length int           `yaml:"length"`
	TTL    time.Duration `yaml:"ttl"`
	Width  int           `yaml:"width"`
	Height int           `yaml:"height"`
	Noise  int           `yaml:"noise"`
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig configures the expiring key/value store behind attempts and
// challenges.
type StoreConfig struct {
	RedisPrefix string `yaml:"redis_prefix"`
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"buffer_size"`
	DropIfFull bool `yaml:"drop_if_full"`
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool `yaml:"enabled"`
	EnableLatencyHistograms bool `yaml:"enable_latency_histograms"`
}

// DefaultConfig returns the configuration the engine starts from. Secrets
// are empty and must be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: "hs256",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			Issuer:        "vms",
			MaxClockSkew:  30 * time.Second,
		},
		Password: PasswordConfig{
			Algorithm:  password.AlgorithmBcrypt,
			BcryptCost: password.DefaultBcryptCost,
			Argon2:     password.DefaultArgon2Config(),
		},
		Login: LoginConfig{
			AttemptWindow:      15 * time.Minute,
			ChallengeThreshold: 3,
		},
		Challenge: ChallengeConfig{
			Length: 5,
			TTL:    2 * time.Minute,
			Width:  150,
			Height: 50,
			Noise:  2,
		},
		Store: StoreConfig{
			RedisPrefix: "vms",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessPrivateKey = cloneBytes(cfg.JWT.AccessPrivateKey)
	out.JWT.AccessPublicKey = cloneBytes(cfg.JWT.AccessPublicKey)
	out.JWT.RefreshPrivateKey = cloneBytes(cfg.JWT.RefreshPrivateKey)
	out.JWT.RefreshPublicKey = cloneBytes(cfg.JWT.RefreshPublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	switch strings.ToLower(c.JWT.SigningMethod) {
	case "hs256":
		if len(c.JWT.AccessSecret) < 32 || len(c.JWT.RefreshSecret) < 32 {
			return errors.New("hs256 requires AccessSecret and RefreshSecret of at least 32 bytes")
		}
		if c.JWT.AccessSecret == c.JWT.RefreshSecret {
			return errors.New("AccessSecret and RefreshSecret must differ")
		}
	case "ed25519":
		if len(c.JWT.AccessPrivateKey) == 0 || len(c.JWT.RefreshPrivateKey) == 0 {
			return errors.New("ed25519 requires AccessPrivateKey and RefreshPrivateKey")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}

	// Password
	switch strings.ToLower(c.Password.Algorithm) {
	case password.AlgorithmBcrypt, password.AlgorithmArgon2id:
	default:
		return errors.New("Password Algorithm must be 'bcrypt' or 'argon2id'")
	}
	if c.Password.BcryptCost != 0 && (c.Password.BcryptCost < 4 || c.Password.BcryptCost > 31) {
		return errors.New("Password BcryptCost must be between 4 and 31")
	}

	// Login
	if c.Login.AttemptWindow <= 0 {
		return errors.New("Login AttemptWindow must be > 0")
	}
	if c.Login.ChallengeThreshold < 1 {
		return errors.New("Login ChallengeThreshold must be >= 1")
	}

	// Challenge
	if c.Challenge.Length < 4 || c.Challenge.Length > 10 {
		return errors.New("Challenge Length must be between 4 and 10")
	}
	if c.Challenge.TTL <= 0 {
		return errors.New("Challenge TTL must be > 0")
	}
	if c.Challenge.Width <= 0 || c.Challenge.Height <= 0 {
		return errors.New("Challenge Width and Height must be > 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return errors.New("Metrics EnableLatencyHistograms requires Metrics Enabled")
	}

	return nil
}
