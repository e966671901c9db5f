package vms

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigNeedsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected default config without secrets to fail")
	}

	cfg = testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected test config valid, got %v", err)
	}
}

func TestConfigValidateEnums(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
	}{
		{
			name: "jwt leeway valid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 45 * time.Second
			},
			wantValid: true,
		},
		{
			name: "jwt leeway invalid",
			mutate: func(c *Config) {
				c.JWT.Leeway = 3 * time.Minute
			},
			wantValid: false,
		},
		{
			name: "jwt signing upper case valid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "HS256"
			},
			wantValid: true,
		},
		{
			name: "jwt signing invalid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "rs256"
			},
			wantValid: false,
		},
		{
			name: "hs256 short secret invalid",
			mutate: func(c *Config) {
				c.JWT.AccessSecret = "short"
			},
			wantValid: false,
		},
		{
			name: "hs256 shared secret invalid",
			mutate: func(c *Config) {
				c.JWT.RefreshSecret = c.JWT.AccessSecret
			},
			wantValid: false,
		},
		{
			name: "ed25519 without keys invalid",
			mutate: func(c *Config) {
				c.JWT.SigningMethod = "ed25519"
			},
			wantValid: false,
		},
		{
			name: "refresh shorter than access invalid",
			mutate: func(c *Config) {
				c.JWT.RefreshTTL = time.Minute
			},
			wantValid: false,
		},
		{
			name: "password argon2id valid",
			mutate: func(c *Config) {
				c.Password.Algorithm = "argon2id"
			},
			wantValid: true,
		},
		{
			name: "password algorithm invalid",
			mutate: func(c *Config) {
				c.Password.Algorithm = "md5"
			},
			wantValid: false,
		},
		{
			name: "bcrypt cost out of range",
			mutate: func(c *Config) {
				c.Password.BcryptCost = 40
			},
			wantValid: false,
		},
		{
			name: "attempt window zero invalid",
			mutate: func(c *Config) {
				c.Login.AttemptWindow = 0
			},
			wantValid: false,
		},
		{
			name: "challenge threshold zero invalid",
			mutate: func(c *Config) {
				c.Login.ChallengeThreshold = 0
			},
			wantValid: false,
		},
		{
			name: "challenge length too short",
			mutate: func(c *Config) {
				c.Challenge.Length = 2
			},
			wantValid: false,
		},
		{
			name: "challenge image size invalid",
			mutate: func(c *Config) {
				c.Challenge.Width = 0
			},
			wantValid: false,
		},
		{
			name: "audit enabled needs buffer",
			mutate: func(c *Config) {
				c.Audit.Enabled = true
				c.Audit.BufferSize = 0
			},
			wantValid: false,
		},
		{
			name: "latency histograms need metrics",
			mutate: func(c *Config) {
				c.Metrics.Enabled = false
				c.Metrics.EnableLatencyHistograms = true
			},
			wantValid: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid && err != nil {
				t.Fatalf("expected valid config, got %v", err)
			}
			if !tc.wantValid && err == nil {
				t.Fatal("expected invalid config")
			}
		})
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Login.ChallengeThreshold = 0

	_, err := New().WithConfig(cfg).WithAccountStore(newHarness(t).accounts).Build()
	if err == nil || !strings.Contains(err.Error(), "ChallengeThreshold") {
		t.Fatalf("expected threshold error, got %v", err)
	}
}

func TestBuildClonesConfig(t *testing.T) {
	cfg := testConfig()
	b := New().WithConfig(cfg).WithAccountStore(newHarness(t).accounts)
	cfg.Login.ChallengeThreshold = 99

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer engine.Close()
	if engine.SecurityReport().ChallengeThreshold != 3 {
		t.Fatal("engine must not observe later config changes")
	}
}
