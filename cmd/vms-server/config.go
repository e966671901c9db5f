package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	vms "github.com/Code4Bharat1/VMS-BACKEND"
	"github.com/Code4Bharat1/VMS-BACKEND/httpapi"
	"gopkg.in/yaml.v3"
)

// Config is the process configuration. Values come from defaults, then the
// optional YAML file, then VMS_* environment variables.
type Config struct {
	Addr            string        `yaml:"addr"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// RedisAddr enables the shared attempt and challenge store. Empty keeps
	// both in process memory, swept on SweepSchedule.
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	SweepSchedule string `yaml:"sweep_schedule"`

	// DatabaseURL selects the Postgres account store. Empty uses memory.
	DatabaseURL string `yaml:"database_url"`

	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Engine    vms.Config      `yaml:"engine"`
	HTTP      httpapi.Config  `yaml:"http"`
}

// BootstrapConfig seeds the first admin account when Email is set.
type BootstrapConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

func defaultConfig() Config {
	return Config{
		Addr:            ":5000",
		LogLevel:        "info",
		ShutdownTimeout: 10 * time.Second,
		SweepSchedule:   "@every 1m",
		Engine:          vms.DefaultConfig(),
		HTTP:            httpapi.DefaultConfig(),
	}
}

func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = getEnv("VMS_ADDR", cfg.Addr)
	cfg.LogLevel = getEnv("VMS_LOG_LEVEL", cfg.LogLevel)
	cfg.ShutdownTimeout = getEnvDuration("VMS_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)

	cfg.RedisAddr = getEnv("VMS_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("VMS_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("VMS_REDIS_DB", cfg.RedisDB)
	cfg.SweepSchedule = getEnv("VMS_SWEEP_SCHEDULE", cfg.SweepSchedule)
	cfg.DatabaseURL = getEnv("VMS_DATABASE_URL", cfg.DatabaseURL)

	cfg.Bootstrap.Name = getEnv("VMS_BOOTSTRAP_NAME", cfg.Bootstrap.Name)
	cfg.Bootstrap.Email = getEnv("VMS_BOOTSTRAP_EMAIL", cfg.Bootstrap.Email)
	cfg.Bootstrap.Password = getEnv("VMS_BOOTSTRAP_PASSWORD", cfg.Bootstrap.Password)

	cfg.Engine.JWT.AccessSecret = getEnv("VMS_ACCESS_SECRET", cfg.Engine.JWT.AccessSecret)
	cfg.Engine.JWT.RefreshSecret = getEnv("VMS_REFRESH_SECRET", cfg.Engine.JWT.RefreshSecret)
	cfg.Engine.JWT.AccessTTL = getEnvDuration("VMS_ACCESS_TTL", cfg.Engine.JWT.AccessTTL)
	cfg.Engine.JWT.RefreshTTL = getEnvDuration("VMS_REFRESH_TTL", cfg.Engine.JWT.RefreshTTL)
	cfg.Engine.Refresh.RotateOnRefresh = getEnvBool("VMS_ROTATE_REFRESH", cfg.Engine.Refresh.RotateOnRefresh)
	cfg.Engine.Password.BcryptCost = getEnvInt("VMS_BCRYPT_COST", cfg.Engine.Password.BcryptCost)
	cfg.Engine.Audit.Enabled = getEnvBool("VMS_AUDIT_ENABLED", cfg.Engine.Audit.Enabled)

	cfg.HTTP.CookieSecure = getEnvBool("VMS_COOKIE_SECURE", cfg.HTTP.CookieSecure)
	cfg.HTTP.CookieDomain = getEnv("VMS_COOKIE_DOMAIN", cfg.HTTP.CookieDomain)
	cfg.HTTP.TrustedProxies = getEnvInt("VMS_TRUSTED_PROXIES", cfg.HTTP.TrustedProxies)
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be > 0")
	}
	if c.RedisAddr == "" && strings.TrimSpace(c.SweepSchedule) == "" {
		return errors.New("sweep_schedule is required without redis")
	}
	if (c.Bootstrap.Email == "") != (c.Bootstrap.Password == "") {
		return errors.New("bootstrap email and password must be set together")
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return c.HTTP.Validate()
}

// getEnv returns an environment variable or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
