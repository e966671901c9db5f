package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// Config controls the refresh cookie and request handling of the HTTP API.
type Config struct {
	CookieName     string        `yaml:"cookie_name"`
	CookiePath     string        `yaml:"cookie_path"`
	CookieDomain   string        `yaml:"cookie_domain"`
	CookieMaxAge   time.Duration `yaml:"cookie_max_age"`
	CookieSecure   bool          `yaml:"cookie_secure"`
	CookieSameSite string        `yaml:"cookie_same_site"`

	// TrustedProxies is the number of reverse proxies in front of the
	// server. The client IP is read that many X-Forwarded-For entries from
	// the right; zero uses the connection address.
	TrustedProxies int `yaml:"trusted_proxies"`

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// DefaultConfig returns the production cookie settings: HTTP-only,
// same-site strict and secure, valid for seven days.
func DefaultConfig() Config {
	return Config{
		CookieName:     "refreshToken",
		CookiePath:     "/",
		CookieMaxAge:   7 * 24 * time.Hour,
		CookieSecure:   true,
		CookieSameSite: "strict",
		MaxBodyBytes:   1 << 20,
	}
}

// Validate rejects settings that would leak or drop the refresh cookie.
func (c Config) Validate() error {
	if strings.TrimSpace(c.CookieName) == "" {
		return errors.New("httpapi: CookieName must not be empty")
	}
	if c.CookieMaxAge <= 0 {
		return errors.New("httpapi: CookieMaxAge must be > 0")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("httpapi: MaxBodyBytes must be > 0")
	}
	if c.TrustedProxies < 0 {
		return errors.New("httpapi: TrustedProxies must be >= 0")
	}
	if _, err := c.sameSite(); err != nil {
		return err
	}
	if c.CookieSameSite == "none" && !c.CookieSecure {
		return errors.New("httpapi: CookieSameSite none requires CookieSecure")
	}
	return nil
}

func (c Config) sameSite() (http.SameSite, error) {
	switch strings.ToLower(c.CookieSameSite) {
	case "", "strict":
		return http.SameSiteStrictMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, errors.New("httpapi: CookieSameSite must be strict, lax or none")
	}
}
