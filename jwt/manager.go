package jwt

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SigningMethod selects the signature algorithm for both token kinds.
type SigningMethod string

const (
	MethodHS256   SigningMethod = "hs256"
	MethodEd25519 SigningMethod = "ed25519"
)

// TokenType distinguishes access from refresh tokens inside the claims.
type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"
)

var (
	ErrExpired          = errors.New("jwt: token expired")
	ErrMalformed        = errors.New("jwt: token malformed")
	ErrSignatureInvalid = errors.New("jwt: signature invalid")
	ErrWrongType        = errors.New("jwt: wrong token type")
	ErrInvalid          = errors.New("jwt: token invalid")
	ErrIssuedInFuture   = errors.New("jwt: token issued in the future")
)

// Keys holds the key material for one token kind. For HS256 only Secret is
// used; for Ed25519 PrivateKey signs and PublicKey verifies. Raw keys and PEM
// are both accepted.
type Keys struct {
	Secret     []byte
	PrivateKey []byte
	PublicKey  []byte
}

// Config configures the Manager. Access and refresh tokens must be signed
// with different key material.
type Config struct {
	SigningMethod SigningMethod
	AccessKeys    Keys
	RefreshKeys   Keys
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
	Leeway        time.Duration
	// MaxFutureIAT bounds how far in the future iat may lie. Zero means 10m.
	MaxFutureIAT time.Duration
	// Now overrides the clock used for issuing and validating. Nil means time.Now.
	Now func() time.Time
}

// Claims is the claim set of both token kinds. Subject carries the account id.
type Claims struct {
	Role string    `json:"role,omitempty"`
	Type TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// AccountID returns the subject claim.
func (c *Claims) AccountID() string {
	return c.Subject
}

type signer struct {
	sign   any
	verify any
}

// Manager issues and verifies access and refresh tokens.
type Manager struct {
	config  Config
	method  jwt.SigningMethod
	access  signer
	refresh signer
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("jwt: access and refresh TTL must be positive")
	}
	if cfg.RefreshTTL < cfg.AccessTTL {
		return nil, errors.New("jwt: refresh TTL must not be shorter than access TTL")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("jwt: invalid leeway configuration")
	}
	if cfg.MaxFutureIAT == 0 {
		cfg.MaxFutureIAT = 10 * time.Minute
	}
	if cfg.MaxFutureIAT < 0 || cfg.MaxFutureIAT > 24*time.Hour {
		return nil, errors.New("jwt: invalid MaxFutureIAT configuration")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{config: cfg}
	var err error
	switch cfg.SigningMethod {
	case MethodHS256, "":
		m.config.SigningMethod = MethodHS256
		m.method = jwt.SigningMethodHS256
		if len(cfg.AccessKeys.Secret) < 32 || len(cfg.RefreshKeys.Secret) < 32 {
			return nil, errors.New("jwt: hs256 secrets must be at least 32 bytes")
		}
		if bytes.Equal(cfg.AccessKeys.Secret, cfg.RefreshKeys.Secret) {
			return nil, errors.New("jwt: access and refresh secrets must differ")
		}
		m.access = signer{sign: cfg.AccessKeys.Secret, verify: cfg.AccessKeys.Secret}
		m.refresh = signer{sign: cfg.RefreshKeys.Secret, verify: cfg.RefreshKeys.Secret}
	case MethodEd25519:
		m.method = jwt.SigningMethodEdDSA
		if m.access, err = edSigner(cfg.AccessKeys); err != nil {
			return nil, fmt.Errorf("jwt: access keys: %w", err)
		}
		if m.refresh, err = edSigner(cfg.RefreshKeys); err != nil {
			return nil, fmt.Errorf("jwt: refresh keys: %w", err)
		}
		if bytes.Equal(m.access.verify.(ed25519.PublicKey), m.refresh.verify.(ed25519.PublicKey)) {
			return nil, errors.New("jwt: access and refresh keys must differ")
		}
	default:
		return nil, errors.New("jwt: unsupported signing method")
	}
	return m, nil
}

// IssueAccess mints a short-lived access token carrying the account role.
func (m *Manager) IssueAccess(accountID, role string) (string, error) {
	return m.issue(m.access, TypeAccess, accountID, role, m.config.AccessTTL)
}

// IssueRefresh mints a refresh token. Each token has a unique id, so two
// tokens for the same account are never byte-equal.
func (m *Manager) IssueRefresh(accountID string) (string, error) {
	return m.issue(m.refresh, TypeRefresh, accountID, "", m.config.RefreshTTL)
}

// VerifyAccess validates signature, expiry and type of an access token.
func (m *Manager) VerifyAccess(token string) (*Claims, error) {
	return m.verify(m.access, TypeAccess, token)
}

// VerifyRefresh validates signature, expiry and type of a refresh token.
func (m *Manager) VerifyRefresh(token string) (*Claims, error) {
	return m.verify(m.refresh, TypeRefresh, token)
}

// AccessTTL returns the configured access lifetime.
func (m *Manager) AccessTTL() time.Duration { return m.config.AccessTTL }

// RefreshTTL returns the configured refresh lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.config.RefreshTTL }

// Method returns the configured signing method.
func (m *Manager) Method() SigningMethod { return m.config.SigningMethod }

func (m *Manager) issue(s signer, typ TokenType, accountID, role string, ttl time.Duration) (string, error) {
	if accountID == "" {
		return "", errors.New("jwt: empty account id")
	}
	now := m.config.Now()
	claims := Claims{
		Role: role,
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			ID:        uuid.NewString(),
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if m.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	return jwt.NewWithClaims(m.method, claims).SignedString(s.sign)
}

func (m *Manager) verify(s signer, want TokenType, tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrMalformed
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.config.Now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != m.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return s.verify, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	if claims.Type != want {
		return nil, ErrWrongType
	}
	if claims.Subject == "" {
		return nil, ErrInvalid
	}
	if claims.IssuedAt != nil && claims.IssuedAt.Time.After(m.config.Now().Add(m.config.MaxFutureIAT)) {
		return nil, ErrIssuedInFuture
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	default:
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
}

func edSigner(k Keys) (signer, error) {
	priv, err := parseEdPrivateKey(k.PrivateKey)
	if err != nil {
		return signer{}, err
	}
	pub := priv.Public().(ed25519.PublicKey)
	if len(k.PublicKey) > 0 {
		if pub, err = parseEdPublicKey(k.PublicKey); err != nil {
			return signer{}, err
		}
	}
	return signer{sign: priv, verify: pub}, nil
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 private key")
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("invalid ed25519 private key type")
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
