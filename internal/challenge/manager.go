package challenge

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Code4Bharat1/VMS-BACKEND/internal"
	"github.com/Code4Bharat1/VMS-BACKEND/internal/stores"
	"github.com/google/uuid"
)

const (
	DefaultLength = 5
	DefaultTTL    = 2 * time.Minute

	// Confusable characters never appear in answers.
	Confusable = "0oO1ilI"

	baseAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Alphabet is the set answers are drawn from.
var Alphabet = internal.StripRunes(baseAlphabet, Confusable)

var ErrStoreUnavailable = errors.New("challenge: store unavailable")

// Renderer turns an answer into a client-displayable image.
type Renderer interface {
	Render(answer string) (string, error)
}

// Config holds challenge parameters.
type Config struct {
	Length int
	TTL    time.Duration
	// Now computes ExpiresAt. It must be the clock the store expires
	// entries with. Defaults to time.Now.
	Now func() time.Time
}

// Challenge is what the client receives. The answer never leaves the server.
type Challenge struct {
	ID        string
	Image     string
	ExpiresAt time.Time
}

// Manager issues challenges and verifies them at most once.
type Manager struct {
	store    stores.Store
	renderer Renderer
	config   Config
	now      func() time.Time
}

// NewManager creates a Manager. Zero config fields take the defaults.
func NewManager(store stores.Store, renderer Renderer, cfg Config) *Manager {
	if cfg.Length <= 0 {
		cfg.Length = DefaultLength
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		store:    store,
		renderer: renderer,
		config:   cfg,
		now:      now,
	}
}

// Issue generates a fresh answer, renders it and stores the lower-cased
// answer under a random id until the TTL elapses.
func (m *Manager) Issue(ctx context.Context) (Challenge, error) {
	answer, err := internal.RandomString(Alphabet, m.config.Length)
	if err != nil {
		return Challenge{}, err
	}

	image, err := m.renderer.Render(answer)
	if err != nil {
		return Challenge{}, fmt.Errorf("challenge: render: %w", err)
	}

	id := uuid.NewString()
	if err := m.store.Set(ctx, challengeKey(id), strings.ToLower(answer), m.config.TTL); err != nil {
		return Challenge{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return Challenge{
		ID:        id,
		Image:     image,
		ExpiresAt: m.now().Add(m.config.TTL),
	}, nil
}

// Verify consumes the challenge id whatever the outcome and reports whether
// answer matched case-insensitively. Unknown, expired and already consumed
// ids all report false.
func (m *Manager) Verify(ctx context.Context, id, answer string) (bool, error) {
	if id == "" {
		return false, nil
	}

	expected, ok, err := m.store.Take(ctx, challengeKey(id))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return false, nil
	}

	got := strings.ToLower(answer)
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1, nil
}

func challengeKey(id string) string {
	return "challenge:" + id
}
