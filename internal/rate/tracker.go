package rate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Code4Bharat1/VMS-BACKEND/internal/stores"
)

const (
	// DefaultWindow is how long an attempt burst is remembered.
	DefaultWindow = 15 * time.Minute
	// DefaultChallengeThreshold is the attempt count from which a challenge is required.
	DefaultChallengeThreshold = 3
)

// Config holds tracker tuning parameters.
type Config struct {
	Window             time.Duration
	ChallengeThreshold int
}

// Tracker counts login attempts per client key on an expiring store.
type Tracker struct {
	store  stores.Store
	config Config
}

// NewTracker creates a Tracker. Zero config fields take the defaults.
func NewTracker(store stores.Store, cfg Config) *Tracker {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.ChallengeThreshold <= 0 {
		cfg.ChallengeThreshold = DefaultChallengeThreshold
	}
	return &Tracker{
		store:  store,
		config: cfg,
	}
}

// Record increments the counter for clientKey, creating it at 1 when absent,
// and returns the new count.
func (t *Tracker) Record(ctx context.Context, clientKey string) (int, error) {
	if clientKey == "" {
		return 0, ErrEmptyKey
	}
	n, err := t.store.Incr(ctx, attemptKey(clientKey), t.config.Window)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return int(n), nil
}

// Count returns the current count without mutating it. Missing keys count as zero.
func (t *Tracker) Count(ctx context.Context, clientKey string) (int, error) {
	if clientKey == "" {
		return 0, ErrEmptyKey
	}
	v, ok, err := t.store.Get(ctx, attemptKey(clientKey))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// Clear removes the counter for clientKey.
func (t *Tracker) Clear(ctx context.Context, clientKey string) error {
	if clientKey == "" {
		return ErrEmptyKey
	}
	if err := t.store.Delete(ctx, attemptKey(clientKey)); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// ChallengeRequired reports whether attempts has reached the challenge threshold.
func (t *Tracker) ChallengeRequired(attempts int) bool {
	return attempts >= t.config.ChallengeThreshold
}

// Window returns the configured tracking window.
func (t *Tracker) Window() time.Duration {
	return t.config.Window
}

func attemptKey(clientKey string) string {
	return "attempts:" + clientKey
}
