package stores

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("expiring store unavailable")
	// ErrNotInteger is returned by Incr when the stored value is not a counter.
	ErrNotInteger = errors.New("expiring store value is not an integer")
)

// Store is a string key/value capability where every entry carries an
// absolute expiry. Expired entries are invisible to every operation.
type Store interface {
	// Get returns the live value for key.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set replaces key with value, expiring after ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Incr increments the counter at key. A missing key is created at 1 with
	// expiry ttl; an existing key keeps its original expiry.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	// Take atomically returns and deletes key.
	Take(ctx context.Context, key string) (string, bool, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Clock returns the current time. Tests inject fakes.
type Clock func() time.Time
