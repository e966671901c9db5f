package rate

import "errors"

var (
	// ErrEmptyKey is returned when a tracker operation receives no client key.
	ErrEmptyKey = errors.New("rate: empty client key")
	// ErrStoreUnavailable wraps failures of the backing expiring store.
	ErrStoreUnavailable = errors.New("rate: attempt store unavailable")
)
