package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheUnavailable is returned when the backing store cannot be reached.
var ErrCacheUnavailable = errors.New("cache unavailable")

// Cache interface defines the contract for the key/value layer used by the
// session store. Implementations: Redis (production), in-memory (tests).
type Cache interface {
	// Get reads a key and unmarshals into dest
	// Returns: (found bool, error)
	// - found = true: hit, dest populated
	// - found = false: miss, dest untouched
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set stores value with TTL (0 = no expiry)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes keys
	Delete(ctx context.Context, keys ...string) error

	// Ping checks the connection
	Ping(ctx context.Context) error

	Exists(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
