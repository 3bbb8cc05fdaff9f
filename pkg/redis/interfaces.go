package redis

import (
	"context"
	"time"
)

// Client is the small slice of Redis the daemon uses: the settings
// document, the countdown mirror, and health pings.
type Client interface {
	// Set sets a key to a value with an optional TTL (0 means no expiry)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get gets the value of a key. Returns ErrNotFound when the key
	// does not exist.
	Get(ctx context.Context, key string) (string, error)

	// Ping checks the connection to Redis
	Ping(ctx context.Context) error

	// Close closes the Redis connection
	Close() error
}
