package shared

import (
	"context"
	"time"
)

// IdempotencyStore records keys of operations that must not run twice at once,
// such as pushing a local order to the commerce platform.
type IdempotencyStore interface {
	// MarkProcessed claims key with a TTL.
	// Returns true and an owner token if the key was newly claimed, false if
	// it is already held.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (string, bool, error)

	// IsProcessed checks if key is currently held
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops the claim on key only while token still owns it, so a
	// holder that outlived its TTL cannot drop a later holder's claim.
	Release(ctx context.Context, key, token string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL bounds how long a claim survives a crashed holder.
	// Default: 2 minutes
	TTL time.Duration

	// Enabled determines whether claims are taken at all
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     2 * time.Minute,
		Enabled: true,
	}
}
