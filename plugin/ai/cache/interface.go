// Package cache provides an in-process TTL cache used for embedding
// memoisation and in-memory session histories.
package cache

import (
	"context"
	"time"
)

// CacheService defines the cache service interface.
type CacheService[V any] interface {
	// Get retrieves a value from cache.
	Get(ctx context.Context, key string) (V, bool)

	// Set stores a value in cache. A non-positive ttl uses the default.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Invalidate removes entries. Supports a trailing wildcard (session:*).
	Invalidate(ctx context.Context, pattern string) error
}
