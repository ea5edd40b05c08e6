// Package cache memoizes data dictionary lookups. A Connector wraps any
// catalog.Connector and stores its answers in a memory or Redis backend so
// repeated runs against a slow dictionary skip the round trips.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache defines the interface for all cache backends
type Cache interface {
	// Get retrieves a value from the cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache
	Clear(ctx context.Context) error

	// Close releases the backend
	Close() error
}

// Config holds common configuration for cache backends
type Config struct {
	// TTL is the time-to-live for cached entries. Zero uses the default,
	// a negative value keeps entries until cleared.
	TTL time.Duration
	// Prefix is prepended to all cache keys
	Prefix string
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() Config {
	return Config{
		TTL:    10 * time.Minute,
		Prefix: "dictgen:",
	}
}

func (c Config) ttl(ttl time.Duration) time.Duration {
	if ttl == 0 {
		ttl = c.TTL
	}
	if ttl == 0 {
		ttl = DefaultConfig().TTL
	}
	return ttl
}

// ErrCacheMiss is returned when a key is not found in the cache
type ErrCacheMiss struct {
	Key string
}

func (e ErrCacheMiss) Error() string {
	return "cache miss: " + e.Key
}

// IsCacheMiss checks if an error is a cache miss
func IsCacheMiss(err error) bool {
	var miss ErrCacheMiss
	return errors.As(err, &miss)
}
