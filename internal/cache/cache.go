// Package cache provides TTL caching for forecasts, analytics summaries,
// and contextual lookups, with in-memory and Redis backends.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is the storage-agnostic caching surface. Values are opaque bytes;
// callers marshal their own types.
type Cache interface {
	// Get returns the cached value and whether it was present and fresh.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value under the key for the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a single key.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key under the prefix. Used to mark a whole
	// family of derived results stale after new journal data arrives.
	DeletePrefix(ctx context.Context, prefix string) error
	// Stats reports cache effectiveness counters.
	Stats() StatsData
	// Close releases backend resources.
	Close() error
}

// StatsData provides cache performance statistics.
type StatsData struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Sets        int64     `json:"sets"`
	Deletes     int64     `json:"deletes"`
	Evictions   int64     `json:"evictions"`
	Items       int       `json:"items"`
	HitRate     float64   `json:"hit_rate"`
	LastCleanup time.Time `json:"last_cleanup"`
}

// Key joins key parts with the cache namespace separator.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. Compute errors are returned without caching; set failures are
// swallowed because the cache is best effort.
func GetOrCompute(ctx context.Context, c Cache, key string, ttl time.Duration, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	if value, ok, err := c.Get(ctx, key); err == nil && ok {
		return value, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	_ = c.Set(ctx, key, value, ttl)
	return value, nil
}
