// Package cache provides byte-level caching for the diagram viewer.
//
// The Cache interface has three implementations:
//   - FileCache: one JSON file per entry under a directory (CLI and single-node servers)
//   - RedisCache: shared cache for multi-node servers, backed by go-redis
//   - NullCache: disables caching
//
// Keys are built by a Keyer so that every caller agrees on namespaces.
// Author lists are recomputed on every request and are never cached here;
// only pathway diagram JSON and rendered viewer configs go through this package.
package cache

import (
	"context"
	"time"
)

// Default TTLs per key type.
const (
	// DiagramTTL bounds how long a stored pathway diagram is served from cache.
	DiagramTTL = time.Hour

	// ConfigTTL bounds how long a rendered viewer config is served from cache.
	ConfigTTL = 10 * time.Minute
)

// Cache stores opaque byte values under string keys.
//
// Get reports a miss with (nil, false, nil). Errors are reserved for
// backend failures; callers usually treat them as a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
