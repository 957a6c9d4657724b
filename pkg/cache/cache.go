// Package cache stores pipeline artifacts keyed by content hashes.
//
// The pipeline caches the decoded form of each layout it loads (keyed by
// the SHA-256 of the input bytes) and the SVG or DOT artifacts it renders
// from it. Backends:
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for several viewers
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: stores nothing, for tests and --no-cache
//
// Keys are built by a [Keyer] so that every backend sees the same layout.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
//
// Get reports a miss with ok == false and a nil error; errors are reserved
// for backend failures. A ttl of zero stores the entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Entry lifetimes used by the pipeline.
const (
	// TTLLibrary bounds how long a decoded library stays cached. The key is
	// a content hash so entries never go stale; the TTL only caps disk use.
	TTLLibrary = 7 * 24 * time.Hour

	// TTLArtifact bounds rendered SVG and DOT output.
	TTLArtifact = 24 * time.Hour
)
