// Package cache stores solver results, layouts and rendered output.
//
// Entries are opaque byte slices addressed by string keys. A [Keyer] derives
// keys from a document hash plus the options that influence the output, so
// the same document solved or laid out with the same options is served from
// the cache.
//
// Backends:
//   - [FileCache]: one file per entry, for the CLI
//   - [RedisCache]: shared cache for the API server
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// A missing or expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default lifetimes per entry type. Solutions depend on an external service
// and expire sooner than the pure layout and diagram computations.
const (
	TTLSolution = 24 * time.Hour
	TTLLayout   = 7 * 24 * time.Hour
	TTLDiagram  = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Key types reported to observability hooks.
const (
	KeyTypeSolution = "solution"
	KeyTypeLayout   = "layout"
	KeyTypeDiagram  = "diagram"
	KeyTypeArtifact = "artifact"
)
