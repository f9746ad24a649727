// Package cache stores source image measurements between runs.
//
// Measuring a scan means opening the file (and, for formats Go cannot
// decode, starting ImageMagick). Re-imposing the same zine with different
// paper settings is common, so measurements are cached by file identity:
// path, size and modification time. Editing a scan changes its identity and
// therefore its key.
//
// Backends:
//
//   - [FileCache]: JSON entries under the user cache directory (CLI default).
//   - [RedisCache]: shared cache for several machines (ZINEFOLD_REDIS_URL).
//   - [NullCache]: caching disabled (--no-cache).
package cache

import (
	"context"
	"time"
)

// TTLMeasure is how long an image measurement stays valid.
const TTLMeasure = 30 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// NullCache never stores anything. It backs --no-cache.
type NullCache struct{}

// NewNullCache returns a cache that always misses.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error                     { return nil }
func (*NullCache) Close() error                                             { return nil }

var _ Cache = (*NullCache)(nil)
