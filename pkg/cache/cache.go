// Package cache provides storage for expensive intermediate pipeline results.
//
// Quantizing an image is the slowest deterministic stage of a run, and its
// output depends only on the source bytes and a handful of options. The
// pipeline stores the quantized raster and palette under a content-derived
// key so repeated renders of the same image (e.g. while tuning speed or
// fuzziness) skip the stage entirely.
//
// # Backends
//
//   - [FileCache]: JSON entries under the XDG cache directory (CLI default)
//   - [RedisCache]: shared cache for several machines rendering the same inputs
//   - [NullCache]: caching disabled (--no-cache)
package cache

import (
	"context"
	"time"
)

// TTLs for cached entries.
const (
	// TTLQuantized is the lifetime of a cached quantization result.
	TTLQuantized = 7 * 24 * time.Hour
)

// Cache stores opaque byte payloads by key.
type Cache interface {
	// Get returns the payload for key. The boolean reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
