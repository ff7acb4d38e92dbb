// Package cache provides the byte-level caching layer used by the knowledge
// base adapters and the report store.
//
// Three backends implement [Cache]:
//   - [NullCache] never stores anything (--no-cache)
//   - [FileCache] stores entries under the user cache directory (CLI default)
//   - [RedisCache] stores entries in Redis (API server)
//
// Keys are produced by a [Keyer] so that every backend agrees on the layout of
// the key space. [ScopedKeyer] prefixes keys for per-index isolation.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte payloads with an optional time-to-live.
//
// Get reports a miss with (nil, false, nil); an error means the backend itself
// failed. A zero ttl passed to Set means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// NullCache misses on every lookup. Knowledge base adapters fall back to it
// when no cache is configured, and --no-cache selects it explicitly.
type NullCache struct{}

// NewNullCache returns a cache that stores nothing.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)         { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

var _ Cache = NullCache{}
