// Package cache stores encoded feed pages in Redis or in process memory.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Store.Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// DefaultTTL is how long a ranked page stays cached.
const DefaultTTL = time.Hour

// Store is a key/value backend with per-write TTL.
// Set always overwrites.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NopStore never holds anything. It is used when caching is disabled.
type NopStore struct{}

// Get implements Store.
func (NopStore) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

// Set implements Store.
func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }
