// Package cache provides the key/value cache used for task listings. Every
// implementation degrades silently: a backend failure reads as a miss and a
// failed write reports false, so callers never fail a request on the cache.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns the value stored at key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value at key for ttl. A non-positive ttl stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) bool

	// Delete removes key. It reports false only on a backend failure.
	Delete(ctx context.Context, key string) bool

	// DeleteByPattern removes every key matching a glob such as "tasks:*".
	DeleteByPattern(ctx context.Context, pattern string) bool
}

// Noop is a Cache that stores nothing. It is used when caching is disabled.
type Noop struct{}

// Ensure Noop implements Cache interface
var _ Cache = Noop{}

// Get always misses.
func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }

// Set discards the value.
func (Noop) Set(context.Context, string, []byte, time.Duration) bool { return true }

// Delete does nothing.
func (Noop) Delete(context.Context, string) bool { return true }

// DeleteByPattern does nothing.
func (Noop) DeleteByPattern(context.Context, string) bool { return true }
