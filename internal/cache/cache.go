// Package cache provides a typed cache-aside store over pluggable byte
// backends (in-memory, memcached, valkey). Entries outlive their fresh TTL by
// a stale retention window so callers can fall back to old data when an
// upstream is down.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Backend stores opaque values with an expiry.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

type envelope[T any] struct {
	Value     T         `json:"value"`
	StoredAt  time.Time `json:"storedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Cache stores values of type T as JSON under a key prefix.
type Cache[T any] struct {
	backend        Backend
	prefix         string
	staleRetention time.Duration
	now            func() time.Time
}

// New returns a Cache writing through backend. staleRetention is how long an
// entry stays readable by GetStale after its TTL; zero disables stale reads.
func New[T any](backend Backend, prefix string, staleRetention time.Duration) *Cache[T] {
	return &Cache[T]{backend: backend, prefix: prefix, staleRetention: staleRetention, now: time.Now}
}

// Get returns the value if present and still fresh.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	env, ok, err := c.load(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	if !c.now().Before(env.ExpiresAt) {
		return zero, false, nil
	}
	return env.Value, true, nil
}

// GetStale returns the value regardless of freshness when it expired no
// more than maxStale ago. storedAt lets callers report the data's age.
func (c *Cache[T]) GetStale(ctx context.Context, key string, maxStale time.Duration) (value T, storedAt time.Time, ok bool, err error) {
	env, ok, err := c.load(ctx, key)
	if err != nil || !ok {
		return value, time.Time{}, false, err
	}
	if c.now().Sub(env.ExpiresAt) > maxStale {
		return value, time.Time{}, false, nil
	}
	return env.Value, env.StoredAt, true, nil
}

// Set stores value as fresh for ttl.
func (c *Cache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	now := c.now()
	raw, err := json.Marshal(envelope[T]{Value: value, StoredAt: now, ExpiresAt: now.Add(ttl)})
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	return c.backend.Set(ctx, c.prefix+key, raw, ttl+c.staleRetention)
}

// Ping checks backend reachability.
func (c *Cache[T]) Ping(ctx context.Context) error {
	return c.backend.Ping(ctx)
}

func (c *Cache[T]) load(ctx context.Context, key string) (envelope[T], bool, error) {
	var env envelope[T]
	raw, ok, err := c.backend.Get(ctx, c.prefix+key)
	if err != nil || !ok {
		return env, false, err
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return env, false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return env, true, nil
}
