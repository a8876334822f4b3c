// Package cache provides the short-TTL query cache collaborator used in
// front of the conversation list assembler. It is constructed once at
// startup and injected; nothing in the application reaches for a process
// global.
//
// The declared policy: entries live for a fixed short TTL (a few seconds,
// long enough to absorb UI polling bursts but short enough that list
// staleness is invisible next to webhook latency), and oversized values are
// skipped rather than stored.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is the minimal contract the query services depend on. Values are
// opaque bytes; callers own serialization.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Redis is a redis-backed Cache with a fixed TTL and a value size bound.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration

	// maxValueBytes skips Set for values larger than this (0 = no bound).
	maxValueBytes int
}

// Option configures a Redis cache.
type Option func(*Redis)

// WithTTL overrides the default entry TTL.
func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithMaxValueBytes bounds the size of cached values.
func WithMaxValueBytes(n int) Option {
	return func(r *Redis) { r.maxValueBytes = n }
}

// NewRedis builds a Cache on top of an existing redis client.
// Defaults: 3s TTL, 256 KiB value bound.
func NewRedis(client *redis.Client, prefix string, opts ...Option) *Redis {
	r := &Redis{
		client:        client,
		prefix:        prefix,
		ttl:           3 * time.Second,
		maxValueBytes: 256 << 10,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

// Get returns the cached value or ErrMiss.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Set stores the value under the configured TTL. Oversized values are
// silently skipped; a cache that refuses an entry is not an error.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if r.maxValueBytes > 0 && len(value) > r.maxValueBytes {
		return nil
	}
	return r.client.Set(ctx, r.key(key), value, r.ttl).Err()
}

// Delete removes a key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Noop is a Cache that stores nothing. Used when no redis address is
// configured; every Get is a miss.
type Noop struct{}

// Get always misses.
func (Noop) Get(context.Context, string) ([]byte, error) { return nil, ErrMiss }

// Set discards the value.
func (Noop) Set(context.Context, string, []byte) error { return nil }

// Delete is a no-op.
func (Noop) Delete(context.Context, string) error { return nil }
