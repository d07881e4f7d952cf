// Package redisstore holds the Redis-backed rate limit counters and the
// idempotency response cache.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// RateLimitStore counts hits per key in fixed windows.
type RateLimitStore struct {
	client *redis.Client
	prefix string
}

func NewRateLimitStore(client *redis.Client) *RateLimitStore {
	return &RateLimitStore{client: client, prefix: "ratelimit:"}
}

// Hit increments the counter for key and returns the count within the
// current window. The window starts at the first hit; a counter that somehow
// lost its TTL gets one on the next hit.
func (s *RateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	k := s.prefix + key
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to count hit: %w", err)
	}
	return incr.Val(), nil
}

// IdempotencyStore caches finished responses under already-hashed keys.
type IdempotencyStore struct {
	client *redis.Client
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// Set keeps the first response stored under key.
func (s *IdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return s.client.SetNX(ctx, key, value, ttl).Err()
}
