// Package cache wraps the Redis client behind the narrow interface the
// resilience layer guards.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks

// ErrMiss is returned by Get when the key is absent. A miss is a domain
// result, not a dependency failure, and must not count against the cache
// circuit breaker.
var ErrMiss = errors.New("cache miss")

// Cache defines the cache operations the data accessor and health
// aggregator need.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Ping(ctx context.Context) error
}

type redisCache struct {
	client *redis.Client
}

// New creates a cache backed by the given Redis client.
func New(client *redis.Client) Cache {
	return &redisCache{
		client: client,
	}
}

// Get returns the value stored under key, or ErrMiss when absent.
func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("%w: %s", ErrMiss, key)
		}
		return "", fmt.Errorf("failed to get cache key: %w", err)
	}

	return value, nil
}

// Set stores value under key with the given expiry.
func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache key: %w", err)
	}

	return nil
}

// Ping checks cache connectivity with a bounded probe.
func (c *redisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return c.client.Ping(ctx).Err()
}
