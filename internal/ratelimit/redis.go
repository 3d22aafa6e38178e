package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in Redis so limits hold across instances
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRedis connects to redisURL and returns a limiter
func NewRedis(redisURL string, limit int, window time.Duration) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return NewRedisWithClient(redis.NewClient(opt), limit, window), nil
}

// NewRedisWithClient wraps an existing client
func NewRedisWithClient(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "ratelimit:",
		limit:  int64(limit),
		window: window,
	}
}

// WithLimit returns a limiter sharing this client and window with a different limit.
// Closing either closes the shared client.
func (l *RedisLimiter) WithLimit(limit int) *RedisLimiter {
	c := *l
	c.limit = int64(limit)
	return &c
}

// Allow increments the counter for key and reports whether it is still within the limit
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, l.prefix+key)
	pipe.ExpireNX(ctx, l.prefix+key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("failed to update rate limit counter: %w", err)
	}

	return incr.Val() <= l.limit, nil
}

// Ping checks the connection
func (l *RedisLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (l *RedisLimiter) Close() error {
	return l.client.Close()
}
