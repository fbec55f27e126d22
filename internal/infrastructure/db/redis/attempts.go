package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	attemptKeyPrefix   = "rl:login:"
	defaultMaxAttempts = 5
	defaultWindow      = time.Minute
)

// AttemptLimiter counts login attempts per key in a fixed window.
// Key format: rl:login:<key>
type AttemptLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

// NewAttemptLimiter allows max attempts per window. Non-positive values fall
// back to 5 per minute.
func NewAttemptLimiter(client *redis.Client, max int, window time.Duration) *AttemptLimiter {
	if max <= 0 {
		max = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &AttemptLimiter{client: client, max: int64(max), window: window}
}

// Allow records one attempt for key and reports whether it is within the
// limit. On a Redis failure it allows the attempt and returns the error so
// the caller can log it.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := attemptKeyPrefix + key

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return true, fmt.Errorf("attempt limiter: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return true, fmt.Errorf("attempt limiter: %w", err)
		}
	}
	return n <= l.max, nil
}

// Reset forgets the attempts recorded for key.
func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, attemptKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("attempt limiter reset: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (l *AttemptLimiter) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
