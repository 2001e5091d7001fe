// Package ratelimit provides Redis-based rate limiting for API endpoints.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRateLimited is returned when a rate limit is exceeded.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limits defines a fixed-window limit.
type Limits struct {
	Requests int
	Window   time.Duration
}

// DefaultTrackLimits returns the limits applied to track downloads.
func DefaultTrackLimits() Limits {
	return Limits{Requests: 30, Window: time.Minute}
}

// Limiter provides per-IP rate limiting backed by Redis. A nil limiter or
// an unreachable Redis fails open: the request is allowed.
type Limiter struct {
	redis  *redis.Client
	limits Limits
}

func NewLimiter(rdb *redis.Client, limits Limits) *Limiter {
	return &Limiter{redis: rdb, limits: limits}
}

// Allow checks the caller's window. Returns nil when allowed or when the
// backend is unavailable, ErrRateLimited when the window is exhausted.
func (l *Limiter) Allow(ctx context.Context, ip string) error {
	if l == nil || l.redis == nil {
		return nil
	}

	key := fmt.Sprintf("ratelimit:tracks:ip:%s", ip)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		// Fail open for availability.
		return nil
	}
	if count == 1 {
		l.redis.Expire(ctx, key, l.limits.Window)
	}
	if count > int64(l.limits.Requests) {
		return ErrRateLimited
	}
	return nil
}
