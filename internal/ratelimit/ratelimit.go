// Package ratelimit provides the redis-backed counter bounding OTP code
// requests per phone number.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewLimiter(redisURL string, limit int) (*Limiter, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opt.DialTimeout = 5 * time.Second

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Limiter{client: client, limit: limit, window: time.Hour}, nil
}

func (l *Limiter) Close() error {
	return l.client.Close()
}

// Allow counts the request and reports whether the phone is still under the
// hourly limit. The window starts at the first request and expires whole.
func (l *Limiter) Allow(ctx context.Context, phone string) (bool, error) {
	key := "otp_requests:" + phone

	n, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(l.limit), nil
}
