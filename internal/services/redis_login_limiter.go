package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const loginLimiterPrefix = "login:failures:"

// RedisLoginLimiter keeps failed login counters in Redis. Each counter
// expires one window after the first failure that created it.
type RedisLoginLimiter struct {
	client *redis.Client
	config RateLimitConfig
}

// NewRedisLoginLimiter creates a Redis backed login limiter
func NewRedisLoginLimiter(client *redis.Client, config RateLimitConfig) *RedisLoginLimiter {
	return &RedisLoginLimiter{
		client: client,
		config: config,
	}
}

func limiterKey(identifierType, identifier string) string {
	return loginLimiterPrefix + identifierType + ":" + identifier
}

// Check implements LoginLimiter
func (l *RedisLoginLimiter) Check(ctx context.Context, email, ip string) error {
	if email = normalizeEmail(email); email != "" {
		limited, retryAfter, err := l.exceeded(ctx, limiterKey("email", email), l.config.MaxEmailAttempts)
		if err != nil {
			return fmt.Errorf("failed to check email rate limit: %w", err)
		}
		if limited {
			return emailLimitError(retryAfter)
		}
	}

	if ip != "" {
		limited, retryAfter, err := l.exceeded(ctx, limiterKey("ip", ip), l.config.MaxIPAttempts)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}
		if limited {
			return ipLimitError(retryAfter)
		}
	}

	return nil
}

func (l *RedisLoginLimiter) exceeded(ctx context.Context, key string, max int) (bool, time.Time, error) {
	count, err := l.client.Get(ctx, key).Int()
	if err == redis.Nil {
		return false, time.Time{}, nil
	}
	if err != nil {
		return false, time.Time{}, err
	}
	if count < max {
		return false, time.Time{}, nil
	}

	ttl, err := l.client.TTL(ctx, key).Result()
	if err != nil {
		return false, time.Time{}, err
	}
	if ttl < 0 {
		ttl = 0
	}
	return true, time.Now().Add(ttl), nil
}

// RecordFailure implements LoginLimiter
func (l *RedisLoginLimiter) RecordFailure(ctx context.Context, email, ip string) error {
	if email = normalizeEmail(email); email != "" {
		if err := l.increment(ctx, limiterKey("email", email), l.config.EmailWindow); err != nil {
			return fmt.Errorf("failed to record email attempt: %w", err)
		}
	}

	if ip != "" {
		if err := l.increment(ctx, limiterKey("ip", ip), l.config.IPWindow); err != nil {
			return fmt.Errorf("failed to record IP attempt: %w", err)
		}
	}

	return nil
}

func (l *RedisLoginLimiter) increment(ctx context.Context, key string, window time.Duration) error {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return l.client.Expire(ctx, key, window).Err()
	}
	return nil
}

// Reset implements LoginLimiter
func (l *RedisLoginLimiter) Reset(ctx context.Context, email string) error {
	if err := l.client.Del(ctx, limiterKey("email", normalizeEmail(email))).Err(); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}
