package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const loginFailurePrefix = "directory:login_failures:"

// LoginThrottle limits repeated failed logins per email.
type LoginThrottle interface {
	Allow(ctx context.Context, email string) bool
	RecordFailure(ctx context.Context, email string)
	Reset(ctx context.Context, email string)
}

// RedisLoginThrottle counts failures in Redis with a sliding expiry window.
// Redis errors are logged and the login is allowed.
type RedisLoginThrottle struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
	logger      *zap.Logger
}

// NewRedisLoginThrottle constructs the throttle.
func NewRedisLoginThrottle(client *redis.Client, maxAttempts int, window time.Duration, logger *zap.Logger) *RedisLoginThrottle {
	return &RedisLoginThrottle{
		client:      client,
		maxAttempts: int64(maxAttempts),
		window:      window,
		logger:      logger,
	}
}

// Allow reports whether another attempt may be made for email.
func (t *RedisLoginThrottle) Allow(ctx context.Context, email string) bool {
	if t.maxAttempts <= 0 {
		return true
	}
	count, err := t.client.Get(ctx, loginFailurePrefix+email).Int64()
	if err != nil {
		if err != redis.Nil {
			t.logger.Warn("login throttle lookup failed", zap.Error(err))
		}
		return true
	}
	return count < t.maxAttempts
}

// RecordFailure increments the failure counter for email.
func (t *RedisLoginThrottle) RecordFailure(ctx context.Context, email string) {
	key := loginFailurePrefix + email
	pipe := t.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, t.window)
	if _, err := pipe.Exec(ctx); err != nil {
		t.logger.Warn("login throttle increment failed", zap.Error(err))
	}
}

// Reset clears the counter after a successful login.
func (t *RedisLoginThrottle) Reset(ctx context.Context, email string) {
	if err := t.client.Del(ctx, loginFailurePrefix+email).Err(); err != nil {
		t.logger.Warn("login throttle reset failed", zap.Error(err))
	}
}

// NoopLoginThrottle never limits logins. It is used when Redis is not configured.
type NoopLoginThrottle struct{}

func (NoopLoginThrottle) Allow(context.Context, string) bool    { return true }
func (NoopLoginThrottle) RecordFailure(context.Context, string) {}
func (NoopLoginThrottle) Reset(context.Context, string)         {}
