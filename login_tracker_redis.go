package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "auth:login_attempts:"

// RedisAttemptTracker is the shared-store counter for multi-instance
// deployments: INCR gives an atomic increment-and-get across processes.
// Counters expire after Window so an abandoned attempt streak does not
// linger forever.
type RedisAttemptTracker struct {
	client *redis.Client
	window time.Duration
}

var _ AttemptTracker = (*RedisAttemptTracker)(nil)

func NewRedisAttemptTracker(client *redis.Client) *RedisAttemptTracker {
	return &RedisAttemptTracker{
		client: client,
		window: 24 * time.Hour,
	}
}

// WithWindow overrides the counter expiry window.
func (t *RedisAttemptTracker) WithWindow(window time.Duration) *RedisAttemptTracker {
	if window > 0 {
		t.window = window
	}
	return t
}

func (t *RedisAttemptTracker) RecordFailure(ctx context.Context, email string) (int, error) {
	key := attemptKeyPrefix + NormalizeEmail(email)

	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrap(err, errors.CategoryInternal, "failed to increment login attempt counter")
	}

	// first failure starts the window; later failures keep the original TTL
	if count == 1 && t.window > 0 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			return int(count), errors.Wrap(err, errors.CategoryInternal, "failed to set login attempt counter expiry")
		}
	}

	return int(count), nil
}

func (t *RedisAttemptTracker) RecordSuccess(ctx context.Context, email string) error {
	key := attemptKeyPrefix + NormalizeEmail(email)

	if err := t.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to clear login attempt counter")
	}

	return nil
}
