package auth

import (
	"context"
	"sync"
	"time"
)

// HasReachedLimit reports whether a post-increment failure count has hit
// the configured threshold. Pure predicate; the lockout side effect belongs
// to the orchestrator.
func HasReachedLimit(count, threshold int) bool {
	if threshold <= 0 {
		return false
	}
	return count >= threshold
}

// MemoryAttemptTracker counts consecutive failed logins per normalized
// email in process memory. Increment-and-get happens under one lock so two
// concurrent failures can never observe the same pre-increment count. A
// streak whose first failure falls outside the expiry window restarts at
// one, mirroring the Redis tracker's counter TTL.
//
// Only correct for single-process deployments; use RedisAttemptTracker
// when running multiple instances.
type MemoryAttemptTracker struct {
	mu       sync.Mutex
	window   string
	failures map[string]attemptStreak
}

type attemptStreak struct {
	count int
	first time.Time
}

var _ AttemptTracker = (*MemoryAttemptTracker)(nil)

func NewMemoryAttemptTracker() *MemoryAttemptTracker {
	return &MemoryAttemptTracker{
		window:   "24h",
		failures: make(map[string]attemptStreak),
	}
}

// WithWindow overrides the streak expiry window. The pattern is a
// time.ParseDuration string; invalid patterns keep the current window.
func (t *MemoryAttemptTracker) WithWindow(pattern string) *MemoryAttemptTracker {
	if _, err := time.ParseDuration(pattern); err == nil {
		t.window = pattern
	}
	return t
}

func (t *MemoryAttemptTracker) RecordFailure(_ context.Context, email string) (int, error) {
	key := NormalizeEmail(email)

	t.mu.Lock()
	defer t.mu.Unlock()

	streak, ok := t.failures[key]
	if ok {
		if expired, err := IsOutsideThresholdPeriod(streak.first, t.window); err == nil && expired {
			ok = false
		}
	}

	// first failure starts the window; later failures keep the original start
	if !ok {
		streak = attemptStreak{first: time.Now()}
	}

	streak.count++
	t.failures[key] = streak
	return streak.count, nil
}

func (t *MemoryAttemptTracker) RecordSuccess(_ context.Context, email string) error {
	key := NormalizeEmail(email)

	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.failures, key)
	return nil
}
