package cache

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// LockManager serializes settlement and re-settlement of the same
// transaction event across instances.
type LockManager struct {
	locker *redislock.Client
	ttl    time.Duration
}

func NewLockManager(client *redis.Client, ttl time.Duration) *LockManager {
	return &LockManager{
		locker: redislock.New(client),
		ttl:    ttl,
	}
}

// Acquire takes the named lock, waiting with linear backoff until the
// context expires. The caller must Release the returned lock.
func (m *LockManager) Acquire(ctx context.Context, key string) (*redislock.Lock, error) {
	return m.locker.Obtain(ctx, key, m.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(100 * time.Millisecond),
	})
}
