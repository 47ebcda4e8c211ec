package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker implements Locker with SET NX PX and a compare-and-delete release.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker builds a locker on top of an existing client.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire claims name for ttl or returns ErrNotAcquired.
func (l *RedisLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("lock %s: ttl must be positive", name)
	}
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, name, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", name, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}
	return newLease(name, token, l.release), nil
}

func (l *RedisLocker) release(ctx context.Context, name, token string) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{name}, token).Int64()
	if err != nil {
		return fmt.Errorf("redis release %s: %w", name, err)
	}
	if deleted == 0 {
		return ErrLeaseLost
	}
	return nil
}
