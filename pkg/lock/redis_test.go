package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client), mr
}

func TestRedisLockerAcquireRelease(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	ctx := context.Background()

	lease, err := l.Acquire(ctx, "slot_lock:49680080001", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("slot_lock:49680080001"))
	assert.Equal(t, 5*time.Second, mr.TTL("slot_lock:49680080001"))

	_, err = l.Acquire(ctx, "slot_lock:49680080001", 5*time.Second)
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("slot_lock:49680080001"))
}

func TestRedisLockerExpiredLeaseDoesNotReleaseNewHolder(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Second)

	fresh, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	assert.ErrorIs(t, stale.Release(ctx), ErrLeaseLost)
	assert.True(t, mr.Exists("k"))
	require.NoError(t, fresh.Release(ctx))
}

func TestRedisLockerRejectsNonPositiveTTL(t *testing.T) {
	l, _ := newTestRedisLocker(t)
	_, err := l.Acquire(context.Background(), "k", 0)
	assert.Error(t, err)
}

func TestRedisLockerSurfacesBackendErrors(t *testing.T) {
	l, mr := newTestRedisLocker(t)
	mr.Close()
	_, err := l.Acquire(context.Background(), "k", time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotAcquired)
}
