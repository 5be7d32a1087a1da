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

func newTestLock(t *testing.T) (*RedisLock, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLock(client, "", time.Minute), mr
}

func TestRedisLock_AcquireAndRelease(t *testing.T) {
	l, mr := newTestLock(t)
	ctx := context.Background()

	release, ok, err := l.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mr.Exists(DefaultKey))
	assert.Equal(t, time.Minute, mr.TTL(DefaultKey))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists(DefaultKey))
}

func TestRedisLock_HeldElsewhere(t *testing.T) {
	l, _ := newTestLock(t)
	ctx := context.Background()

	release, ok, err := l.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	defer release(ctx)

	second, ok, err := l.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, second)
}

func TestRedisLock_ExpiredLeaseDoesNotReleaseNewHolder(t *testing.T) {
	l, mr := newTestLock(t)
	ctx := context.Background()

	staleRelease, ok, err := l.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	_, ok, err = l.TryAcquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, staleRelease(ctx))
	assert.True(t, mr.Exists(DefaultKey))
}

func TestRedisLock_Unavailable(t *testing.T) {
	l, mr := newTestLock(t)
	mr.Close()

	_, ok, err := l.TryAcquire(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}
