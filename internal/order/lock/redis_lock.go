package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "tableside:sync:lock"

// releaseScript deletes the key only while it still holds our token, so an
// expired lease never releases a lock taken over by another agent.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock keeps sync sweeps from overlapping across agent processes that
// share one store.
type RedisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	if key == "" {
		key = DefaultKey
	}
	return &RedisLock{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

// TryAcquire takes the lock without waiting. acquired is false when another
// holder owns it.
func (l *RedisLock) TryAcquire(ctx context.Context) (release func(context.Context) error, acquired bool, err error) {
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquiring sync lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release = func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
			return fmt.Errorf("releasing sync lock: %w", err)
		}
		return nil
	}
	return release, true, nil
}
