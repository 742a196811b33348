package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adplan/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock is a SET NX lock with a TTL. Only the holder token releases it.
type RedisLock struct {
	client redis.UniversalClient
	key    string
	name   string
	ttl    time.Duration
}

// NewRedisLock creates a redis lock stored under "lock:<name>"
func NewRedisLock(client redis.UniversalClient, name string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    "lock:" + name,
		name:   name,
		ttl:    ttl,
	}
}

// Name returns the lock name
func (l *RedisLock) Name() string {
	return l.name
}

// Acquire takes the lock or returns shared.ErrJobLocked
func (l *RedisLock) Acquire(ctx context.Context) (shared.ReleaseFunc, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", l.name, err)
	}
	if !ok {
		return nil, shared.ErrJobLocked
	}

	var once sync.Once
	var releaseErr error
	return func(ctx context.Context) error {
		once.Do(func() {
			if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
				releaseErr = fmt.Errorf("release lock %s: %w", l.name, err)
			}
		})
		return releaseErr
	}, nil
}
