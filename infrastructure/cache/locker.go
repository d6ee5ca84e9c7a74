package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bookstore/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockKeyPrefix = "lock:"

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a SET NX based mutex shared by all API replicas.
type RedisLocker struct {
	client redis.UniversalClient
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client}
}

// TryLock acquires key for at most ttl. It never waits: when somebody
// else holds the key acquired is false.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	fullKey := lockKeyPrefix + key

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis lock %s failed: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	unlock := func() {
		// the caller's ctx may already be done
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, l.client, []string{fullKey}, token).Err(); err != nil {
			logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}
	return unlock, true, nil
}

// MemoryLocker is the single process equivalent of RedisLocker.
type MemoryLocker struct {
	mu    sync.Mutex
	seq   uint64
	locks map[string]memoryLock
}

type memoryLock struct {
	token     uint64
	expiresAt time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{locks: make(map[string]memoryLock)}
}

func (l *MemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	current, held := l.locks[key]
	if held && now.Before(current.expiresAt) {
		return nil, false, nil
	}

	l.seq++
	token := l.seq
	l.locks[key] = memoryLock{token: token, expiresAt: now.Add(ttl)}

	unlock := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.locks[key].token == token {
			delete(l.locks, key)
		}
	}
	return unlock, true, nil
}
