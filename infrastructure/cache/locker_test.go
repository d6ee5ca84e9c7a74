package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tryLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
}

func lockers(t *testing.T) map[string]tryLocker {
	client, _ := setupTestRedis(t)
	return map[string]tryLocker{
		"redis":  NewRedisLocker(client),
		"memory": NewMemoryLocker(),
	}
}

func TestLocker_ExclusiveUntilUnlock(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			unlock, ok, err := l.TryLock(ctx, "callback:TXN1", time.Minute)
			require.NoError(t, err)
			require.True(t, ok)

			_, ok, err = l.TryLock(ctx, "callback:TXN1", time.Minute)
			require.NoError(t, err)
			assert.False(t, ok)

			_, ok, err = l.TryLock(ctx, "callback:TXN2", time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)

			unlock()
			_, ok, err = l.TryLock(ctx, "callback:TXN1", time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestLocker_SingleWinner(t *testing.T) {
	for name, l := range lockers(t) {
		t.Run(name, func(t *testing.T) {
			var wins int32
			var wg sync.WaitGroup
			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, ok, err := l.TryLock(context.Background(), "callback:RACE", time.Minute); err == nil && ok {
						atomic.AddInt32(&wins, 1)
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, int32(1), wins)
		})
	}
}

func TestRedisLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	client, mr := setupTestRedis(t)
	l := NewRedisLocker(client)
	ctx := context.Background()

	unlockFirst, ok, err := l.TryLock(ctx, "k", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	_, ok, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	unlockFirst()
	assert.True(t, mr.Exists(lockKeyPrefix+"k"))
}
