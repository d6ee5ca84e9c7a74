package cache

import (
	"context"
	"testing"
	"time"

	"bookstore/domain/inventory"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and a client pointing to it
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func entry(owner string, expiresAt time.Time) inventory.CachedReservation {
	return inventory.CachedReservation{
		OwnerID:   owner,
		Lines:     []inventory.Line{{BookID: "book-1", Title: "Dune", Quantity: 2}},
		ExpiresAt: expiresAt,
	}
}

func TestRedisReservationCache_PutGetDelete(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisReservationCache(client)
	ctx := context.Background()

	expiresAt := time.Now().Add(15 * time.Minute).Truncate(time.Millisecond)
	require.NoError(t, c.Put(ctx, entry("pay-1", expiresAt)))

	got, err := c.Get(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", got.OwnerID)
	assert.True(t, expiresAt.Equal(got.ExpiresAt))
	require.Len(t, got.Lines, 1)
	assert.Equal(t, 2, got.Lines[0].Quantity)

	assert.True(t, mr.Exists(reservationKey("pay-1")))
	assert.Greater(t, mr.TTL(reservationKey("pay-1")), 15*time.Minute)

	require.NoError(t, c.Delete(ctx, "pay-1"))
	_, err = c.Get(ctx, "pay-1")
	assert.ErrorIs(t, err, inventory.ErrCacheMiss)

	members, err := mr.ZMembers(reservationExpiryKey)
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestRedisReservationCache_GetMiss(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisReservationCache(client)

	got, err := c.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, inventory.ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisReservationCache_Expired(t *testing.T) {
	client, _ := setupTestRedis(t)
	c := NewRedisReservationCache(client)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, c.Put(ctx, entry("old-2", now.Add(-time.Minute))))
	require.NoError(t, c.Put(ctx, entry("old-1", now.Add(-2*time.Minute))))
	require.NoError(t, c.Put(ctx, entry("fresh", now.Add(time.Minute))))

	owners, err := c.Expired(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"old-1", "old-2"}, owners)

	owners, err = c.Expired(ctx, now, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"old-1"}, owners)
}

func TestRedisReservationCache_RedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	c := NewRedisReservationCache(client)
	mr.Close()

	_, err := c.Get(context.Background(), "pay-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, inventory.ErrCacheMiss)
}

func TestMemoryReservationCache(t *testing.T) {
	c := NewMemoryReservationCache()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, c.Put(ctx, entry("a", now.Add(-time.Second))))
	require.NoError(t, c.Put(ctx, entry("b", now.Add(time.Minute))))
	assert.Equal(t, 2, c.Len())

	got, err := c.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.OwnerID)

	owners, err := c.Expired(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, owners)

	require.NoError(t, c.Delete(ctx, "a"))
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, inventory.ErrCacheMiss)
}
