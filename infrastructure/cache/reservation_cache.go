// Package cache holds the Redis backed tracking structures and their
// in-memory stand-ins for single process deployments and tests.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bookstore/domain/inventory"

	"github.com/redis/go-redis/v9"
)

const (
	reservationKeyPrefix = "inventory:reservation:"
	reservationExpiryKey = "inventory:reservations:expiry"

	// entries outlive their expiry a little so the sweeper can still list them
	reservationGrace = 5 * time.Minute
)

// RedisReservationCache keeps one JSON value per owner plus a sorted set
// scored by expiry in unix milliseconds.
type RedisReservationCache struct {
	client redis.UniversalClient
}

func NewRedisReservationCache(client redis.UniversalClient) *RedisReservationCache {
	return &RedisReservationCache{client: client}
}

func (c *RedisReservationCache) Put(ctx context.Context, entry inventory.CachedReservation) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal reservation failed: %w", err)
	}

	ttl := time.Until(entry.ExpiresAt) + reservationGrace
	if ttl <= 0 {
		ttl = reservationGrace
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, reservationKey(entry.OwnerID), data, ttl)
		pipe.ZAdd(ctx, reservationExpiryKey, redis.Z{
			Score:  float64(entry.ExpiresAt.UnixMilli()),
			Member: entry.OwnerID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put reservation failed: %w", err)
	}
	return nil
}

func (c *RedisReservationCache) Get(ctx context.Context, ownerID string) (*inventory.CachedReservation, error) {
	data, err := c.client.Get(ctx, reservationKey(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, inventory.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get reservation failed: %w", err)
	}

	var entry inventory.CachedReservation
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal reservation failed: %w", err)
	}
	return &entry, nil
}

func (c *RedisReservationCache) Delete(ctx context.Context, ownerID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, reservationKey(ownerID))
		pipe.ZRem(ctx, reservationExpiryKey, ownerID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete reservation failed: %w", err)
	}
	return nil
}

func (c *RedisReservationCache) Expired(ctx context.Context, now time.Time, limit int) ([]string, error) {
	owners, err := c.client.ZRangeByScore(ctx, reservationExpiryKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis scan expired reservations failed: %w", err)
	}
	return owners, nil
}

func reservationKey(ownerID string) string {
	return reservationKeyPrefix + ownerID
}

var _ inventory.ReservationCache = (*RedisReservationCache)(nil)
