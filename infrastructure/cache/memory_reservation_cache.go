package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookstore/domain/inventory"
)

// MemoryReservationCache is the single process ReservationCache.
type MemoryReservationCache struct {
	mu      sync.RWMutex
	entries map[string]inventory.CachedReservation
}

func NewMemoryReservationCache() *MemoryReservationCache {
	return &MemoryReservationCache{entries: make(map[string]inventory.CachedReservation)}
}

func (c *MemoryReservationCache) Put(ctx context.Context, entry inventory.CachedReservation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry.Lines = append([]inventory.Line(nil), entry.Lines...)
	c.entries[entry.OwnerID] = entry
	return nil
}

func (c *MemoryReservationCache) Get(ctx context.Context, ownerID string) (*inventory.CachedReservation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[ownerID]
	if !ok {
		return nil, inventory.ErrCacheMiss
	}
	return &entry, nil
}

func (c *MemoryReservationCache) Delete(ctx context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ownerID)
	return nil
}

func (c *MemoryReservationCache) Expired(ctx context.Context, now time.Time, limit int) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var expired []inventory.CachedReservation
	for _, e := range c.entries {
		if e.ExpiresAt.Before(now) {
			expired = append(expired, e)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	owners := make([]string, len(expired))
	for i, e := range expired {
		owners[i] = e.OwnerID
	}
	return owners, nil
}

// Len returns the number of tracked owners.
func (c *MemoryReservationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ inventory.ReservationCache = (*MemoryReservationCache)(nil)
