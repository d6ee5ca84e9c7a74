package inventory

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss the cache has no entry for the owner.
var ErrCacheMiss = errors.New("reservation cache miss")

// CachedReservation is the tracking entry kept for an active hold.
type CachedReservation struct {
	OwnerID   string    `json:"owner_id"`
	Lines     []Line    `json:"lines"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReservationCache tracks active holds for fast lookups. It is a cache
// over ReservationRepository, never the source of truth.
type ReservationCache interface {
	Put(ctx context.Context, entry CachedReservation) error

	// Get returns ErrCacheMiss when the owner is not tracked.
	Get(ctx context.Context, ownerID string) (*CachedReservation, error)

	Delete(ctx context.Context, ownerID string) error

	// Expired lists tracked owners whose expiry is before now.
	Expired(ctx context.Context, now time.Time, limit int) ([]string, error)
}
