package inventory

import (
	"context"
	"fmt"
	"time"

	"bookstore/domain/inventory"
	"bookstore/pkg/logger"
	"bookstore/pkg/metrics"

	"go.uber.org/zap"
)

// Sweeper returns stock held by reservations that outlived their expiry.
// Several sweepers may run at once: Rollback's conditional transition
// lets exactly one of them return the stock.
type Sweeper struct {
	ledger       *Ledger
	reservations inventory.ReservationRepository
	cache        inventory.ReservationCache
	interval     time.Duration
	batchSize    int
	now          func() time.Time
}

func NewSweeper(
	ledger *Ledger,
	reservations inventory.ReservationRepository,
	cache inventory.ReservationCache,
	interval time.Duration,
	batchSize int,
) (*Sweeper, error) {
	if ledger == nil || reservations == nil {
		return nil, fmt.Errorf("ledger and reservation repository are required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("sweep batch size must be positive")
	}

	return &Sweeper{
		ledger:       ledger,
		reservations: reservations,
		cache:        cache,
		interval:     interval,
		batchSize:    batchSize,
		now:          time.Now,
	}, nil
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				logger.Error("Inventory sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce rolls back every expired PENDING reservation it can find, each
// in its own unit of work, then prunes stale cache entries. It returns the
// number of reservations whose stock went back.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now()

	expired, err := s.reservations.FindExpired(ctx, now, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired inventory reservations: %w", err)
	}

	released := 0
	for _, r := range expired {
		ok, err := s.ledger.Rollback(ctx, r.OwnerID(), "reservation expired")
		if err != nil {
			logger.Error("Failed to roll back expired inventory reservation",
				logger.OwnerID(r.OwnerID()),
				zap.Error(err))
			continue
		}
		if ok {
			released++
		}
	}

	released += s.pruneCache(ctx, now)

	if released > 0 {
		metrics.SweptReservations.WithLabelValues("inventory").Add(float64(released))
		logger.Info("Inventory sweep released expired reservations", zap.Int("count", released))
	}
	return released, nil
}

// pruneCache drops cache entries past their expiry. Owners whose durable
// row is still pending are rolled back on the way.
func (s *Sweeper) pruneCache(ctx context.Context, now time.Time) int {
	if s.cache == nil {
		return 0
	}

	owners, err := s.cache.Expired(ctx, now, s.batchSize)
	if err != nil {
		logger.Warn("Failed to scan reservation cache", zap.Error(err))
		return 0
	}

	released := 0
	for _, ownerID := range owners {
		ok, err := s.ledger.Rollback(ctx, ownerID, "reservation expired")
		if err != nil {
			logger.Warn("Failed to roll back cached reservation", logger.OwnerID(ownerID), zap.Error(err))
			continue
		}
		if ok {
			released++
		}
	}
	return released
}
