package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	appinventory "bookstore/application/inventory"
	"bookstore/domain/payment"
	"bookstore/domain/shared"
	"bookstore/pkg/logger"
	"bookstore/pkg/metrics"

	"go.uber.org/zap"
)

// Sweeper expires payment reservations whose window closed and hands
// their stock back.
type Sweeper struct {
	store      *Store
	repo       payment.Repository
	ledger     *appinventory.Ledger
	uowFactory shared.UnitOfWorkFactory
	interval   time.Duration
	batchSize  int
	now        func() time.Time
}

func NewSweeper(
	store *Store,
	repo payment.Repository,
	ledger *appinventory.Ledger,
	uowFactory shared.UnitOfWorkFactory,
	interval time.Duration,
	batchSize int,
) (*Sweeper, error) {
	if store == nil || repo == nil || ledger == nil {
		return nil, fmt.Errorf("store, repository and ledger are required")
	}
	if interval <= 0 || batchSize <= 0 {
		return nil, fmt.Errorf("sweep interval and batch size must be positive")
	}

	return &Sweeper{
		store:      store,
		repo:       repo,
		ledger:     ledger,
		uowFactory: uowFactory,
		interval:   interval,
		batchSize:  batchSize,
		now:        time.Now,
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
				logger.Error("Payment reservation sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce expires one batch. Each reservation is expired and its stock
// returned in one unit of work; a reservation another instance got to
// first is skipped.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	expired, err := s.repo.FindExpired(ctx, s.now(), s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired payment reservations: %w", err)
	}

	count := 0
	for _, r := range expired {
		err := shared.Transactional(ctx, s.uowFactory, func(ctx context.Context, _ shared.UnitOfWork) error {
			if err := s.store.Expire(ctx, r); err != nil {
				return err
			}
			_, err := s.ledger.Rollback(ctx, r.ID(), "payment window expired")
			return err
		})
		if errors.Is(err, payment.ErrReservationState) {
			continue
		}
		if err != nil {
			logger.Error("Failed to expire payment reservation",
				logger.TxnRef(r.TxnRef()),
				logger.ReservationID(r.ID()),
				zap.Error(err))
			continue
		}

		count++
		logger.Info("Payment reservation expired",
			logger.TxnRef(r.TxnRef()),
			logger.ReservationID(r.ID()))
	}

	if count > 0 {
		metrics.SweptReservations.WithLabelValues("payment").Add(float64(count))
	}
	return count, nil
}
