/*
Package inventory Application layer - stock reservation ledger

The ledger is the only writer of book stock. Every method joins the unit
of work carried by the context, or opens its own, so the checkout and
callback flows can make a reservation step part of their transaction.
*/
package inventory

import (
	"context"
	"errors"
	"time"

	"bookstore/domain/inventory"
	"bookstore/domain/shared"
	"bookstore/pkg/logger"
	"bookstore/pkg/metrics"

	"go.uber.org/zap"
)

// Ledger reserves, confirms and returns stock.
type Ledger struct {
	books        inventory.BookRepository
	reservations inventory.ReservationRepository
	cache        inventory.ReservationCache
	uowFactory   shared.UnitOfWorkFactory
	now          func() time.Time
}

// NewLedger creates a ledger. cache may be nil.
func NewLedger(
	books inventory.BookRepository,
	reservations inventory.ReservationRepository,
	cache inventory.ReservationCache,
	uowFactory shared.UnitOfWorkFactory,
) *Ledger {
	return &Ledger{
		books:        books,
		reservations: reservations,
		cache:        cache,
		uowFactory:   uowFactory,
		now:          time.Now,
	}
}

// Reserve takes stock for every line under ownerID, all or nothing.
// Books are locked in ascending id order. If a line cannot be served the
// lines already taken in this pass are put back before the error
// (ErrInsufficientStock) is returned.
func (l *Ledger) Reserve(ctx context.Context, ownerID string, lines []inventory.Line, expiresAt time.Time) (*inventory.Reservation, error) {
	normalized, err := inventory.NormalizeLines(lines)
	if err != nil {
		return nil, err
	}

	var reservation *inventory.Reservation
	err = shared.Transactional(ctx, l.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		taken := make([]inventory.Line, 0, len(normalized))
		for _, line := range normalized {
			if _, err := l.books.DecrementStock(ctx, line.BookID, line.Quantity); err != nil {
				l.putBack(ctx, ownerID, taken)
				return err
			}
			taken = append(taken, line)
		}

		r, err := inventory.NewReservation(ownerID, normalized, expiresAt)
		if err == nil {
			err = l.reservations.Save(ctx, r)
		}
		if err != nil {
			l.putBack(ctx, ownerID, taken)
			return err
		}

		uow.RegisterNew(r)
		reservation = r
		return nil
	})
	if err != nil {
		if errors.Is(err, inventory.ErrInsufficientStock) {
			metrics.InventoryReservations.WithLabelValues("insufficient_stock").Inc()
		}
		return nil, err
	}

	metrics.InventoryReservations.WithLabelValues("reserved").Inc()
	l.track(ctx, reservation)
	return reservation, nil
}

// Confirm marks the stock as sold without touching it. Unknown and
// already confirmed owners are a no-op; a released reservation returns
// ErrReservationReleased so the caller can compensate.
func (l *Ledger) Confirm(ctx context.Context, ownerID string) error {
	err := shared.Transactional(ctx, l.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		r, err := l.reservations.FindByOwnerID(ctx, ownerID)
		if errors.Is(err, inventory.ErrReservationNotFound) {
			logger.Warn("Confirming unknown inventory reservation", logger.OwnerID(ownerID))
			return nil
		}
		if err != nil {
			return err
		}

		switch r.Status() {
		case inventory.ReservationConfirmed:
			return nil
		case inventory.ReservationReleased:
			return inventory.NewReservationReleasedError(ownerID)
		}

		if err := r.Confirm(); err != nil {
			return err
		}
		won, err := l.reservations.UpdateStatus(ctx, r, inventory.ReservationPending)
		if err != nil {
			return err
		}
		if !won {
			current, err := l.reservations.FindByOwnerID(ctx, ownerID)
			if err != nil {
				return err
			}
			if current.Status() == inventory.ReservationReleased {
				return inventory.NewReservationReleasedError(ownerID)
			}
			return nil
		}

		uow.RegisterDirty(r)
		return nil
	})
	if err != nil {
		return err
	}

	l.untrack(ctx, ownerID)
	return nil
}

// Rollback returns the stock held for ownerID. Only the caller that wins
// the PENDING to RELEASED transition touches stock, so concurrent or
// repeated calls return it exactly once. Unknown, released and confirmed
// owners are a no-op; it reports whether stock was returned.
func (l *Ledger) Rollback(ctx context.Context, ownerID, reason string) (bool, error) {
	var released bool
	err := shared.Transactional(ctx, l.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		r, err := l.reservations.FindByOwnerID(ctx, ownerID)
		if errors.Is(err, inventory.ErrReservationNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if r.Status() != inventory.ReservationPending {
			if r.Status() == inventory.ReservationConfirmed {
				logger.Warn("Skip rollback of confirmed inventory reservation",
					logger.OwnerID(ownerID))
			}
			return nil
		}

		if err := r.Release(reason); err != nil {
			return err
		}
		won, err := l.reservations.UpdateStatus(ctx, r, inventory.ReservationPending)
		if err != nil || !won {
			return err
		}

		for _, line := range r.Lines() {
			if err := l.books.IncrementStock(ctx, line.BookID, line.Quantity); err != nil {
				return err
			}
		}

		uow.RegisterDirty(r)
		released = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if released {
		metrics.InventoryReservations.WithLabelValues("released").Inc()
		logger.Info("Inventory reservation released",
			logger.OwnerID(ownerID),
			zap.String("reason", reason))
	}
	l.untrack(ctx, ownerID)
	return released, nil
}

// Restock puts copies of already sold books back on the shelf, e.g. when
// a confirmed order is cancelled.
func (l *Ledger) Restock(ctx context.Context, lines []inventory.Line) error {
	if len(lines) == 0 {
		return nil
	}
	normalized, err := inventory.NormalizeLines(lines)
	if err != nil {
		return err
	}

	return shared.Transactional(ctx, l.uowFactory, func(ctx context.Context, _ shared.UnitOfWork) error {
		for _, line := range normalized {
			if err := l.books.IncrementStock(ctx, line.BookID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

// IsValid reports whether ownerID still holds unexpired stock. The cache
// answers first; the durable row is read on a miss.
func (l *Ledger) IsValid(ctx context.Context, ownerID string) (bool, error) {
	now := l.now()

	if l.cache != nil {
		entry, err := l.cache.Get(ctx, ownerID)
		switch {
		case err == nil:
			return now.Before(entry.ExpiresAt), nil
		case !errors.Is(err, inventory.ErrCacheMiss):
			logger.Warn("Reservation cache lookup failed", logger.OwnerID(ownerID), zap.Error(err))
		}
	}

	r, err := l.reservations.FindByOwnerID(ctx, ownerID)
	if errors.Is(err, inventory.ErrReservationNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return r.Status() == inventory.ReservationPending && !r.IsExpired(now), nil
}

// putBack undoes a partial pass. Errors are logged; inside a database
// transaction the rollback restores the rows anyway.
func (l *Ledger) putBack(ctx context.Context, ownerID string, taken []inventory.Line) {
	for i := len(taken) - 1; i >= 0; i-- {
		line := taken[i]
		if err := l.books.IncrementStock(ctx, line.BookID, line.Quantity); err != nil {
			logger.Error("Failed to return stock after partial reservation",
				logger.OwnerID(ownerID),
				zap.String("book_id", line.BookID),
				zap.Int("quantity", line.Quantity),
				zap.Error(err))
		}
	}
}

func (l *Ledger) track(ctx context.Context, r *inventory.Reservation) {
	if l.cache == nil {
		return
	}
	entry := inventory.CachedReservation{OwnerID: r.OwnerID(), Lines: r.Lines(), ExpiresAt: r.ExpiresAt()}
	if err := l.cache.Put(ctx, entry); err != nil {
		logger.Warn("Failed to cache inventory reservation", logger.OwnerID(r.OwnerID()), zap.Error(err))
	}
}

func (l *Ledger) untrack(ctx context.Context, ownerID string) {
	if l.cache == nil {
		return
	}
	if err := l.cache.Delete(ctx, ownerID); err != nil {
		logger.Warn("Failed to drop cached inventory reservation", logger.OwnerID(ownerID), zap.Error(err))
	}
}
