/*
Package payment Application Layer - payment reservations and callback
settlement

A payment reservation holds a priced checkout while the buyer is away at
the gateway. It is created by checkout, settled by Reconciler when the
gateway calls back, and expired by Sweeper when the buyer never returns.
Every state change is a conditional update on the previous status, so
the three can race across instances without double-applying anything.
*/
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore/domain/payment"
	"bookstore/domain/shared"
	"bookstore/pkg/logger"
)

// maxTxnRefAttempts bounds the retries on a txn ref collision.
const maxTxnRefAttempts = 5

// Store creates payment reservations and moves them between states.
type Store struct {
	repo       payment.Repository
	uowFactory shared.UnitOfWorkFactory
	ttl        time.Duration
	now        func() time.Time
}

// NewStore creates a store whose reservations live for ttl
// (payment.DefaultTTL when zero).
func NewStore(repo payment.Repository, uowFactory shared.UnitOfWorkFactory, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = payment.DefaultTTL
	}
	return &Store{repo: repo, uowFactory: uowFactory, ttl: ttl, now: time.Now}
}

// CreateParams is the priced checkout waiting for payment.
type CreateParams struct {
	BuyerID        string
	Snapshot       payment.Snapshot
	TotalAmount    shared.Money
	ShippingFee    shared.Money
	DiscountAmount shared.Money
	PaymentMethod  shared.PaymentMethod
	Notes          string
}

// Create persists a PENDING reservation under a fresh txn ref. Refs are
// regenerated while they collide, whether the collision is seen by the
// existence check or by the unique key at insert.
func (s *Store) Create(ctx context.Context, p CreateParams) (*payment.Reservation, error) {
	var reservation *payment.Reservation

	err := shared.Transactional(ctx, s.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		for attempt := 1; attempt <= maxTxnRefAttempts; attempt++ {
			now := s.now()
			txnRef := payment.NewTxnRef(now)

			exists, err := s.repo.ExistsByTxnRef(ctx, txnRef)
			if err != nil {
				return err
			}
			if exists {
				continue
			}

			r, err := payment.NewReservation(payment.NewReservationParams{
				BuyerID:        p.BuyerID,
				TxnRef:         txnRef,
				Snapshot:       p.Snapshot,
				TotalAmount:    p.TotalAmount,
				ShippingFee:    p.ShippingFee,
				DiscountAmount: p.DiscountAmount,
				PaymentMethod:  p.PaymentMethod,
				Notes:          p.Notes,
				TTL:            s.ttl,
				Now:            now,
			})
			if err != nil {
				return err
			}

			if err := s.repo.Save(ctx, r); err != nil {
				if errors.Is(err, payment.ErrDuplicateTxnRef) {
					logger.Warn("Transaction reference collided, regenerating", logger.TxnRef(txnRef))
					continue
				}
				return err
			}

			uow.RegisterNew(r)
			reservation = r
			return nil
		}
		return fmt.Errorf("could not allocate a transaction reference after %d attempts: %w",
			maxTxnRefAttempts, payment.ErrDuplicateTxnRef)
	})
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

// Get loads a reservation by txn ref.
func (s *Store) Get(ctx context.Context, txnRef string) (*payment.Reservation, error) {
	return s.repo.FindByTxnRef(ctx, txnRef)
}

// Confirm settles r for customerOrderID. Losing the race to another
// writer is reported as ErrReservationState with the status that won.
func (s *Store) Confirm(ctx context.Context, r *payment.Reservation, customerOrderID string) error {
	return s.transition(ctx, r, func(now time.Time) error {
		return r.Confirm(now, customerOrderID)
	}, "confirm")
}

// Cancel abandons a PENDING reservation.
func (s *Store) Cancel(ctx context.Context, r *payment.Reservation, reason string) error {
	return s.transition(ctx, r, func(now time.Time) error {
		return r.Cancel(now, reason)
	}, "cancel")
}

// Expire is the sweep's PENDING to EXPIRED transition.
func (s *Store) Expire(ctx context.Context, r *payment.Reservation) error {
	return s.transition(ctx, r, r.Expire, "expire")
}

func (s *Store) transition(ctx context.Context, r *payment.Reservation, apply func(now time.Time) error, action string) error {
	return shared.Transactional(ctx, s.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		if err := apply(s.now()); err != nil {
			return err
		}

		won, err := s.repo.UpdateStatus(ctx, r, payment.StatusPending)
		if err != nil {
			return err
		}
		if !won {
			current, err := s.repo.FindByTxnRef(ctx, r.TxnRef())
			if err != nil {
				return err
			}
			return payment.NewReservationStateError(r.TxnRef(), current.Status(), action)
		}

		uow.RegisterDirty(r)
		return nil
	})
}
