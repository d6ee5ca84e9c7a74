package payment

import (
	"context"
	"time"
)

// Repository persists payment reservations.
type Repository interface {
	// Save inserts a new reservation. A taken txn ref fails with
	// ErrDuplicateTxnRef.
	Save(ctx context.Context, r *Reservation) error

	ExistsByTxnRef(ctx context.Context, txnRef string) (bool, error)

	FindByTxnRef(ctx context.Context, txnRef string) (*Reservation, error)

	FindByID(ctx context.Context, id string) (*Reservation, error)

	// UpdateStatus persists r's status fields only if the stored status is
	// still expected, reporting false otherwise.
	UpdateStatus(ctx context.Context, r *Reservation, expected Status) (bool, error)

	// FindExpired lists PENDING reservations with expires_at before now.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*Reservation, error)
}
