package inventory

import (
	"context"
	"time"
)

// BookRepository is the Inventory Store.
type BookRepository interface {
	FindByID(ctx context.Context, id string) (*Book, error)

	// FindByIDs returns the books that exist; missing ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*Book, error)

	// DecrementStock reads the stock under an exclusive per-book lock and
	// takes quantity from it, failing with ErrInsufficientStock when
	// there is not enough. It must run inside a unit of work.
	DecrementStock(ctx context.Context, bookID string, quantity int) (remaining int, err error)

	// IncrementStock returns quantity to the shelf.
	IncrementStock(ctx context.Context, bookID string, quantity int) error
}

// ReservationRepository persists stock holds.
type ReservationRepository interface {
	Save(ctx context.Context, r *Reservation) error

	FindByOwnerID(ctx context.Context, ownerID string) (*Reservation, error)

	// UpdateStatus writes r's status only if the stored status is still
	// expected. It reports false when another caller got there first.
	UpdateStatus(ctx context.Context, r *Reservation, expected ReservationStatus) (bool, error)

	// FindExpired lists PENDING reservations whose expiry is before now.
	FindExpired(ctx context.Context, now time.Time, limit int) ([]*Reservation, error)
}
