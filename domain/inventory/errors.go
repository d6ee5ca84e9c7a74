package inventory

import (
	"errors"
	"fmt"

	"bookstore/domain/shared"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	// ErrInsufficientStock a line asks for more copies than are on the shelf
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrBookNotFound        = errors.New("book not found")
	ErrReservationNotFound = errors.New("inventory reservation not found")

	// ErrReservationReleased the stock was already given back, so it
	// cannot be confirmed any more
	ErrReservationReleased = errors.New("inventory reservation already released")

	ErrInvalidReservation = errors.New("invalid inventory reservation")
)

// ============================================================================
// Constructors
// ============================================================================

// NewInsufficientStockError names the book and both quantities so the
// buyer can fix the cart.
func NewInsufficientStockError(bookID, title string, requested, available int) error {
	name := title
	if name == "" {
		name = bookID
	}
	return &InsufficientStockError{
		BookID:    bookID,
		Title:     title,
		Requested: requested,
		Available: available,
		message:   fmt.Sprintf("not enough stock for %q: requested %d, available %d", name, requested, available),
		stack:     shared.CaptureStack(3),
	}
}

func NewBookNotFoundError(bookID string) error {
	return &inventoryDomainError{
		sentinel: ErrBookNotFound,
		entity:   "book",
		message:  "book not found: " + bookID,
		stack:    shared.CaptureStack(3),
	}
}

func NewReservationNotFoundError(ownerID string) error {
	return &inventoryDomainError{
		sentinel: ErrReservationNotFound,
		entity:   "inventory_reservation",
		message:  "no inventory reservation for " + ownerID,
		stack:    shared.CaptureStack(3),
	}
}

func NewReservationReleasedError(ownerID string) error {
	return &inventoryDomainError{
		sentinel: ErrReservationReleased,
		entity:   "inventory_reservation",
		message:  "inventory reservation " + ownerID + " was already released",
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidReservationError(message string) error {
	return &inventoryDomainError{
		sentinel: ErrInvalidReservation,
		entity:   "inventory_reservation",
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

// ============================================================================
// Error types
// ============================================================================

// InsufficientStockError is exported so callers can read the quantities.
type InsufficientStockError struct {
	BookID    string
	Title     string
	Requested int
	Available int
	message   string
	stack     []uintptr
}

func (e *InsufficientStockError) Error() string   { return e.message }
func (e *InsufficientStockError) Unwrap() error   { return ErrInsufficientStock }
func (e *InsufficientStockError) Stack() []string { return shared.FormatStack(e.stack) }

type inventoryDomainError struct {
	sentinel error
	entity   string
	message  string
	stack    []uintptr
}

func (e *inventoryDomainError) Error() string   { return e.message }
func (e *inventoryDomainError) Unwrap() error   { return e.sentinel }
func (e *inventoryDomainError) Stack() []string { return shared.FormatStack(e.stack) }
