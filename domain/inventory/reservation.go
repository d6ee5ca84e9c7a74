package inventory

import (
	"fmt"
	"sort"
	"time"

	"bookstore/domain/shared"

	"github.com/google/uuid"
)

// ReservationStatus is the lifecycle of a stock hold.
type ReservationStatus string

const (
	// ReservationPending stock is decremented and may still come back
	ReservationPending ReservationStatus = "PENDING"
	// ReservationConfirmed stock left for good with an order
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	// ReservationReleased stock was returned
	ReservationReleased ReservationStatus = "RELEASED"
)

// Line is one book held by a reservation.
type Line struct {
	BookID   string `json:"book_id"`
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// Reservation is the durable record of stock taken for an owner (a
// customer order id for COD, a payment reservation id for gateway
// payments) that has not been settled yet.
type Reservation struct {
	id        string
	ownerID   string
	lines     []Line
	status    ReservationStatus
	createdAt time.Time
	expiresAt time.Time
	updatedAt time.Time

	shared.EventRecorder
}

// NewReservation records stock already decremented for ownerID.
// Lines with the same book are merged and sorted by book id.
func NewReservation(ownerID string, lines []Line, expiresAt time.Time) (*Reservation, error) {
	if ownerID == "" {
		return nil, NewInvalidReservationError("owner id is required")
	}
	merged, err := NormalizeLines(lines)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reservation ID: %w", err)
	}

	now := time.Now()
	if !expiresAt.After(now) {
		return nil, NewInvalidReservationError("expiry must be in the future")
	}

	r := &Reservation{
		id:        id.String(),
		ownerID:   ownerID,
		lines:     merged,
		status:    ReservationPending,
		createdAt: now,
		expiresAt: expiresAt,
		updatedAt: now,
	}
	r.Record(NewStockReservedEvent(r.id, ownerID, merged, expiresAt))
	return r, nil
}

// NormalizeLines merges duplicate books and sorts by book id, which is
// also the order rows are locked in.
func NormalizeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, NewInvalidReservationError("a reservation needs at least one line")
	}

	byBook := make(map[string]int, len(lines))
	titles := make(map[string]string, len(lines))
	for _, l := range lines {
		if l.BookID == "" || l.Quantity <= 0 {
			return nil, NewInvalidReservationError("every line needs a book and a positive quantity")
		}
		byBook[l.BookID] += l.Quantity
		if titles[l.BookID] == "" {
			titles[l.BookID] = l.Title
		}
	}

	out := make([]Line, 0, len(byBook))
	for bookID, qty := range byBook {
		out = append(out, Line{BookID: bookID, Title: titles[bookID], Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookID < out[j].BookID })
	return out, nil
}

type ReservationDTO struct {
	ID        string
	OwnerID   string
	Lines     []Line
	Status    ReservationStatus
	CreatedAt time.Time
	ExpiresAt time.Time
	UpdatedAt time.Time
}

func RebuildReservation(dto ReservationDTO) *Reservation {
	return &Reservation{
		id:        dto.ID,
		ownerID:   dto.OwnerID,
		lines:     dto.Lines,
		status:    dto.Status,
		createdAt: dto.CreatedAt,
		expiresAt: dto.ExpiresAt,
		updatedAt: dto.UpdatedAt,
	}
}

// Confirm marks the stock as sold. Only a PENDING reservation can be
// confirmed; the caller checks the status first to stay idempotent.
func (r *Reservation) Confirm() error {
	if r.status != ReservationPending {
		return NewInvalidReservationError(fmt.Sprintf("cannot confirm reservation in status %s", r.status))
	}
	r.status = ReservationConfirmed
	r.updatedAt = time.Now()
	r.Record(NewStockConfirmedEvent(r.id, r.ownerID))
	return nil
}

// Release marks the stock as returned.
func (r *Reservation) Release(reason string) error {
	if r.status != ReservationPending {
		return NewInvalidReservationError(fmt.Sprintf("cannot release reservation in status %s", r.status))
	}
	r.status = ReservationReleased
	r.updatedAt = time.Now()
	r.Record(NewStockReleasedEvent(r.id, r.ownerID, r.lines, reason))
	return nil
}

// IsExpired reports whether a pending hold has outlived its expiry.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.status == ReservationPending && now.After(r.expiresAt)
}

func (r *Reservation) ID() string                { return r.id }
func (r *Reservation) OwnerID() string           { return r.ownerID }
func (r *Reservation) Status() ReservationStatus { return r.status }
func (r *Reservation) CreatedAt() time.Time      { return r.createdAt }
func (r *Reservation) ExpiresAt() time.Time      { return r.expiresAt }
func (r *Reservation) UpdatedAt() time.Time      { return r.updatedAt }

// Version is always zero: status changes are guarded by the previous
// status instead of a counter.
func (r *Reservation) Version() int { return 0 }

func (r *Reservation) Lines() []Line {
	lines := make([]Line, len(r.lines))
	copy(lines, r.lines)
	return lines
}

var _ shared.AggregateRoot = (*Reservation)(nil)
