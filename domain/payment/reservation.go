/*
Package payment models a pending gateway payment: the reservation that
holds a checkout's snapshot while the buyer is away at the gateway, the
gateway contract and the transaction reference format.
*/
package payment

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookstore/domain/shared"

	"github.com/google/uuid"
)

// DefaultTTL is how long a buyer has to finish paying.
const DefaultTTL = 15 * time.Minute

// Status of a payment reservation. CONFIRMED is terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// IsTerminal reports whether the reservation can no longer change.
func (s Status) IsTerminal() bool {
	return s != StatusPending
}

// NewTxnRef builds "TXN" + unix millis + 8 upper-case hex characters.
func NewTxnRef(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return "TXN" + strconv.FormatInt(now.UnixMilli(), 10) + strings.ToUpper(suffix)
}

// Reservation aggregate root
type Reservation struct {
	id              string
	buyerID         string
	txnRef          string
	snapshot        string // JSON encoded Snapshot
	totalAmount     shared.Money
	shippingFee     shared.Money
	discountAmount  shared.Money
	paymentMethod   shared.PaymentMethod
	status          Status
	shipping        shared.ShippingAddress
	notes           string
	customerOrderID string
	cancelReason    string
	createdAt       time.Time
	expiresAt       time.Time
	confirmedAt     *time.Time
	cancelledAt     *time.Time

	shared.EventRecorder
}

// NewReservationParams is the input to NewReservation.
type NewReservationParams struct {
	BuyerID        string
	TxnRef         string
	Snapshot       Snapshot
	TotalAmount    shared.Money
	ShippingFee    shared.Money
	DiscountAmount shared.Money
	PaymentMethod  shared.PaymentMethod
	Notes          string
	TTL            time.Duration
	Now            time.Time
}

// NewReservation creates a PENDING reservation expiring Now + TTL.
func NewReservation(p NewReservationParams) (*Reservation, error) {
	if p.BuyerID == "" || p.TxnRef == "" {
		return nil, shared.NewValidationError("payment_reservation", "txn_ref", "buyer and transaction reference are required")
	}
	if !p.TotalAmount.IsPositive() {
		return nil, shared.NewValidationError("payment_reservation", "total_amount", "payment amount must be positive")
	}
	if p.TTL <= 0 {
		p.TTL = DefaultTTL
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}

	raw, err := json.Marshal(p.Snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkout snapshot: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate reservation ID: %w", err)
	}

	r := &Reservation{
		id:             id.String(),
		buyerID:        p.BuyerID,
		txnRef:         p.TxnRef,
		snapshot:       string(raw),
		totalAmount:    p.TotalAmount,
		shippingFee:    p.ShippingFee,
		discountAmount: p.DiscountAmount,
		paymentMethod:  p.PaymentMethod,
		status:         StatusPending,
		shipping:       p.Snapshot.Shipping,
		notes:          p.Notes,
		createdAt:      p.Now,
		expiresAt:      p.Now.Add(p.TTL),
	}
	r.Record(NewReservationCreatedEvent(r))
	return r, nil
}

// ============================================================================
// ReconstructionDTO - repository use only
// ============================================================================

type ReconstructionDTO struct {
	ID              string
	BuyerID         string
	TxnRef          string
	Snapshot        string
	TotalAmount     shared.Money
	ShippingFee     shared.Money
	DiscountAmount  shared.Money
	PaymentMethod   shared.PaymentMethod
	Status          Status
	Shipping        shared.ShippingAddress
	Notes           string
	CustomerOrderID string
	CancelReason    string
	CreatedAt       time.Time
	ExpiresAt       time.Time
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *Reservation {
	return &Reservation{
		id:              dto.ID,
		buyerID:         dto.BuyerID,
		txnRef:          dto.TxnRef,
		snapshot:        dto.Snapshot,
		totalAmount:     dto.TotalAmount,
		shippingFee:     dto.ShippingFee,
		discountAmount:  dto.DiscountAmount,
		paymentMethod:   dto.PaymentMethod,
		status:          dto.Status,
		shipping:        dto.Shipping,
		notes:           dto.Notes,
		customerOrderID: dto.CustomerOrderID,
		cancelReason:    dto.CancelReason,
		createdAt:       dto.CreatedAt,
		expiresAt:       dto.ExpiresAt,
		confirmedAt:     dto.ConfirmedAt,
		cancelledAt:     dto.CancelledAt,
	}
}

// ============================================================================
// State transitions
// ============================================================================

// Confirm settles the reservation. Legal only from PENDING and before
// expiry.
func (r *Reservation) Confirm(now time.Time, customerOrderID string) error {
	if r.status != StatusPending {
		return NewReservationStateError(r.txnRef, r.status, "confirm")
	}
	if r.IsExpired(now) {
		return NewReservationStateError(r.txnRef, StatusExpired, "confirm")
	}

	r.status = StatusConfirmed
	r.customerOrderID = customerOrderID
	r.confirmedAt = &now
	r.Record(NewReservationConfirmedEvent(r.id, r.txnRef, customerOrderID))
	return nil
}

// Cancel abandons a PENDING reservation. A confirmed payment cannot be
// cancelled here; cancelling twice is reported too, so the caller can
// treat it as a no-op.
func (r *Reservation) Cancel(now time.Time, reason string) error {
	if r.status != StatusPending {
		return NewReservationStateError(r.txnRef, r.status, "cancel")
	}

	r.status = StatusCancelled
	r.cancelReason = reason
	r.cancelledAt = &now
	r.Record(NewReservationCancelledEvent(r.id, r.txnRef, string(StatusCancelled), reason))
	return nil
}

// Expire is the sweep's transition, PENDING to EXPIRED.
func (r *Reservation) Expire(now time.Time) error {
	if r.status != StatusPending {
		return NewReservationStateError(r.txnRef, r.status, "expire")
	}

	r.status = StatusExpired
	r.cancelReason = "payment window expired"
	r.cancelledAt = &now
	r.Record(NewReservationCancelledEvent(r.id, r.txnRef, string(StatusExpired), r.cancelReason))
	return nil
}

// IsExpired reports whether now is past the payment window.
func (r *Reservation) IsExpired(now time.Time) bool {
	return now.After(r.expiresAt)
}

// Snapshot decodes the stored checkout snapshot.
func (r *Reservation) Snapshot() (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal([]byte(r.snapshot), &s); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode checkout snapshot of %s: %w", r.txnRef, err)
	}
	return s, nil
}

// ============================================================================
// Getters
// ============================================================================

func (r *Reservation) ID() string                          { return r.id }
func (r *Reservation) BuyerID() string                     { return r.buyerID }
func (r *Reservation) TxnRef() string                      { return r.txnRef }
func (r *Reservation) RawSnapshot() string                 { return r.snapshot }
func (r *Reservation) TotalAmount() shared.Money           { return r.totalAmount }
func (r *Reservation) ShippingFee() shared.Money           { return r.shippingFee }
func (r *Reservation) DiscountAmount() shared.Money        { return r.discountAmount }
func (r *Reservation) PaymentMethod() shared.PaymentMethod { return r.paymentMethod }
func (r *Reservation) Status() Status                      { return r.status }
func (r *Reservation) Shipping() shared.ShippingAddress    { return r.shipping }
func (r *Reservation) Notes() string                       { return r.notes }
func (r *Reservation) CustomerOrderID() string             { return r.customerOrderID }
func (r *Reservation) CancelReason() string                { return r.cancelReason }
func (r *Reservation) CreatedAt() time.Time                { return r.createdAt }
func (r *Reservation) ExpiresAt() time.Time                { return r.expiresAt }
func (r *Reservation) ConfirmedAt() *time.Time             { return r.confirmedAt }
func (r *Reservation) CancelledAt() *time.Time             { return r.cancelledAt }

// Version is always zero; transitions are guarded by the previous status.
func (r *Reservation) Version() int { return 0 }

var _ shared.AggregateRoot = (*Reservation)(nil)
