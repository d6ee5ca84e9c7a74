package payment

import (
	"time"

	"bookstore/domain/shared"
)

type ReservationCreatedEvent struct {
	shared.BaseEvent
	buyerID   string
	txnRef    string
	amount    shared.Money
	expiresAt time.Time
}

func NewReservationCreatedEvent(r *Reservation) *ReservationCreatedEvent {
	return &ReservationCreatedEvent{
		BaseEvent: shared.NewBaseEvent("payment.reservation_created", r.id),
		buyerID:   r.buyerID,
		txnRef:    r.txnRef,
		amount:    r.totalAmount,
		expiresAt: r.expiresAt,
	}
}

func (e *ReservationCreatedEvent) Payload() map[string]any {
	return map[string]any{
		"buyer_id":   e.buyerID,
		"txn_ref":    e.txnRef,
		"amount":     e.amount.Amount(),
		"expires_at": e.expiresAt,
	}
}

type ReservationConfirmedEvent struct {
	shared.BaseEvent
	txnRef          string
	customerOrderID string
}

func NewReservationConfirmedEvent(id, txnRef, customerOrderID string) *ReservationConfirmedEvent {
	return &ReservationConfirmedEvent{
		BaseEvent:       shared.NewBaseEvent("payment.reservation_confirmed", id),
		txnRef:          txnRef,
		customerOrderID: customerOrderID,
	}
}

func (e *ReservationConfirmedEvent) Payload() map[string]any {
	return map[string]any{"txn_ref": e.txnRef, "customer_order_id": e.customerOrderID}
}

// ReservationCancelledEvent covers both cancellation and expiry; status
// tells them apart.
type ReservationCancelledEvent struct {
	shared.BaseEvent
	txnRef string
	status string
	reason string
}

func NewReservationCancelledEvent(id, txnRef, status, reason string) *ReservationCancelledEvent {
	name := "payment.reservation_cancelled"
	if status == string(StatusExpired) {
		name = "payment.reservation_expired"
	}
	return &ReservationCancelledEvent{
		BaseEvent: shared.NewBaseEvent(name, id),
		txnRef:    txnRef,
		status:    status,
		reason:    reason,
	}
}

func (e *ReservationCancelledEvent) Payload() map[string]any {
	return map[string]any{"txn_ref": e.txnRef, "status": e.status, "reason": e.reason}
}
