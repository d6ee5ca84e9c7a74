package inventory

import (
	"time"

	"bookstore/domain/shared"
)

func linesPayload(lines []Line) []map[string]any {
	out := make([]map[string]any, len(lines))
	for i, l := range lines {
		out[i] = map[string]any{"book_id": l.BookID, "quantity": l.Quantity}
	}
	return out
}

type StockReservedEvent struct {
	shared.BaseEvent
	ownerID   string
	lines     []Line
	expiresAt time.Time
}

func NewStockReservedEvent(reservationID, ownerID string, lines []Line, expiresAt time.Time) *StockReservedEvent {
	return &StockReservedEvent{
		BaseEvent: shared.NewBaseEvent("inventory.reserved", reservationID),
		ownerID:   ownerID,
		lines:     lines,
		expiresAt: expiresAt,
	}
}

func (e *StockReservedEvent) Payload() map[string]any {
	return map[string]any{
		"owner_id":   e.ownerID,
		"lines":      linesPayload(e.lines),
		"expires_at": e.expiresAt,
	}
}

type StockConfirmedEvent struct {
	shared.BaseEvent
	ownerID string
}

func NewStockConfirmedEvent(reservationID, ownerID string) *StockConfirmedEvent {
	return &StockConfirmedEvent{
		BaseEvent: shared.NewBaseEvent("inventory.confirmed", reservationID),
		ownerID:   ownerID,
	}
}

func (e *StockConfirmedEvent) Payload() map[string]any {
	return map[string]any{"owner_id": e.ownerID}
}

type StockReleasedEvent struct {
	shared.BaseEvent
	ownerID string
	lines   []Line
	reason  string
}

func NewStockReleasedEvent(reservationID, ownerID string, lines []Line, reason string) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseEvent: shared.NewBaseEvent("inventory.released", reservationID),
		ownerID:   ownerID,
		lines:     lines,
		reason:    reason,
	}
}

func (e *StockReleasedEvent) Payload() map[string]any {
	return map[string]any{
		"owner_id": e.ownerID,
		"lines":    linesPayload(e.lines),
		"reason":   e.reason,
	}
}
