package order

import "bookstore/domain/shared"

type OrderStatusChangedEvent struct {
	shared.BaseEvent
	customerOrderID string
	from            Status
	to              Status
	reason          string
}

func NewOrderStatusChangedEvent(orderID, customerOrderID string, from, to Status, reason string) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseEvent:       shared.NewBaseEvent("order.status_changed", orderID),
		customerOrderID: customerOrderID,
		from:            from,
		to:              to,
		reason:          reason,
	}
}

func (e *OrderStatusChangedEvent) From() Status   { return e.from }
func (e *OrderStatusChangedEvent) To() Status     { return e.to }
func (e *OrderStatusChangedEvent) Reason() string { return e.reason }

func (e *OrderStatusChangedEvent) Payload() map[string]any {
	return map[string]any{
		"customer_order_id": e.customerOrderID,
		"from":              string(e.from),
		"to":                string(e.to),
		"reason":            e.reason,
	}
}
