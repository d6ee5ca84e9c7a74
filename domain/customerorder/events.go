package customerorder

import "bookstore/domain/shared"

// OrderPlacedEvent is published once per checkout that produced orders.
type OrderPlacedEvent struct {
	shared.BaseEvent
	buyerID       string
	paymentMethod shared.PaymentMethod
	finalTotal    shared.Money
	discount      shared.Money
	promotionCode string
	orderIDs      []string
}

func NewOrderPlacedEvent(co *CustomerOrder) *OrderPlacedEvent {
	ids := make([]string, len(co.orders))
	for i, o := range co.orders {
		ids[i] = o.ID()
	}
	return &OrderPlacedEvent{
		BaseEvent:     shared.NewBaseEvent("checkout.order_placed", co.id),
		buyerID:       co.buyerID,
		paymentMethod: co.paymentMethod,
		finalTotal:    co.finalTotal,
		discount:      co.discountAmount,
		promotionCode: co.promotionCode,
		orderIDs:      ids,
	}
}

func (e *OrderPlacedEvent) Payload() map[string]any {
	return map[string]any{
		"buyer_id":       e.buyerID,
		"payment_method": string(e.paymentMethod),
		"final_total":    e.finalTotal.Amount(),
		"discount":       e.discount.Amount(),
		"promotion_code": e.promotionCode,
		"order_ids":      e.orderIDs,
	}
}

type CustomerOrderCancelledEvent struct {
	shared.BaseEvent
	buyerID    string
	reason     string
	refundOwed bool
}

func NewCustomerOrderCancelledEvent(id, buyerID, reason string, refundOwed bool) *CustomerOrderCancelledEvent {
	return &CustomerOrderCancelledEvent{
		BaseEvent:  shared.NewBaseEvent("customer_order.cancelled", id),
		buyerID:    buyerID,
		reason:     reason,
		refundOwed: refundOwed,
	}
}

func (e *CustomerOrderCancelledEvent) Payload() map[string]any {
	return map[string]any{
		"buyer_id":    e.buyerID,
		"reason":      e.reason,
		"refund_owed": e.refundOwed,
	}
}
