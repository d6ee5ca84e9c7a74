package promotion

import "bookstore/domain/shared"

type PromotionUsedEvent struct {
	shared.BaseEvent
	code            string
	buyerID         string
	customerOrderID string
	discount        shared.Money
}

func NewPromotionUsedEvent(promotionID, code, buyerID, customerOrderID string, discount shared.Money) *PromotionUsedEvent {
	return &PromotionUsedEvent{
		BaseEvent:       shared.NewBaseEvent("promotion.used", promotionID),
		code:            code,
		buyerID:         buyerID,
		customerOrderID: customerOrderID,
		discount:        discount,
	}
}

func (e *PromotionUsedEvent) Code() string { return e.code }

func (e *PromotionUsedEvent) Payload() map[string]any {
	return map[string]any{
		"code":              e.code,
		"buyer_id":          e.buyerID,
		"customer_order_id": e.customerOrderID,
		"discount":          e.discount.Amount(),
	}
}
