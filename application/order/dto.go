package order

import (
	"time"

	"bookstore/domain/shared"
)

// UpdateOrderStatusRequest moves one seller's sub-order.
type UpdateOrderStatusRequest struct {
	OrderID string `json:"-"`
	Status  string `json:"status" binding:"required,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
	Reason  string `json:"reason"`
}

// CancelCustomerOrderRequest cancels a whole checkout on behalf of its buyer.
type CancelCustomerOrderRequest struct {
	BuyerID         string `json:"buyer_id" binding:"required"`
	CustomerOrderID string `json:"-"`
	Reason          string `json:"reason"`
}

// ListCustomerOrdersRequest filters a buyer's checkouts. Zero values are
// ignored; To is exclusive.
type ListCustomerOrdersRequest struct {
	BuyerID string    `form:"buyer_id" binding:"required"`
	Status  string    `form:"status" binding:"omitempty,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
	From    time.Time `form:"from" time_format:"2006-01-02"`
	To      time.Time `form:"to" time_format:"2006-01-02"`
}

// CustomerOrderResponse Customer order response DTO
type CustomerOrderResponse struct {
	ID                 string                 `json:"id"`
	BuyerID            string                 `json:"buyer_id"`
	Status             string                 `json:"status"`
	PaymentMethod      string                 `json:"payment_method"`
	PaymentStatus      string                 `json:"payment_status"`
	OriginalTotal      MoneyResponse          `json:"original_total"`
	DiscountAmount     MoneyResponse          `json:"discount_amount"`
	FinalTotal         MoneyResponse          `json:"final_total"`
	ShippingFee        MoneyResponse          `json:"shipping_fee"`
	PromotionCode      string                 `json:"promotion_code,omitempty"`
	GatewayTxnRef      string                 `json:"gateway_txn_ref,omitempty"`
	Shipping           shared.ShippingAddress `json:"shipping"`
	Notes              string                 `json:"notes,omitempty"`
	CancellationReason string                 `json:"cancellation_reason,omitempty"`
	Orders             []OrderResponse        `json:"orders"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// OrderResponse Per-seller order response DTO
type OrderResponse struct {
	ID                 string              `json:"id"`
	CustomerOrderID    string              `json:"customer_order_id"`
	SellerID           string              `json:"seller_id"`
	Items              []OrderItemResponse `json:"items"`
	Subtotal           MoneyResponse       `json:"subtotal"`
	ShippingFee        MoneyResponse       `json:"shipping_fee"`
	DiscountAmount     MoneyResponse       `json:"discount_amount"`
	DiscountCode       string              `json:"discount_code,omitempty"`
	Total              MoneyResponse       `json:"total"`
	Status             string              `json:"status"`
	PaymentStatus      string              `json:"payment_status"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// OrderItemResponse Order item response DTO
type OrderItemResponse struct {
	BookID    string        `json:"book_id"`
	Title     string        `json:"title"`
	Quantity  int           `json:"quantity"`
	UnitPrice MoneyResponse `json:"unit_price"`
	Subtotal  MoneyResponse `json:"subtotal"`
}

// MoneyResponse Money response DTO
type MoneyResponse struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
