package checkout

import "time"

// ============================================================================
// DTO Definitions - Data Transfer Objects
// ============================================================================

// Request Checkout request DTO. Either Items (the selected cart lines) or
// BuyNow is set; either AddressID or Shipping is set.
type Request struct {
	BuyerID       string           `json:"buyer_id" binding:"required"`
	Items         []LineRequest    `json:"items" binding:"omitempty,dive"`
	BuyNow        *LineRequest     `json:"buy_now"`
	AddressID     string           `json:"address_id"`
	Shipping      *ShippingRequest `json:"shipping"`
	PaymentMethod string           `json:"payment_method" binding:"required,oneof=COD VNPAY"`
	PromotionCode string           `json:"promotion_code"`
	Notes         string           `json:"notes" binding:"max=500"`
	ClientIP      string           `json:"-"`
}

// LineRequest Checkout line request DTO
type LineRequest struct {
	BookID   string `json:"book_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// ShippingRequest Inline shipping address DTO
type ShippingRequest struct {
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	Detail         string `json:"detail"`
	Ward           string `json:"ward"`
	District       string `json:"district"`
	Province       string `json:"province"`
}

// Response Checkout response DTO. COD checkouts carry the customer order;
// gateway checkouts carry the redirect URL and the payment window.
type Response struct {
	PaymentMethod   string     `json:"payment_method"`
	CustomerOrderID string     `json:"customer_order_id,omitempty"`
	Status          string     `json:"status,omitempty"`
	OriginalTotal   int64      `json:"original_total"`
	DiscountAmount  int64      `json:"discount_amount"`
	FinalTotal      int64      `json:"final_total"`
	PaymentURL      string     `json:"payment_url,omitempty"`
	TxnRef          string     `json:"txn_ref,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
}
