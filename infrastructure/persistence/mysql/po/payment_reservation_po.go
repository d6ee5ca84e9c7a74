package po

import (
	"time"

	"bookstore/domain/payment"
	"bookstore/domain/shared"
)

// PaymentReservationPO stores a gateway payment awaiting its callback.
// Snapshot is the frozen checkout the customer order is rebuilt from.
type PaymentReservationPO struct {
	ID              string     `gorm:"primaryKey;size:64"`
	BuyerID         string     `gorm:"size:64;index;not null"`
	TxnRef          string     `gorm:"size:32;uniqueIndex;not null"`
	Snapshot        string     `gorm:"type:json;not null"`
	TotalAmount     int64      `gorm:"not null"`
	ShippingFee     int64      `gorm:"not null"`
	DiscountAmount  int64      `gorm:"not null"`
	Currency        string     `gorm:"size:3;not null"`
	PaymentMethod   string     `gorm:"size:20;not null"`
	Status          string     `gorm:"size:20;not null;index:idx_pay_res_status_expiry,priority:1"`
	Shipping        ShippingPO `gorm:"embedded;embeddedPrefix:ship_"`
	Notes           string     `gorm:"size:500"`
	CustomerOrderID string     `gorm:"size:64"`
	CancelReason    string     `gorm:"size:255"`
	CreatedAt       time.Time  `gorm:"not null"`
	ExpiresAt       time.Time  `gorm:"not null;index:idx_pay_res_status_expiry,priority:2"`
	ConfirmedAt     *time.Time
	CancelledAt     *time.Time
}

func (PaymentReservationPO) TableName() string {
	return "payment_reservations"
}

func FromPaymentReservation(r *payment.Reservation) *PaymentReservationPO {
	return &PaymentReservationPO{
		ID:              r.ID(),
		BuyerID:         r.BuyerID(),
		TxnRef:          r.TxnRef(),
		Snapshot:        r.RawSnapshot(),
		TotalAmount:     r.TotalAmount().Amount(),
		ShippingFee:     r.ShippingFee().Amount(),
		DiscountAmount:  r.DiscountAmount().Amount(),
		Currency:        r.TotalAmount().Currency(),
		PaymentMethod:   string(r.PaymentMethod()),
		Status:          string(r.Status()),
		Shipping:        FromShipping(r.Shipping()),
		Notes:           r.Notes(),
		CustomerOrderID: r.CustomerOrderID(),
		CancelReason:    r.CancelReason(),
		CreatedAt:       r.CreatedAt(),
		ExpiresAt:       r.ExpiresAt(),
		ConfirmedAt:     r.ConfirmedAt(),
		CancelledAt:     r.CancelledAt(),
	}
}

// StatusColumns are the only columns a state transition writes.
func (p *PaymentReservationPO) StatusColumns() map[string]interface{} {
	return map[string]interface{}{
		"status":            p.Status,
		"customer_order_id": p.CustomerOrderID,
		"cancel_reason":     p.CancelReason,
		"confirmed_at":      p.ConfirmedAt,
		"cancelled_at":      p.CancelledAt,
	}
}

func (p *PaymentReservationPO) ToDomain() *payment.Reservation {
	return payment.RebuildFromDTO(payment.ReconstructionDTO{
		ID:              p.ID,
		BuyerID:         p.BuyerID,
		TxnRef:          p.TxnRef,
		Snapshot:        p.Snapshot,
		TotalAmount:     *shared.NewMoney(p.TotalAmount, p.Currency),
		ShippingFee:     *shared.NewMoney(p.ShippingFee, p.Currency),
		DiscountAmount:  *shared.NewMoney(p.DiscountAmount, p.Currency),
		PaymentMethod:   shared.PaymentMethod(p.PaymentMethod),
		Status:          payment.Status(p.Status),
		Shipping:        p.Shipping.ToDomain(),
		Notes:           p.Notes,
		CustomerOrderID: p.CustomerOrderID,
		CancelReason:    p.CancelReason,
		CreatedAt:       p.CreatedAt,
		ExpiresAt:       p.ExpiresAt,
		ConfirmedAt:     p.ConfirmedAt,
		CancelledAt:     p.CancelledAt,
	})
}
