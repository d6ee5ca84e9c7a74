package shared

// PaymentMethod is how a buyer pays for a checkout.
type PaymentMethod string

const (
	// PaymentCOD is settled on delivery; checkout finalizes immediately.
	PaymentCOD PaymentMethod = "COD"
	// PaymentVNPay is settled through the gateway; checkout waits for the callback.
	PaymentVNPay PaymentMethod = "VNPAY"
)

// IsValid reports whether m is a supported method.
func (m PaymentMethod) IsValid() bool {
	return m == PaymentCOD || m == PaymentVNPay
}

// IsAsynchronous reports whether the method settles through a gateway callback.
func (m PaymentMethod) IsAsynchronous() bool {
	return m == PaymentVNPay
}

// PaymentStatus tracks the money side of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)
