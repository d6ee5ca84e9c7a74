package shared

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

// CurrencyVND is the only currency the marketplace settles in.
// One unit is one đồng; there are no minor units.
const CurrencyVND = "VND"

var (
	ErrCurrencyMismatch = errors.New("money currencies do not match")
	ErrMoneyOverflow    = errors.New("money amount overflow")
)

// Money 值对象 - 表示金额
type Money struct {
	amount   int64  // smallest currency unit
	currency string // ISO code, e.g. VND
}

// NewMoney 创建新的Money值对象
func NewMoney(amount int64, currency string) *Money {
	return &Money{
		amount:   amount,
		currency: currency,
	}
}

// VND is shorthand for a Money value in đồng.
func VND(amount int64) Money {
	return Money{amount: amount, currency: CurrencyVND}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money {
	return Money{currency: currency}
}

// Amount 获取金额数量
func (m Money) Amount() int64 {
	return m.amount
}

// Currency 获取货币类型
func (m Money) Currency() string {
	return m.currency
}

func (m Money) IsZero() bool     { return m.amount == 0 }
func (m Money) IsPositive() bool { return m.amount > 0 }
func (m Money) IsNegative() bool { return m.amount < 0 }

// Add 金额相加，返回新的Money值对象
func (m Money) Add(other Money) (*Money, error) {
	if m.currency != other.currency {
		return nil, ErrCurrencyMismatch
	}
	sum := m.amount + other.amount
	if (other.amount > 0 && sum < m.amount) || (other.amount < 0 && sum > m.amount) {
		return nil, ErrMoneyOverflow
	}

	return &Money{
		amount:   sum,
		currency: m.currency,
	}, nil
}

// Subtract 金额相减，返回新的Money值对象
func (m Money) Subtract(other Money) (*Money, error) {
	if m.currency != other.currency {
		return nil, ErrCurrencyMismatch
	}

	return &Money{
		amount:   m.amount - other.amount,
		currency: m.currency,
	}, nil
}

// Multiply returns m × quantity, failing on int64 overflow.
func (m Money) Multiply(quantity int) (*Money, error) {
	if quantity == 0 || m.amount == 0 {
		return &Money{amount: 0, currency: m.currency}, nil
	}
	q := int64(quantity)
	if m.amount > math.MaxInt64/absInt64(q) || m.amount < -math.MaxInt64/absInt64(q) {
		return nil, ErrMoneyOverflow
	}

	return &Money{
		amount:   m.amount * q,
		currency: m.currency,
	}, nil
}

// Percent returns m × percent / 100 rounded half-up to the currency unit.
func (m Money) Percent(percent int64) Money {
	v := decimal.NewFromInt(m.amount).
		Mul(decimal.NewFromInt(percent)).
		DivRound(decimal.NewFromInt(100), 0)
	return Money{amount: v.IntPart(), currency: m.currency}
}

// Share returns m × part / whole rounded half-up to the currency unit.
// The ratio is first fixed at ten decimal places, so shares computed for
// different parts of the same whole are consistent with each other.
func (m Money) Share(part, whole int64) Money {
	if whole == 0 {
		return Money{currency: m.currency}
	}
	ratio := decimal.NewFromInt(part).DivRound(decimal.NewFromInt(whole), 10)
	v := decimal.NewFromInt(m.amount).Mul(ratio).Round(0)
	return Money{amount: v.IntPart(), currency: m.currency}
}

// Min returns the smaller of m and other. Currencies are assumed equal.
func (m Money) Min(other Money) Money {
	if other.amount < m.amount {
		return other
	}
	return m
}

// ClampZero returns m, or zero if m is negative.
func (m Money) ClampZero() Money {
	if m.amount < 0 {
		return Money{currency: m.currency}
	}
	return m
}

// IsGreaterThan 比较金额是否大于另一个金额
func (m Money) IsGreaterThan(other Money) bool {
	return m.amount > other.amount
}

// IsGreaterThanOrEqual 比较金额是否大于或等于另一个金额
func (m Money) IsGreaterThanOrEqual(other Money) bool {
	return m.amount >= other.amount
}

// IsLessThan reports whether m < other.
func (m Money) IsLessThan(other Money) bool {
	return m.amount < other.amount
}

// Equals 比较两个Money值对象是否相等
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// ShippingAddress is the recipient snapshot copied onto orders and
// reservations at checkout time.
type ShippingAddress struct {
	RecipientName  string `json:"recipient_name"`
	RecipientPhone string `json:"recipient_phone"`
	Detail         string `json:"detail"`
	Ward           string `json:"ward"`
	District       string `json:"district"`
	Province       string `json:"province"`
}

// Validate checks the fields a courier needs.
func (a ShippingAddress) Validate() error {
	switch {
	case a.RecipientName == "":
		return NewValidationError("shipping_address", "recipient_name", "recipient name is required")
	case a.RecipientPhone == "":
		return NewValidationError("shipping_address", "recipient_phone", "recipient phone is required")
	case a.Detail == "" || a.Province == "":
		return NewValidationError("shipping_address", "detail", "address detail and province are required")
	}
	return nil
}

// Equals compares two addresses field by field.
func (a ShippingAddress) Equals(other interface{}) bool {
	o, ok := other.(ShippingAddress)
	return ok && a == o
}
