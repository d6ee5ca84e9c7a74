package promotion

import (
	"fmt"
	"time"

	"bookstore/domain/shared"
)

// Validate decides whether p can be applied by a buyer who has already
// used it buyerUsage times, to a checkout whose combined total is
// orderTotal. The returned error wraps ErrInvalidPromotion and its message
// is the reason shown to the buyer.
func Validate(p *Promotion, buyerUsage int, orderTotal shared.Money, now time.Time) error {
	if p == nil {
		return NewInvalidPromotionError("", "promotion code does not exist")
	}

	if !p.active {
		return NewInvalidPromotionError(p.code, "promotion code has expired")
	}

	if now.Before(p.startDate) || !now.Before(p.endDate) {
		return NewInvalidPromotionError(p.code, "promotion code is not valid at this time")
	}

	if p.perUserLimit > 0 && buyerUsage >= p.perUserLimit {
		return NewInvalidPromotionError(p.code, "you have used this promotion code the maximum number of times")
	}

	if p.totalLimit > 0 && p.usageCount >= p.totalLimit {
		return NewInvalidPromotionError(p.code, "promotion code has been fully redeemed")
	}

	if p.minOrderValue != nil && orderTotal.IsLessThan(*p.minOrderValue) {
		return NewInvalidPromotionError(p.code,
			fmt.Sprintf("minimum order value for this code is %d VND", p.minOrderValue.Amount()))
	}

	return nil
}

// CalculateDiscount applies the three steps in order:
//  1. below the minimum order value nothing is taken off;
//  2. percentage is rounded half-up, a fixed amount is clamped to the total;
//  3. the cap applies to percentage promotions only.
func CalculateDiscount(p *Promotion, orderTotal shared.Money) (discount, finalTotal shared.Money) {
	zero := shared.Zero(orderTotal.Currency())

	if p == nil {
		return zero, orderTotal
	}

	if p.minOrderValue != nil && orderTotal.IsLessThan(*p.minOrderValue) {
		return zero, orderTotal
	}

	switch p.promoType {
	case TypePercentage:
		discount = orderTotal.Percent(p.value)
		if p.maxDiscount != nil && discount.IsGreaterThan(*p.maxDiscount) {
			discount = *p.maxDiscount
		}
	case TypeFixedAmount:
		discount = shared.VND(p.value).Min(orderTotal)
	default:
		return zero, orderTotal
	}

	discount = discount.ClampZero()
	remaining, err := orderTotal.Subtract(discount)
	if err != nil {
		return zero, orderTotal
	}
	return discount, remaining.ClampZero()
}
