package order

import (
	"sort"

	"bookstore/domain/shared"
)

// DiscountDistributor splits one checkout-wide discount across the
// per-seller orders of that checkout, proportionally to their subtotals.
//
// Orders are processed in ascending creation sequence (ties broken by id);
// the last one absorbs the rounding remainder so the shares add up to the
// distributed amount exactly. Half-up rounding can push the running sum
// past the total, so each share is capped at what is still undistributed.
type DiscountDistributor struct{}

// Distribute assigns each order its share of total and returns the amount
// actually distributed. That is total, unless clamping to subtotals left
// part of it unassigned. It does nothing and returns zero for an empty
// list, a non-positive discount or a non-positive subtotal sum.
func (DiscountDistributor) Distribute(orders []*Order, total shared.Money, code string) shared.Money {
	zero := shared.Zero(total.Currency())
	if len(orders) == 0 || !total.IsPositive() {
		return zero
	}

	var sum int64
	for _, o := range orders {
		sum += o.subtotal.Amount()
	}
	if sum <= 0 {
		return zero
	}

	sorted := make([]*Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].sequence != sorted[j].sequence {
			return sorted[i].sequence < sorted[j].sequence
		}
		return sorted[i].id < sorted[j].id
	})

	var assigned int64
	last := len(sorted) - 1
	for _, o := range sorted[:last] {
		remaining := shared.VND(total.Amount() - assigned)
		share := total.Share(o.subtotal.Amount(), sum).Min(o.subtotal).Min(remaining)
		o.ApplyDiscount(share, code)
		assigned += o.discountAmount.Amount()
	}

	tail := sorted[last]
	tail.ApplyDiscount(shared.VND(total.Amount()-assigned), code)
	assigned += tail.discountAmount.Amount()

	return shared.VND(assigned)
}
