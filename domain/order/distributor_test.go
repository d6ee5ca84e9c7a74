package order

import (
	"testing"

	"bookstore/domain/shared"

	"github.com/stretchr/testify/assert"
)

func TestDistribute_ScenarioA(t *testing.T) {
	a := newSellerOrder(t, 0, "seller-a", 100000)
	b := newSellerOrder(t, 1, "seller-b", 50000)

	got := DiscountDistributor{}.Distribute([]*Order{a, b}, shared.VND(42000), "SAVE20")

	assert.Equal(t, int64(42000), got.Amount())
	assert.Equal(t, int64(28000), a.DiscountAmount().Amount())
	assert.Equal(t, int64(14000), b.DiscountAmount().Amount())
	assert.Equal(t, int64(102000), a.Total().Amount())
	assert.Equal(t, int64(66000), b.Total().Amount())
	assert.Equal(t, "SAVE20", a.DiscountCode())
}

func TestDistribute_ScenarioB(t *testing.T) {
	a := newSellerOrder(t, 0, "seller-a", 100000)
	b := newSellerOrder(t, 1, "seller-b", 50000)

	got := DiscountDistributor{}.Distribute([]*Order{a, b}, shared.VND(30000), "FIXED30K")

	assert.Equal(t, int64(30000), got.Amount())
	assert.Equal(t, int64(20000), a.DiscountAmount().Amount())
	assert.Equal(t, int64(10000), b.DiscountAmount().Amount())
}

func TestDistribute_LastBySequenceAbsorbsRemainder(t *testing.T) {
	a := newSellerOrder(t, 0, "seller-a", 10000)
	b := newSellerOrder(t, 1, "seller-b", 10000)
	c := newSellerOrder(t, 2, "seller-c", 10000)

	// passed out of order on purpose
	DiscountDistributor{}.Distribute([]*Order{c, a, b}, shared.VND(100), "X")

	assert.Equal(t, int64(33), a.DiscountAmount().Amount())
	assert.Equal(t, int64(33), b.DiscountAmount().Amount())
	assert.Equal(t, int64(34), c.DiscountAmount().Amount())
}

func TestDistribute_ClampsToSubtotal(t *testing.T) {
	a := newSellerOrder(t, 0, "seller-a", 1000)
	b := newSellerOrder(t, 1, "seller-b", 1000)

	// discount larger than the goods, e.g. a 100% code on goods plus shipping
	got := DiscountDistributor{}.Distribute([]*Order{a, b}, shared.VND(50000), "ALL")

	assert.Equal(t, int64(1000), a.DiscountAmount().Amount())
	assert.Equal(t, int64(1000), b.DiscountAmount().Amount())
	assert.Equal(t, int64(2000), got.Amount())
	assert.Equal(t, int64(30000), a.Total().Amount())
}

func TestDistribute_NoOp(t *testing.T) {
	a := newSellerOrder(t, 0, "seller-a", 1000)

	assert.True(t, DiscountDistributor{}.Distribute(nil, shared.VND(100), "X").IsZero())
	assert.True(t, DiscountDistributor{}.Distribute([]*Order{a}, shared.VND(0), "X").IsZero())
	assert.True(t, DiscountDistributor{}.Distribute([]*Order{a}, shared.VND(-5), "X").IsZero())
	assert.True(t, a.DiscountAmount().IsZero())
	assert.Equal(t, int64(31000), a.Total().Amount())
}

func TestDistribute_SumsExactly(t *testing.T) {
	subtotals := [][]int64{
		{12345, 67890, 11111},
		{1, 1, 1, 1, 1, 1, 1},
		{99999, 1},
		{250000},
		{10000, 10000, 10000, 10000},
		{3, 3, 3, 3, 3},
	}
	for _, subs := range subtotals {
		for _, d := range []int64{1, 2, 3, 6, 7, 999, 12345} {
			orders := make([]*Order, len(subs))
			var sum int64
			for i, s := range subs {
				orders[i] = newSellerOrder(t, i, "seller-"+string(rune('a'+i)), s)
				sum += s
			}
			got := DiscountDistributor{}.Distribute(orders, shared.VND(d), "X")

			var assigned int64
			for _, o := range orders {
				assert.LessOrEqual(t, o.DiscountAmount().Amount(), o.Subtotal().Amount())
				assert.GreaterOrEqual(t, o.DiscountAmount().Amount(), int64(0))
				assigned += o.DiscountAmount().Amount()
			}
			assert.Equal(t, got.Amount(), assigned)
			if d <= sum {
				assert.Equal(t, d, assigned, "subs=%v d=%d", subs, d)
			}
		}
	}
}

func TestDistribute_HalfShareRoundingNeverExceedsTotal(t *testing.T) {
	orders := make([]*Order, 4)
	for i := range orders {
		orders[i] = newSellerOrder(t, i, "seller-"+string(rune('a'+i)), 10000)
	}

	// each share is exactly 0.5 and rounds up to 1
	got := DiscountDistributor{}.Distribute(orders, shared.VND(2), "TWO")

	assert.Equal(t, int64(2), got.Amount())
	assert.Equal(t, int64(1), orders[0].DiscountAmount().Amount())
	assert.Equal(t, int64(1), orders[1].DiscountAmount().Amount())
	assert.Equal(t, int64(0), orders[2].DiscountAmount().Amount())
	assert.Equal(t, int64(0), orders[3].DiscountAmount().Amount())
}
