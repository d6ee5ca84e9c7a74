package promotion

import (
	"testing"
	"time"

	"bookstore/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(v int64) *shared.Money {
	m := shared.VND(v)
	return &m
}

func newPromotion(t *testing.T, def Definition) *Promotion {
	t.Helper()
	if def.StartDate.IsZero() {
		def.StartDate = time.Now().Add(-24 * time.Hour)
	}
	if def.EndDate.IsZero() {
		def.EndDate = time.Now().Add(24 * time.Hour)
	}
	p, err := New(def)
	require.NoError(t, err)
	return p
}

func save20(t *testing.T) *Promotion {
	return newPromotion(t, Definition{
		Code:          "save20",
		Type:          TypePercentage,
		Value:         20,
		MaxDiscount:   money(50000),
		MinOrderValue: money(100000),
		Active:        true,
	})
}

func TestNew_ValueRange(t *testing.T) {
	tests := []struct {
		name  string
		typ   Type
		value int64
		ok    bool
	}{
		{"percentage lower bound", TypePercentage, 1, true},
		{"percentage upper bound", TypePercentage, 100, true},
		{"percentage zero", TypePercentage, 0, false},
		{"percentage over 100", TypePercentage, 101, false},
		{"fixed positive", TypeFixedAmount, 30000, true},
		{"fixed zero", TypeFixedAmount, 0, false},
		{"unknown type", Type("BOGO"), 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Definition{
				Code:      "X",
				Type:      tt.typ,
				Value:     tt.value,
				StartDate: time.Now(),
				EndDate:   time.Now().Add(time.Hour),
			})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidPromotionDefinition)
			}
		})
	}
}

func TestNew_NormalizesCode(t *testing.T) {
	p := save20(t)
	assert.Equal(t, "SAVE20", p.Code())
}

func TestValidate(t *testing.T) {
	now := time.Now()

	t.Run("eligible", func(t *testing.T) {
		assert.NoError(t, Validate(save20(t), 0, shared.VND(210000), now))
	})

	t.Run("missing promotion", func(t *testing.T) {
		assert.ErrorIs(t, Validate(nil, 0, shared.VND(210000), now), ErrInvalidPromotion)
	})

	t.Run("inactive", func(t *testing.T) {
		p := save20(t)
		p.Deactivate()
		assert.ErrorIs(t, Validate(p, 0, shared.VND(210000), now), ErrInvalidPromotion)
	})

	t.Run("window is half open", func(t *testing.T) {
		p := save20(t)
		assert.ErrorIs(t, Validate(p, 0, shared.VND(210000), p.EndDate()), ErrInvalidPromotion)
		assert.NoError(t, Validate(p, 0, shared.VND(210000), p.StartDate()))
		assert.ErrorIs(t, Validate(p, 0, shared.VND(210000), p.StartDate().Add(-time.Second)), ErrInvalidPromotion)
	})

	t.Run("per user limit", func(t *testing.T) {
		p := newPromotion(t, Definition{Code: "ONCE", Type: TypeFixedAmount, Value: 1000, Active: true, PerUserLimit: 1})
		assert.NoError(t, Validate(p, 0, shared.VND(5000), now))
		assert.ErrorIs(t, Validate(p, 1, shared.VND(5000), now), ErrInvalidPromotion)
	})

	t.Run("total limit", func(t *testing.T) {
		p := newPromotion(t, Definition{Code: "TWO", Type: TypeFixedAmount, Value: 1000, Active: true, TotalLimit: 2})
		for i := 0; i < 2; i++ {
			_, err := p.RecordUsage("buyer", "co", shared.VND(1000))
			require.NoError(t, err)
		}
		assert.ErrorIs(t, Validate(p, 0, shared.VND(5000), now), ErrInvalidPromotion)
	})

	t.Run("below minimum", func(t *testing.T) {
		err := Validate(save20(t), 0, shared.VND(99999), now)
		require.ErrorIs(t, err, ErrInvalidPromotion)
		assert.Contains(t, err.Error(), "100000")
	})
}

func TestCalculateDiscount(t *testing.T) {
	fixed30k := newPromotion(t, Definition{
		Code: "FIXED30K", Type: TypeFixedAmount, Value: 30000, MinOrderValue: money(50000), Active: true,
	})
	bigFixed := newPromotion(t, Definition{Code: "BIG", Type: TypeFixedAmount, Value: 500000, Active: true})
	capped := newPromotion(t, Definition{
		Code: "HALF", Type: TypePercentage, Value: 50, MaxDiscount: money(50000), Active: true,
	})
	uncapped := newPromotion(t, Definition{Code: "TEN", Type: TypePercentage, Value: 10, Active: true})

	tests := []struct {
		name         string
		promo        *Promotion
		total        int64
		wantDiscount int64
		wantFinal    int64
	}{
		{"scenario A percentage under cap", save20(t), 210000, 42000, 168000},
		{"below minimum gates everything", save20(t), 90000, 0, 90000},
		{"percentage capped", capped, 300000, 50000, 250000},
		{"percentage rounds half up", uncapped, 15, 2, 13},
		{"fixed amount", fixed30k, 210000, 30000, 180000},
		{"fixed clamped to total", bigFixed, 120000, 120000, 0},
		{"nil promotion", nil, 1000, 0, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, f := CalculateDiscount(tt.promo, shared.VND(tt.total))
			assert.Equal(t, tt.wantDiscount, d.Amount())
			assert.Equal(t, tt.wantFinal, f.Amount())
		})
	}
}

func TestCalculateDiscount_Bounds(t *testing.T) {
	promos := []*Promotion{
		save20(t),
		newPromotion(t, Definition{Code: "P100", Type: TypePercentage, Value: 100, Active: true}),
		newPromotion(t, Definition{Code: "F", Type: TypeFixedAmount, Value: 77777, Active: true}),
	}
	for _, p := range promos {
		for _, total := range []int64{0, 1, 999, 50000, 100000, 123457, 1000000} {
			d, f := CalculateDiscount(p, shared.VND(total))
			assert.False(t, d.IsNegative(), "%s/%d", p.Code(), total)
			assert.False(t, f.IsNegative(), "%s/%d", p.Code(), total)
			assert.LessOrEqual(t, d.Amount(), total)
			if p.MaxDiscount() != nil {
				assert.LessOrEqual(t, d.Amount(), p.MaxDiscount().Amount())
			}
		}
	}
}

func TestRecordUsage(t *testing.T) {
	p := save20(t)

	usage, err := p.RecordUsage("buyer-1", "co-1", shared.VND(42000))
	require.NoError(t, err)

	assert.Equal(t, 1, p.UsageCount())
	assert.Equal(t, "SAVE20", usage.PromotionCode)
	assert.Equal(t, int64(42000), usage.DiscountAmount.Amount())

	events := p.PullEvents()
	require.Len(t, events, 1)
	assert.Equal(t, "promotion.used", events[0].EventName())
	assert.Empty(t, p.PullEvents())
}

func TestNotFoundMatchesInvalidPromotion(t *testing.T) {
	err := NewPromotionNotFoundError("NOPE")
	assert.ErrorIs(t, err, ErrPromotionNotFound)
	assert.ErrorIs(t, err, ErrInvalidPromotion)
}
