package shared

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Multiply(t *testing.T) {
	price := VND(45000)

	got, err := price.Multiply(3)
	require.NoError(t, err)
	assert.Equal(t, int64(135000), got.Amount())
	assert.Equal(t, CurrencyVND, got.Currency())

	_, err = VND(math.MaxInt64 / 2).Multiply(3)
	assert.ErrorIs(t, err, ErrMoneyOverflow)
}

func TestMoney_AddCurrencyMismatch(t *testing.T) {
	_, err := VND(1).Add(*NewMoney(1, "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_PercentRoundsHalfUp(t *testing.T) {
	tests := []struct {
		name    string
		amount  int64
		percent int64
		want    int64
	}{
		{"exact", 210000, 20, 42000},
		{"half rounds up", 15, 10, 2},         // 1.5
		{"below half rounds down", 14, 10, 1}, // 1.4
		{"hundred percent", 99999, 100, 99999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VND(tt.amount).Percent(tt.percent).Amount())
		})
	}
}

func TestMoney_Share(t *testing.T) {
	d := VND(30000)

	assert.Equal(t, int64(20000), d.Share(100000, 150000).Amount())
	assert.Equal(t, int64(10000), d.Share(50000, 150000).Amount())
	assert.Equal(t, int64(0), d.Share(1, 0).Amount())
	// 10 × 1/3 = 3.33 → 3
	assert.Equal(t, int64(3), VND(10).Share(1, 3).Amount())
	// 5 × 1/2 = 2.5 → 3
	assert.Equal(t, int64(3), VND(5).Share(1, 2).Amount())
}

func TestMoney_ClampAndMin(t *testing.T) {
	assert.True(t, VND(-5).ClampZero().IsZero())
	assert.Equal(t, int64(7), VND(7).ClampZero().Amount())
	assert.Equal(t, int64(3), VND(7).Min(VND(3)).Amount())
}

func TestShippingAddress_Validate(t *testing.T) {
	ok := ShippingAddress{
		RecipientName:  "Nguyen Van A",
		RecipientPhone: "0901234567",
		Detail:         "12 Ly Thuong Kiet",
		Ward:           "Ward 7",
		District:       "District 10",
		Province:       "Ho Chi Minh",
	}
	require.NoError(t, ok.Validate())

	missing := ok
	missing.RecipientPhone = ""
	err := missing.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	var de *DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "recipient_phone", de.Field)
	assert.NotEmpty(t, de.Stack())
}
