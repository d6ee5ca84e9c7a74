package order

import (
	"testing"

	"bookstore/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddress = shared.ShippingAddress{
	RecipientName:  "Tran Thi B",
	RecipientPhone: "0912345678",
	Detail:         "1 Nguyen Hue",
	Province:       "Ho Chi Minh",
}

func newSellerOrder(t *testing.T, seq int, seller string, subtotal int64) *Order {
	t.Helper()
	o, err := NewOrder(NewOrderParams{
		CustomerOrderID: "co-1",
		Sequence:        seq,
		BuyerID:         "buyer-1",
		SellerID:        seller,
		Shipping:        testAddress,
		Lines: []CartLine{
			{BookID: "book-" + seller, Title: "Book", Quantity: 1, UnitPrice: shared.VND(subtotal), SellerID: seller},
		},
		ShippingFee:   shared.VND(30000),
		PaymentMethod: shared.PaymentCOD,
	})
	require.NoError(t, err)
	return o
}

func TestNewOrder(t *testing.T) {
	o, err := NewOrder(NewOrderParams{
		CustomerOrderID: "co-1",
		BuyerID:         "buyer-1",
		SellerID:        "seller-a",
		Shipping:        testAddress,
		Lines: []CartLine{
			{BookID: "b1", Title: "Go", Quantity: 2, UnitPrice: shared.VND(45000), SellerID: "seller-a"},
			{BookID: "b2", Title: "DDD", Quantity: 1, UnitPrice: shared.VND(10000), SellerID: "seller-a"},
		},
		ShippingFee:   shared.VND(30000),
		PaymentMethod: shared.PaymentCOD,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100000), o.Subtotal().Amount())
	assert.Equal(t, int64(130000), o.Total().Amount())
	assert.Equal(t, StatusPending, o.Status())
	assert.Equal(t, shared.PaymentPending, o.PaymentStatus())
	assert.Len(t, o.Items(), 2)
	assert.True(t, o.IsNew())
}

func TestNewOrder_Rejects(t *testing.T) {
	base := NewOrderParams{
		CustomerOrderID: "co-1",
		BuyerID:         "buyer-1",
		SellerID:        "seller-a",
		ShippingFee:     shared.VND(30000),
		PaymentMethod:   shared.PaymentCOD,
		Lines:           []CartLine{{BookID: "b1", Quantity: 1, UnitPrice: shared.VND(1000), SellerID: "seller-a"}},
	}

	empty := base
	empty.Lines = nil
	_, err := NewOrder(empty)
	assert.ErrorIs(t, err, ErrEmptyOrderItems)

	zeroQty := base
	zeroQty.Lines = []CartLine{{BookID: "b1", Quantity: 0, UnitPrice: shared.VND(1000), SellerID: "seller-a"}}
	_, err = NewOrder(zeroQty)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	foreign := base
	foreign.Lines = []CartLine{{BookID: "b1", Quantity: 1, UnitPrice: shared.VND(1000), SellerID: "seller-b"}}
	_, err = NewOrder(foreign)
	assert.ErrorIs(t, err, ErrInvalidOrder)

	method := base
	method.PaymentMethod = "BITCOIN"
	_, err = NewOrder(method)
	assert.ErrorIs(t, err, ErrInvalidOrder)
}

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, true},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusProcessing, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
	assert.True(t, StatusDelivered.IsFinal())
	assert.True(t, StatusCancelled.IsFinal())
}

func TestOrder_CancelRecordsReasonAndEvent(t *testing.T) {
	o := newSellerOrder(t, 0, "seller-a", 50000)
	require.NoError(t, o.StartProcessing())
	require.NoError(t, o.Cancel("changed my mind"))

	assert.Equal(t, StatusCancelled, o.Status())
	assert.Equal(t, "changed my mind", o.CancellationReason())
	assert.False(t, o.CanCancel())

	err := o.Cancel("again")
	assert.ErrorIs(t, err, ErrInvalidOrderState)

	events := o.PullEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "order.status_changed", events[1].EventName())
}

func TestOrder_MarkRefundedRequiresPaid(t *testing.T) {
	o := newSellerOrder(t, 0, "seller-a", 50000)
	assert.ErrorIs(t, o.MarkRefunded(), ErrInvalidOrder)

	o.MarkPaid()
	require.NoError(t, o.MarkRefunded())
	assert.Equal(t, shared.PaymentRefunded, o.PaymentStatus())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("LOST")
	assert.ErrorIs(t, err, ErrInvalidOrder)
}
