package customerorder

import (
	"testing"

	"bookstore/domain/order"
	"bookstore/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOrders(t *testing.T, coID string, method shared.PaymentMethod, subtotals ...int64) []*order.Order {
	t.Helper()
	orders := make([]*order.Order, len(subtotals))
	for i, sub := range subtotals {
		seller := "seller-" + string(rune('a'+i))
		o, err := order.NewOrder(order.NewOrderParams{
			CustomerOrderID: coID,
			Sequence:        i,
			BuyerID:         "buyer-1",
			SellerID:        seller,
			Lines: []order.CartLine{
				{BookID: "book-" + seller, Title: "T", Quantity: 1, UnitPrice: shared.VND(sub), SellerID: seller},
			},
			ShippingFee:   shared.VND(30000),
			PaymentMethod: method,
		})
		require.NoError(t, err)
		orders[i] = o
	}
	return orders
}

func placeScenarioA(t *testing.T, method shared.PaymentMethod) *CustomerOrder {
	t.Helper()
	id, err := NewID()
	require.NoError(t, err)

	orders := buildOrders(t, id, method, 100000, 50000)
	order.DiscountDistributor{}.Distribute(orders, shared.VND(42000), "SAVE20")

	co, err := Place(PlaceParams{
		ID:            id,
		BuyerID:       "buyer-1",
		PaymentMethod: method,
		Orders:        orders,
		PromotionCode: "SAVE20",
	})
	require.NoError(t, err)
	return co
}

func TestPlace_Totals(t *testing.T) {
	co := placeScenarioA(t, shared.PaymentCOD)

	assert.Equal(t, int64(210000), co.OriginalTotal().Amount())
	assert.Equal(t, int64(42000), co.DiscountAmount().Amount())
	assert.Equal(t, int64(168000), co.FinalTotal().Amount())
	assert.Equal(t, int64(60000), co.ShippingFee().Amount())
	assert.Equal(t, order.StatusProcessing, co.Status())

	var sumTotals int64
	for _, o := range co.Orders() {
		assert.Equal(t, order.StatusProcessing, o.Status())
		sumTotals += o.Total().Amount()
	}
	assert.Equal(t, co.FinalTotal().Amount(), sumTotals)

	events := co.PullEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, "checkout.order_placed", events[0].EventName())
}

func TestPlace_RejectsForeignOrders(t *testing.T) {
	orders := buildOrders(t, "other", shared.PaymentCOD, 1000)
	_, err := Place(PlaceParams{ID: "co-1", BuyerID: "buyer-1", PaymentMethod: shared.PaymentCOD, Orders: orders})
	assert.ErrorIs(t, err, ErrInvalidCustomerOrder)

	_, err = Place(PlaceParams{ID: "co-1", BuyerID: "buyer-1", PaymentMethod: shared.PaymentCOD})
	assert.ErrorIs(t, err, ErrInvalidCustomerOrder)
}

func TestDeriveStatus(t *testing.T) {
	const (
		P = order.StatusPending
		R = order.StatusProcessing
		S = order.StatusShipped
		D = order.StatusDelivered
		C = order.StatusCancelled
	)
	tests := []struct {
		name string
		in   []order.Status
		want order.Status
	}{
		{"empty", nil, P},
		{"all cancelled", []order.Status{C, C}, C},
		{"all delivered", []order.Status{D, D}, D},
		{"delivered and shipped", []order.Status{D, S}, S},
		{"shipped beats processing", []order.Status{R, S}, S},
		{"processing", []order.Status{R, P}, R},
		{"pending", []order.Status{P, P}, P},
		{"cancelled ignored", []order.Status{C, D}, D},
		{"cancelled ignored with processing", []order.Status{C, R}, R},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.in))
		})
	}
}

func TestUpdateOrderStatus_RederivesParent(t *testing.T) {
	co := placeScenarioA(t, shared.PaymentCOD)
	orders := co.Orders()

	_, err := co.UpdateOrderStatus(orders[0].ID(), order.StatusShipped, "")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, co.Status())

	_, err = co.UpdateOrderStatus(orders[1].ID(), order.StatusCancelled, "out of print")
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, co.Status())

	_, err = co.UpdateOrderStatus(orders[0].ID(), order.StatusDelivered, "")
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, co.Status())

	_, err = co.UpdateOrderStatus("missing", order.StatusShipped, "")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	_, err = co.UpdateOrderStatus(orders[0].ID(), order.StatusProcessing, "")
	assert.ErrorIs(t, err, order.ErrInvalidOrderState)
}

func TestCancel(t *testing.T) {
	co := placeScenarioA(t, shared.PaymentVNPay)
	co.MarkPaid()
	require.True(t, co.NeedsRefund())

	cancelled, err := co.Cancel("buyer request")
	require.NoError(t, err)
	assert.Len(t, cancelled, 2)
	assert.Equal(t, order.StatusCancelled, co.Status())
	assert.Equal(t, "buyer request", co.CancellationReason())

	again, err := co.Cancel("buyer request")
	require.NoError(t, err)
	assert.Empty(t, again)

	require.NoError(t, co.MarkRefunded())
	assert.Equal(t, shared.PaymentRefunded, co.PaymentStatus())
	assert.False(t, co.NeedsRefund())
	for _, o := range co.Orders() {
		assert.Equal(t, shared.PaymentRefunded, o.PaymentStatus())
	}
}

func TestCancel_AfterShipping(t *testing.T) {
	co := placeScenarioA(t, shared.PaymentCOD)
	_, err := co.UpdateOrderStatus(co.Orders()[0].ID(), order.StatusShipped, "")
	require.NoError(t, err)

	_, err = co.Cancel("too late")
	assert.ErrorIs(t, err, ErrCannotCancel)
	assert.False(t, co.NeedsRefund())
}

func TestSpecifications(t *testing.T) {
	co := placeScenarioA(t, shared.PaymentCOD)
	ctx := t.Context()

	assert.True(t, NewByBuyerIDSpecification("buyer-1").IsSatisfiedBy(ctx, co))
	assert.False(t, NewByBuyerIDSpecification("buyer-2").IsSatisfiedBy(ctx, co))
	assert.True(t, NewByStatusSpecification(order.StatusProcessing).IsSatisfiedBy(ctx, co))

	created := co.CreatedAt()
	assert.True(t, NewByDateRangeSpecification(created, created.Add(1)).IsSatisfiedBy(ctx, co))
	assert.False(t, NewByDateRangeSpecification(created.Add(1), created.Add(2)).IsSatisfiedBy(ctx, co))

	both := shared.AllOf(NewByBuyerIDSpecification("buyer-1"), NewByStatusSpecification(order.StatusCancelled))
	assert.False(t, both.IsSatisfiedBy(ctx, co))
}
