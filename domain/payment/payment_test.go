package payment

import (
	"regexp"
	"testing"
	"time"

	"bookstore/domain/order"
	"bookstore/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReservation(t *testing.T, now time.Time) *Reservation {
	t.Helper()
	r, err := NewReservation(NewReservationParams{
		BuyerID:     "buyer-1",
		TxnRef:      NewTxnRef(now),
		Snapshot:    Snapshot{Orders: []SnapshotOrder{{SellerID: "s1"}}},
		TotalAmount: shared.VND(168000),
		Now:         now,
	})
	require.NoError(t, err)
	return r
}

func TestNewTxnRef_Format(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	ref := NewTxnRef(now)

	assert.Regexp(t, regexp.MustCompile(`^TXN1700000000123[0-9A-F]{8}$`), ref)
	assert.NotEqual(t, ref, NewTxnRef(now))
}

func TestNewReservation_Defaults(t *testing.T) {
	now := time.Now()
	r := newTestReservation(t, now)

	assert.Equal(t, StatusPending, r.Status())
	assert.Equal(t, now.Add(DefaultTTL), r.ExpiresAt())
	require.Len(t, r.PullEvents(), 1)
}

func TestReservation_Confirm(t *testing.T) {
	now := time.Now()

	r := newTestReservation(t, now)
	require.NoError(t, r.Confirm(now.Add(time.Minute), "co-1"))
	assert.Equal(t, StatusConfirmed, r.Status())
	assert.Equal(t, "co-1", r.CustomerOrderID())
	require.NotNil(t, r.ConfirmedAt())

	assert.ErrorIs(t, r.Confirm(now, "co-2"), ErrReservationState)
	assert.ErrorIs(t, r.Cancel(now, "x"), ErrReservationState)
	assert.ErrorIs(t, r.Expire(now), ErrReservationState)

	late := newTestReservation(t, now)
	assert.ErrorIs(t, late.Confirm(now.Add(DefaultTTL+time.Second), "co-3"), ErrReservationState)
	assert.Equal(t, StatusPending, late.Status())
}

func TestReservation_CancelAndExpire(t *testing.T) {
	now := time.Now()

	r := newTestReservation(t, now)
	require.NoError(t, r.Cancel(now, "declined"))
	assert.Equal(t, StatusCancelled, r.Status())
	assert.ErrorIs(t, r.Cancel(now, "again"), ErrReservationState)
	assert.ErrorIs(t, r.Confirm(now, "co"), ErrReservationState)

	e := newTestReservation(t, now)
	require.NoError(t, e.Expire(now.Add(DefaultTTL+time.Second)))
	assert.Equal(t, StatusExpired, e.Status())

	events := e.PullEvents()
	assert.Equal(t, "payment.reservation_expired", events[len(events)-1].EventName())
}

func TestSnapshot_RoundTripBuildsPricedOrders(t *testing.T) {
	orders := make([]*order.Order, 0, 2)
	for i, sub := range []int64{100000, 50000} {
		seller := []string{"seller-a", "seller-b"}[i]
		o, err := order.NewOrder(order.NewOrderParams{
			CustomerOrderID: "draft",
			Sequence:        i,
			BuyerID:         "buyer-1",
			SellerID:        seller,
			Lines: []order.CartLine{
				{BookID: "b" + seller, Title: "T", Quantity: 2, UnitPrice: shared.VND(sub / 2), SellerID: seller},
			},
			ShippingFee:   shared.VND(30000),
			PaymentMethod: shared.PaymentVNPay,
		})
		require.NoError(t, err)
		orders = append(orders, o)
	}
	order.DiscountDistributor{}.Distribute(orders, shared.VND(42000), "SAVE20")

	snap := SnapshotOf(shared.ShippingAddress{RecipientName: "A"}, "leave at door", "SAVE20", "promo-1", orders)
	r, err := NewReservation(NewReservationParams{
		BuyerID:     "buyer-1",
		TxnRef:      "TXN1",
		Snapshot:    snap,
		TotalAmount: shared.VND(168000),
	})
	require.NoError(t, err)

	decoded, err := r.Snapshot()
	require.NoError(t, err)
	rebuilt, err := decoded.BuildOrders("co-9", "buyer-1", shared.PaymentVNPay)
	require.NoError(t, err)
	require.Len(t, rebuilt, 2)

	assert.Equal(t, "co-9", rebuilt[0].CustomerOrderID())
	assert.Equal(t, int64(102000), rebuilt[0].Total().Amount())
	assert.Equal(t, int64(66000), rebuilt[1].Total().Amount())
	assert.Equal(t, "SAVE20", rebuilt[1].DiscountCode())
	assert.Equal(t, "leave at door", rebuilt[0].Notes())
}
