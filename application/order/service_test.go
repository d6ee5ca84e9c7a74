package order

import (
	"context"
	"sync"
	"testing"
	"time"

	appinventory "bookstore/application/inventory"
	appwallet "bookstore/application/wallet"
	"bookstore/domain/customerorder"
	"bookstore/domain/inventory"
	"bookstore/domain/order"
	"bookstore/domain/shared"
	"bookstore/domain/wallet"
	"bookstore/infrastructure/cache"
	"bookstore/infrastructure/persistence/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	service        *Service
	books          *mocks.MockBookRepository
	customerOrders *mocks.MockCustomerOrderRepository
	wallets        *mocks.MockWalletRepository
	walletService  *appwallet.Service
	uow            *mocks.MockUnitOfWorkFactory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		// stock as it is after the placed orders took their copies
		books: mocks.NewMockBookRepository(
			inventory.BookDTO{ID: "b1", Title: "Dune", SellerID: "seller-a", Price: shared.VND(100000), StockQuantity: 3, Active: true},
			inventory.BookDTO{ID: "b2", Title: "Emma", SellerID: "seller-b", Price: shared.VND(50000), StockQuantity: 3, Active: true},
		),
		customerOrders: mocks.NewMockCustomerOrderRepository(),
		wallets:        mocks.NewMockWalletRepository(),
		uow:            mocks.NewMockUnitOfWorkFactory(),
	}
	ledger := appinventory.NewLedger(f.books, mocks.NewMockInventoryReservationRepository(), cache.NewMemoryReservationCache(), f.uow)
	f.walletService = appwallet.NewService(f.wallets, f.uow)
	f.service = NewService(f.customerOrders, f.customerOrders.Orders(), ledger, NewWalletRefunder(f.walletService), f.uow)
	return f
}

// place stores a two-seller checkout: 2 × Dune from seller-a and 1 × Emma
// from seller-b, 30,000 shipping each, 30,000 discount.
func (f *fixture) place(t *testing.T, buyerID string, method shared.PaymentMethod) *customerorder.CustomerOrder {
	t.Helper()

	coID, err := customerorder.NewID()
	require.NoError(t, err)

	home := shared.ShippingAddress{RecipientName: "Tran B", RecipientPhone: "0912345678", Detail: "9 Hang Bai", Province: "Ha Noi"}
	build := func(seq int, seller, bookID, title string, qty int, price int64) *order.Order {
		o, err := order.NewOrder(order.NewOrderParams{
			CustomerOrderID: coID,
			Sequence:        seq,
			BuyerID:         buyerID,
			SellerID:        seller,
			Shipping:        home,
			Lines:           []order.CartLine{{BookID: bookID, Title: title, Quantity: qty, UnitPrice: shared.VND(price), SellerID: seller}},
			ShippingFee:     shared.VND(30000),
			PaymentMethod:   method,
		})
		require.NoError(t, err)
		return o
	}
	orders := []*order.Order{
		build(0, "seller-a", "b1", "Dune", 2, 100000),
		build(1, "seller-b", "b2", "Emma", 1, 50000),
	}
	order.DiscountDistributor{}.Distribute(orders, shared.VND(30000), "FIXED30K")

	co, err := customerorder.Place(customerorder.PlaceParams{
		ID:            coID,
		BuyerID:       buyerID,
		Shipping:      home,
		PaymentMethod: method,
		Orders:        orders,
		PromotionCode: "FIXED30K",
	})
	require.NoError(t, err)
	if method == shared.PaymentVNPay {
		co.MarkPaid()
	}
	require.NoError(t, f.customerOrders.Save(context.Background(), co))
	return co
}

func TestUpdateOrderStatus_DerivesParentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co := f.place(t, "buyer-1", shared.PaymentCOD)
	first, second := co.Orders()[0], co.Orders()[1]

	resp, err := f.service.UpdateOrderStatus(ctx, UpdateOrderStatusRequest{OrderID: first.ID(), Status: "SHIPPED"})
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", resp.Status)

	resp, err = f.service.UpdateOrderStatus(ctx, UpdateOrderStatusRequest{OrderID: first.ID(), Status: "DELIVERED"})
	require.NoError(t, err)
	// delivered next to processing
	assert.Equal(t, "PROCESSING", resp.Status)

	resp, err = f.service.UpdateOrderStatus(ctx, UpdateOrderStatusRequest{OrderID: second.ID(), Status: "SHIPPED"})
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", resp.Status)

	resp, err = f.service.UpdateOrderStatus(ctx, UpdateOrderStatusRequest{OrderID: second.ID(), Status: "DELIVERED"})
	require.NoError(t, err)
	assert.Equal(t, "DELIVERED", resp.Status)

	stored, err := f.customerOrders.FindByID(ctx, co.ID())
	require.NoError(t, err)
	assert.Equal(t, order.StatusDelivered, stored.Status())
	assert.Contains(t, f.uow.Outbox.Names(), "order.status_changed")
}

func TestUpdateOrderStatus_RejectsIllegalTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co := f.place(t, "buyer-1", shared.PaymentCOD)
	id := co.Orders()[0].ID()

	_, err := f.service.UpdateOrderStatus(ctx, UpdateOrderStatusRequest{OrderID: id, Status: "DELIVERED"})
	assert.ErrorIs(t, err, order.ErrInvalidOrderState)

	_, err = f.service.UpdateOrderStatus(ctx, UpdateOrderStatusRequest{OrderID: id, Status: "LOST"})
	assert.ErrorIs(t, err, order.ErrInvalidOrder)

	_, err = f.service.UpdateOrderStatus(ctx, UpdateOrderStatusRequest{OrderID: "missing", Status: "SHIPPED"})
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestUpdateOrderStatus_CancelReturnsStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co := f.place(t, "buyer-1", shared.PaymentCOD)

	resp, err := f.service.UpdateOrderStatus(ctx, UpdateOrderStatusRequest{
		OrderID: co.Orders()[0].ID(),
		Status:  "CANCELLED",
		Reason:  "out of print",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, f.books.Stock("b1"))
	assert.Equal(t, 3, f.books.Stock("b2"))
	// the other seller's order keeps the checkout alive
	assert.Equal(t, "PROCESSING", resp.Status)
	assert.Equal(t, "out of print", resp.Orders[0].CancellationReason)
}

func TestUpdateOrderStatus_LastCancellationRefundsPaidCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co := f.place(t, "buyer-1", shared.PaymentVNPay)

	for _, o := range co.Orders() {
		_, err := f.service.UpdateOrderStatus(ctx, UpdateOrderStatusRequest{OrderID: o.ID(), Status: "CANCELLED"})
		require.NoError(t, err)
	}

	stored, err := f.customerOrders.FindByID(ctx, co.ID())
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, stored.Status())
	assert.Equal(t, shared.PaymentRefunded, stored.PaymentStatus())
	assert.Equal(t, 1, f.wallets.Len())

	balance, err := f.walletService.Balance(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, co.FinalTotal().Amount(), balance.Balance)
}

func TestCancelCustomerOrder_COD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co := f.place(t, "buyer-1", shared.PaymentCOD)

	resp, err := f.service.CancelCustomerOrder(ctx, CancelCustomerOrderRequest{
		BuyerID:         "buyer-1",
		CustomerOrderID: co.ID(),
		Reason:          "changed my mind",
	})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)
	assert.Equal(t, "PENDING", resp.PaymentStatus)
	for _, o := range resp.Orders {
		assert.Equal(t, "CANCELLED", o.Status)
	}

	assert.Equal(t, 5, f.books.Stock("b1"))
	assert.Equal(t, 4, f.books.Stock("b2"))
	assert.Zero(t, f.wallets.Len())
	assert.Contains(t, f.uow.Outbox.Names(), "customer_order.cancelled")
}

func TestCancelCustomerOrder_RefundsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co := f.place(t, "buyer-1", shared.PaymentVNPay)
	req := CancelCustomerOrderRequest{BuyerID: "buyer-1", CustomerOrderID: co.ID()}

	resp, err := f.service.CancelCustomerOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "REFUNDED", resp.PaymentStatus)

	// repeated request is a no-op
	resp, err = f.service.CancelCustomerOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", resp.Status)

	assert.Equal(t, 1, f.wallets.Len())
	assert.Equal(t, 5, f.books.Stock("b1"))

	refund, err := f.wallets.FindByReference(ctx, wallet.ReferenceOrderRefund, co.ID())
	require.NoError(t, err)
	assert.Equal(t, int64(280000), refund.Amount().Amount())
	assert.Equal(t, co.FinalTotal().Amount(), refund.Amount().Amount())
}

func TestCancelCustomerOrder_ConcurrentRequests(t *testing.T) {
	f := newFixture(t)
	co := f.place(t, "buyer-1", shared.PaymentVNPay)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.CancelCustomerOrder(context.Background(), CancelCustomerOrderRequest{
				BuyerID:         "buyer-1",
				CustomerOrderID: co.ID(),
			})
			if err != nil {
				assert.ErrorIs(t, err, customerorder.ErrConcurrentModification)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.wallets.Len())
	assert.Equal(t, 5, f.books.Stock("b1"))
	assert.Equal(t, 4, f.books.Stock("b2"))
}

func TestCancelCustomerOrder_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co := f.place(t, "buyer-1", shared.PaymentCOD)

	_, err := f.service.CancelCustomerOrder(ctx, CancelCustomerOrderRequest{BuyerID: "intruder", CustomerOrderID: co.ID()})
	assert.ErrorIs(t, err, customerorder.ErrNotOwner)

	for _, o := range co.Orders() {
		_, err := f.service.UpdateOrderStatus(ctx, UpdateOrderStatusRequest{OrderID: o.ID(), Status: "SHIPPED"})
		require.NoError(t, err)
	}
	_, err = f.service.CancelCustomerOrder(ctx, CancelCustomerOrderRequest{BuyerID: "buyer-1", CustomerOrderID: co.ID()})
	assert.ErrorIs(t, err, customerorder.ErrCannotCancel)
	assert.Equal(t, 3, f.books.Stock("b1"))

	_, err = f.service.CancelCustomerOrder(ctx, CancelCustomerOrderRequest{BuyerID: "buyer-1", CustomerOrderID: "missing"})
	assert.ErrorIs(t, err, customerorder.ErrCustomerOrderNotFound)
}

func TestListCustomerOrders_Filters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kept := f.place(t, "buyer-1", shared.PaymentCOD)
	dropped := f.place(t, "buyer-1", shared.PaymentCOD)
	f.place(t, "buyer-2", shared.PaymentCOD)

	_, err := f.service.CancelCustomerOrder(ctx, CancelCustomerOrderRequest{BuyerID: "buyer-1", CustomerOrderID: dropped.ID()})
	require.NoError(t, err)

	all, err := f.service.ListCustomerOrders(ctx, ListCustomerOrdersRequest{BuyerID: "buyer-1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	processing, err := f.service.ListCustomerOrders(ctx, ListCustomerOrdersRequest{BuyerID: "buyer-1", Status: "PROCESSING"})
	require.NoError(t, err)
	require.Len(t, processing, 1)
	assert.Equal(t, kept.ID(), processing[0].ID)

	future, err := f.service.ListCustomerOrders(ctx, ListCustomerOrdersRequest{
		BuyerID: "buyer-1",
		From:    time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Empty(t, future)
}

func TestQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	co := f.place(t, "buyer-1", shared.PaymentCOD)

	got, err := f.service.GetCustomerOrder(ctx, co.ID(), "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, int64(310000), got.OriginalTotal.Amount)
	assert.Equal(t, int64(30000), got.DiscountAmount.Amount)
	assert.Equal(t, int64(280000), got.FinalTotal.Amount)
	require.Len(t, got.Orders, 2)
	assert.Equal(t, int64(24000), got.Orders[0].DiscountAmount.Amount)
	assert.Equal(t, int64(6000), got.Orders[1].DiscountAmount.Amount)

	_, err = f.service.GetCustomerOrder(ctx, co.ID(), "buyer-2")
	assert.ErrorIs(t, err, customerorder.ErrNotOwner)

	o, err := f.service.GetOrder(ctx, co.Orders()[1].ID())
	require.NoError(t, err)
	assert.Equal(t, "seller-b", o.SellerID)

	sellerOrders, err := f.service.ListSellerOrders(ctx, "seller-a")
	require.NoError(t, err)
	require.Len(t, sellerOrders, 1)
	assert.Equal(t, co.ID(), sellerOrders[0].CustomerOrderID)
}
