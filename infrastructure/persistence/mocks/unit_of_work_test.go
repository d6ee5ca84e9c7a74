package mocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookstore/domain/inventory"
	"bookstore/domain/promotion"
	"bookstore/domain/shared"
	"bookstore/domain/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestMockUnitOfWork_FailureRevertsWrites(t *testing.T) {
	ctx := context.Background()
	books := NewMockBookRepository(inventory.BookDTO{ID: "b1", Title: "Dune", StockQuantity: 5, Active: true})
	reservations := NewMockInventoryReservationRepository()
	wallets := NewMockWalletRepository()
	p, err := promotion.New(promotion.Definition{
		Code: "SAVE", Type: promotion.TypeFixedAmount, Value: 1000, Active: true,
		StartDate: time.Now().Add(-time.Hour), EndDate: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	promotions := NewMockPromotionRepository(p)
	factory := NewMockUnitOfWorkFactory()

	err = shared.Transactional(ctx, factory, func(ctx context.Context, uow shared.UnitOfWork) error {
		_, err := books.DecrementStock(ctx, "b1", 3)
		require.NoError(t, err)

		r, err := inventory.NewReservation("co-1", []inventory.Line{{BookID: "b1", Quantity: 3}}, time.Now().Add(time.Minute))
		require.NoError(t, err)
		require.NoError(t, reservations.Save(ctx, r))
		uow.RegisterNew(r)

		found, err := promotions.FindByCode(ctx, "SAVE")
		require.NoError(t, err)
		usage, err := found.RecordUsage("buyer-1", "co-1", shared.VND(1000))
		require.NoError(t, err)
		require.NoError(t, promotions.Save(ctx, found))
		require.NoError(t, promotions.SaveUsage(ctx, usage))

		refund, err := wallet.NewRefund("buyer-1", shared.VND(1000), "test", "co-1")
		require.NoError(t, err)
		require.NoError(t, wallets.Save(ctx, refund))

		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, 5, books.Stock("b1"))
	_, err = reservations.FindByOwnerID(ctx, "co-1")
	assert.ErrorIs(t, err, inventory.ErrReservationNotFound)
	found, err := promotions.FindByCode(ctx, "SAVE")
	require.NoError(t, err)
	assert.Zero(t, found.UsageCount())
	assert.Empty(t, promotions.Usages())
	assert.Zero(t, wallets.Len())
	assert.Empty(t, factory.Outbox.Events())
}

func TestMockUnitOfWork_FailureRestoresConditionalUpdate(t *testing.T) {
	ctx := context.Background()
	reservations := NewMockInventoryReservationRepository()
	r, err := inventory.NewReservation("co-1", []inventory.Line{{BookID: "b1", Quantity: 1}}, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, reservations.Save(ctx, r))

	err = NewMockUnitOfWorkFactory().New().Execute(ctx, func(ctx context.Context) error {
		require.NoError(t, r.Release("test"))
		won, err := reservations.UpdateStatus(ctx, r, inventory.ReservationPending)
		require.NoError(t, err)
		require.True(t, won)
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	current, err := reservations.FindByOwnerID(ctx, "co-1")
	require.NoError(t, err)
	assert.Equal(t, inventory.ReservationPending, current.Status())
}

func TestMockUnitOfWork_SuccessKeepsWrites(t *testing.T) {
	ctx := context.Background()
	books := NewMockBookRepository(inventory.BookDTO{ID: "b1", StockQuantity: 5, Active: true})

	err := NewMockUnitOfWorkFactory().New().Execute(ctx, func(ctx context.Context) error {
		_, err := books.DecrementStock(ctx, "b1", 2)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, books.Stock("b1"))
}

func TestMockUnitOfWork_CompensationInsideFailedUnitNetsOut(t *testing.T) {
	ctx := context.Background()
	books := NewMockBookRepository(inventory.BookDTO{ID: "b1", StockQuantity: 5, Active: true})

	err := NewMockUnitOfWorkFactory().New().Execute(ctx, func(ctx context.Context) error {
		_, err := books.DecrementStock(ctx, "b1", 2)
		require.NoError(t, err)
		require.NoError(t, books.IncrementStock(ctx, "b1", 2))
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	assert.Equal(t, 5, books.Stock("b1"))
}
