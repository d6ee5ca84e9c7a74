package payment

import (
	"context"
	"testing"
	"time"

	"bookstore/domain/payment"
	"bookstore/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Create(t *testing.T) {
	f := newFixture(t, ReconcilerConfig{})
	before := time.Now()

	r, err := f.store.Create(context.Background(), CreateParams{
		BuyerID:       "buyer-1",
		Snapshot:      payment.Snapshot{Shipping: home},
		TotalAmount:   shared.VND(50000),
		PaymentMethod: shared.PaymentVNPay,
	})
	require.NoError(t, err)

	assert.Regexp(t, `^TXN\d{13}[0-9A-F]{8}$`, r.TxnRef())
	assert.Equal(t, payment.StatusPending, r.Status())
	assert.WithinDuration(t, before.Add(15*time.Minute), r.ExpiresAt(), 5*time.Second)
	assert.Equal(t, []string{"payment.reservation_created"}, f.uow.Outbox.Names())

	exists, err := f.payments.ExistsByTxnRef(context.Background(), r.TxnRef())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_TransitionsAreConditional(t *testing.T) {
	f := newFixture(t, ReconcilerConfig{})
	ctx := context.Background()
	r := f.reserve(t)

	// a second copy loaded before the first writer commits
	stale, err := f.store.Get(ctx, r.TxnRef())
	require.NoError(t, err)

	require.NoError(t, f.store.Cancel(ctx, r, "buyer gave up"))

	err = f.store.Confirm(ctx, stale, "co-1")
	assert.ErrorIs(t, err, payment.ErrReservationState)

	stored, err := f.store.Get(ctx, r.TxnRef())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusCancelled, stored.Status())
	assert.Empty(t, stored.CustomerOrderID())
}

func TestSweeper_ExpiresAndReturnsStock(t *testing.T) {
	f := newFixture(t, ReconcilerConfig{})
	ctx := context.Background()
	stale := f.reserve(t)
	fresh := f.reserve(t)
	require.Equal(t, 3, f.books.Stock("b1"))

	f.payments.ExpireNow(stale.TxnRef())

	s, err := NewSweeper(f.store, f.payments, f.ledger, f.uow, time.Minute, 10)
	require.NoError(t, err)

	n, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 4, f.books.Stock("b1"))

	stored, err := f.store.Get(ctx, stale.TxnRef())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusExpired, stored.Status())

	stored, err = f.store.Get(ctx, fresh.TxnRef())
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPending, stored.Status())

	n, err = s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 4, f.books.Stock("b1"))
}

func TestNewSweeper_Validation(t *testing.T) {
	f := newFixture(t, ReconcilerConfig{})

	_, err := NewSweeper(nil, f.payments, f.ledger, f.uow, time.Minute, 10)
	assert.Error(t, err)
	_, err = NewSweeper(f.store, f.payments, f.ledger, f.uow, 0, 10)
	assert.Error(t, err)
}
