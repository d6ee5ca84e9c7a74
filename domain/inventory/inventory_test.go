package inventory

import (
	"testing"
	"time"

	"bookstore/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLines(t *testing.T) {
	lines, err := NormalizeLines([]Line{
		{BookID: "b2", Quantity: 1},
		{BookID: "b1", Title: "Go", Quantity: 2},
		{BookID: "b2", Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{BookID: "b1", Title: "Go", Quantity: 2},
		{BookID: "b2", Quantity: 4},
	}, lines)

	_, err = NormalizeLines(nil)
	assert.ErrorIs(t, err, ErrInvalidReservation)

	_, err = NormalizeLines([]Line{{BookID: "b1", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidReservation)
}

func TestReservationLifecycle(t *testing.T) {
	r, err := NewReservation("owner-1", []Line{{BookID: "b1", Quantity: 1}}, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, ReservationPending, r.Status())
	assert.False(t, r.IsExpired(time.Now()))
	assert.True(t, r.IsExpired(time.Now().Add(2*time.Minute)))

	require.NoError(t, r.Confirm())
	assert.Equal(t, ReservationConfirmed, r.Status())
	assert.False(t, r.IsExpired(time.Now().Add(2*time.Minute)))

	assert.ErrorIs(t, r.Release("late"), ErrInvalidReservation)
	assert.ErrorIs(t, r.Confirm(), ErrInvalidReservation)

	events := r.PullEvents()
	require.Len(t, events, 2)
	assert.Equal(t, "inventory.reserved", events[0].EventName())
	assert.Equal(t, "inventory.confirmed", events[1].EventName())
}

func TestNewReservation_RejectsPastExpiry(t *testing.T) {
	_, err := NewReservation("owner-1", []Line{{BookID: "b1", Quantity: 1}}, time.Now().Add(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidReservation)
}

func TestBook_CheckAvailable(t *testing.T) {
	b := RebuildBook(BookDTO{ID: "b1", Title: "Clean Code", Price: shared.VND(100000), StockQuantity: 2})

	assert.NoError(t, b.CheckAvailable(2))

	err := b.CheckAvailable(3)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, stockErr.Available)
	assert.Contains(t, err.Error(), "Clean Code")
}
