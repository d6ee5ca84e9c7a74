package wallet

import (
	"testing"

	"bookstore/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefund(t *testing.T) {
	tx, err := NewRefund("buyer-1", shared.VND(168000), "order cancelled", "co-1")
	require.NoError(t, err)

	assert.Equal(t, TypeCredit, tx.Type())
	assert.Equal(t, StatusCompleted, tx.Status())
	assert.Equal(t, ReferenceOrderRefund, tx.ReferenceType())
	assert.Equal(t, "co-1", tx.ReferenceID())
	assert.Equal(t, int64(168000), tx.SignedAmount())

	_, err = NewRefund("buyer-1", shared.VND(0), "x", "co-1")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSignedAmount(t *testing.T) {
	debit := RebuildFromDTO(ReconstructionDTO{Amount: shared.VND(500), Type: TypeDebit, Status: StatusCompleted})
	failed := RebuildFromDTO(ReconstructionDTO{Amount: shared.VND(500), Type: TypeCredit, Status: StatusFailed})

	assert.Equal(t, int64(-500), debit.SignedAmount())
	assert.Zero(t, failed.SignedAmount())
}
