package errors

import (
	"fmt"
	"net/http"
	"testing"

	"bookstore/domain/customerorder"
	"bookstore/domain/inventory"
	"bookstore/domain/payment"
	"bookstore/domain/promotion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   ErrorCode
		status int
	}{
		{"insufficient stock", inventory.NewInsufficientStockError("b1", "Dune", 3, 1), CodeInsufficientStock, http.StatusConflict},
		{"invalid promotion", promotion.NewInvalidPromotionError("SUMMER", "expired"), CodeInvalidPromotion, http.StatusUnprocessableEntity},
		{"unknown promotion", promotion.NewPromotionNotFoundError("NOPE"), CodePromotionNotFound, http.StatusNotFound},
		{"reservation state", payment.NewReservationStateError("TXN1", payment.StatusCancelled, "confirm"), CodeReservationState, http.StatusConflict},
		{"bad signature", payment.NewSignatureInvalidError("hash"), CodeSignatureInvalid, http.StatusBadRequest},
		{"gateway mismatch", payment.NewGatewayMismatchError("TXN1", "amount"), CodeGatewayMismatch, http.StatusPaymentRequired},
		{"gateway down", payment.NewGatewayUnavailableError(fmt.Errorf("timeout")), CodeGatewayUnavailable, http.StatusServiceUnavailable},
		{"not owner", customerorder.NewNotOwnerError("co-1"), CodeNotOwner, http.StatusForbidden},
		{"cannot cancel", customerorder.NewCannotCancelError("co-1", "SHIPPED"), CodeCannotCancel, http.StatusUnprocessableEntity},
		{"unknown", fmt.Errorf("dial tcp: refused"), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomainError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, appErr.HTTPStatusCode())
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
}

func TestFromDomainError_KeepsDomainMessage(t *testing.T) {
	cause := inventory.NewInsufficientStockError("b1", "Dune", 3, 1)
	wrapped := fmt.Errorf("reserve stock for co-1: %w", cause)

	appErr := FromDomainError(wrapped)

	assert.Equal(t, CodeInsufficientStock, appErr.Code)
	assert.Equal(t, cause.Error(), appErr.Message)
}

func TestFromDomainError_HidesInternalMessage(t *testing.T) {
	appErr := FromDomainError(fmt.Errorf("select books: connection reset"))

	assert.Equal(t, "internal server error", appErr.Message)
	assert.NotNil(t, appErr.Err)
}

func TestFromDomainError_PassesAppErrorThrough(t *testing.T) {
	original := Validation("quantity must be positive")

	assert.Same(t, original, FromDomainError(fmt.Errorf("bind: %w", original)))
	assert.Nil(t, FromDomainError(nil))
	assert.True(t, Is(original, CodeValidation))
}
