/*
Package errors is the application-level error vocabulary shared by the
HTTP layer and the workers. Domain packages never import it; the API
converts whatever a use case returned with FromDomainError and maps the
resulting code to an HTTP status.
*/
package errors

import (
	"errors"
	"fmt"
	"net/http"

	appPayment "bookstore/application/payment"
	"bookstore/domain/address"
	"bookstore/domain/customerorder"
	"bookstore/domain/inventory"
	"bookstore/domain/order"
	"bookstore/domain/payment"
	"bookstore/domain/promotion"
	"bookstore/domain/shared"
	"bookstore/domain/wallet"
)

// ErrorCode is the machine-readable code returned to clients.
type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeForbidden      ErrorCode = "FORBIDDEN"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeTooManyRequest ErrorCode = "TOO_MANY_REQUESTS"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"

	// checkout
	CodeInsufficientStock    ErrorCode = "INSUFFICIENT_STOCK"
	CodeBookNotFound         ErrorCode = "BOOK_NOT_FOUND"
	CodeAddressNotFound      ErrorCode = "ADDRESS_NOT_FOUND"
	CodeInvalidPromotion     ErrorCode = "INVALID_PROMOTION"
	CodePromotionNotFound    ErrorCode = "PROMOTION_NOT_FOUND"
	CodeConcurrentModify     ErrorCode = "CONCURRENT_MODIFICATION"
	CodeInvalidOrder         ErrorCode = "INVALID_ORDER"
	CodeOrderNotFound        ErrorCode = "ORDER_NOT_FOUND"
	CodeInvalidOrderState    ErrorCode = "INVALID_ORDER_STATE"
	CodeCannotCancel         ErrorCode = "CANNOT_CANCEL"
	CodeNotOwner             ErrorCode = "NOT_OWNER"
	CodeReservationNotFound  ErrorCode = "RESERVATION_NOT_FOUND"
	CodeReservationState     ErrorCode = "RESERVATION_STATE"
	CodeSignatureInvalid     ErrorCode = "SIGNATURE_INVALID"
	CodeGatewayMismatch      ErrorCode = "GATEWAY_MISMATCH"
	CodeGatewayUnavailable   ErrorCode = "GATEWAY_UNAVAILABLE"
	CodeCallbackInProgress   ErrorCode = "CALLBACK_IN_PROGRESS"
	CodeDuplicateTransaction ErrorCode = "DUPLICATE_TRANSACTION"
)

// AppError carries a code, a client-safe message and the original error.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the status the API answers with for this code.
func (e *AppError) HTTPStatusCode() int {
	switch e.Code {
	case CodeBadRequest, CodeValidation, CodeSignatureInvalid, CodeInvalidOrder:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeNotOwner:
		return http.StatusForbidden
	case CodeNotFound, CodeOrderNotFound, CodeBookNotFound, CodeAddressNotFound,
		CodePromotionNotFound, CodeReservationNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInsufficientStock, CodeConcurrentModify, CodeReservationState,
		CodeCallbackInProgress, CodeDuplicateTransaction:
		return http.StatusConflict
	case CodeGatewayMismatch:
		return http.StatusPaymentRequired
	case CodeInvalidPromotion, CodeInvalidOrderState, CodeCannotCancel:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequest:
		return http.StatusTooManyRequests
	case CodeGatewayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func Conflict(message string) *AppError {
	return New(CodeConflict, message)
}

func TooManyRequests(message string) *AppError {
	return New(CodeTooManyRequest, message)
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

// Is reports whether err is an AppError with the given code.
func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ============================================================================
// Domain error mapping
// ============================================================================

// domainCodes is checked in order; the first sentinel found in the chain
// wins, so specific sentinels come before the generic shared ones.
var domainCodes = []struct {
	sentinel error
	code     ErrorCode
}{
	{inventory.ErrInsufficientStock, CodeInsufficientStock},
	{inventory.ErrBookNotFound, CodeBookNotFound},
	{inventory.ErrReservationNotFound, CodeReservationNotFound},
	{inventory.ErrReservationReleased, CodeReservationState},
	{inventory.ErrInvalidReservation, CodeBadRequest},
	{address.ErrAddressNotFound, CodeAddressNotFound},

	{promotion.ErrPromotionNotFound, CodePromotionNotFound},
	{promotion.ErrInvalidPromotion, CodeInvalidPromotion},
	{promotion.ErrInvalidPromotionDefinition, CodeValidation},
	{promotion.ErrConcurrentModification, CodeConcurrentModify},

	{customerorder.ErrCustomerOrderNotFound, CodeOrderNotFound},
	{customerorder.ErrNotOwner, CodeNotOwner},
	{customerorder.ErrCannotCancel, CodeCannotCancel},
	{customerorder.ErrInvalidCustomerOrder, CodeInvalidOrder},
	{customerorder.ErrConcurrentModification, CodeConcurrentModify},

	{order.ErrOrderNotFound, CodeOrderNotFound},
	{order.ErrInvalidOrderState, CodeInvalidOrderState},
	{order.ErrInvalidOrder, CodeInvalidOrder},
	{order.ErrEmptyOrderItems, CodeInvalidOrder},
	{order.ErrInvalidQuantity, CodeInvalidOrder},
	{order.ErrOrderTotalAmountNotPositive, CodeInvalidOrder},
	{order.ErrConcurrentModification, CodeConcurrentModify},

	{payment.ErrReservationNotFound, CodeReservationNotFound},
	{payment.ErrReservationState, CodeReservationState},
	{payment.ErrSignatureInvalid, CodeSignatureInvalid},
	{payment.ErrGatewayMismatch, CodeGatewayMismatch},
	{payment.ErrGatewayUnavailable, CodeGatewayUnavailable},
	{payment.ErrDuplicateTxnRef, CodeConflict},
	{appPayment.ErrCallbackInProgress, CodeCallbackInProgress},

	{wallet.ErrInvalidAmount, CodeValidation},
	{wallet.ErrTransactionExists, CodeDuplicateTransaction},
	{wallet.ErrTransactionMissing, CodeNotFound},

	{shared.ErrCurrencyMismatch, CodeValidation},
	{shared.ErrNotFound, CodeNotFound},
	{shared.ErrConflict, CodeConflict},
	{shared.ErrInvalidInput, CodeValidation},
	{shared.ErrUnauthorized, CodeUnauthorized},
	{shared.ErrForbidden, CodeForbidden},
}

// FromDomainError converts any error returned by a use case into an
// AppError. Known domain errors keep their message; anything else becomes
// an internal error whose message the API never shows.
func FromDomainError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	for _, dc := range domainCodes {
		if errors.Is(err, dc.sentinel) {
			return Wrap(err, dc.code, domainMessage(err))
		}
	}
	return Wrap(err, CodeInternal, "internal server error")
}

// domainMessage prefers the structured domain error's own message over the
// wrapping context services add on the way up.
func domainMessage(err error) string {
	var origin interface {
		error
		shared.Stacker
	}
	if errors.As(err, &origin) {
		return origin.Error()
	}
	return err.Error()
}
