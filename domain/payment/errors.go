package payment

import (
	"errors"

	"bookstore/domain/shared"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	ErrReservationNotFound = errors.New("payment reservation not found")

	// ErrReservationState an illegal transition was attempted, e.g.
	// confirming a cancelled reservation. Indicates a replay or logic bug.
	ErrReservationState = errors.New("illegal payment reservation transition")

	// ErrSignatureInvalid the callback hash does not match
	ErrSignatureInvalid = errors.New("payment callback signature invalid")

	// ErrGatewayMismatch the callback and the gateway's own status query
	// disagree
	ErrGatewayMismatch = errors.New("payment gateway status mismatch")

	// ErrDuplicateTxnRef the generated reference is already taken
	ErrDuplicateTxnRef = errors.New("duplicate transaction reference")

	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// ============================================================================
// Constructors
// ============================================================================

func NewReservationNotFoundError(txnRef string) error {
	return &paymentDomainError{
		sentinel: ErrReservationNotFound,
		entity:   "payment_reservation",
		message:  "payment reservation not found: " + txnRef,
		stack:    shared.CaptureStack(3),
	}
}

func NewReservationStateError(txnRef string, from Status, action string) error {
	return &paymentDomainError{
		sentinel: ErrReservationState,
		entity:   "payment_reservation",
		message:  "cannot " + action + " payment reservation " + txnRef + " in status " + string(from),
		stack:    shared.CaptureStack(3),
	}
}

func NewSignatureInvalidError(reason string) error {
	return &paymentDomainError{
		sentinel: ErrSignatureInvalid,
		entity:   "payment_callback",
		message:  "invalid payment signature: " + reason,
		stack:    shared.CaptureStack(3),
	}
}

func NewGatewayMismatchError(txnRef, detail string) error {
	return &paymentDomainError{
		sentinel: ErrGatewayMismatch,
		entity:   "payment_callback",
		message:  "payment " + txnRef + " could not be confirmed: " + detail,
		stack:    shared.CaptureStack(3),
	}
}

func NewDuplicateTxnRefError(txnRef string) error {
	return &paymentDomainError{
		sentinel: ErrDuplicateTxnRef,
		entity:   "payment_reservation",
		message:  "transaction reference already exists: " + txnRef,
		stack:    shared.CaptureStack(3),
	}
}

func NewGatewayUnavailableError(err error) error {
	return &paymentDomainError{
		sentinel: ErrGatewayUnavailable,
		entity:   "payment_gateway",
		message:  "payment gateway unavailable: " + err.Error(),
		cause:    err,
		stack:    shared.CaptureStack(3),
	}
}

// ============================================================================
// paymentDomainError
// ============================================================================

type paymentDomainError struct {
	sentinel error
	entity   string
	message  string
	cause    error
	stack    []uintptr
}

func (e *paymentDomainError) Error() string { return e.message }

func (e *paymentDomainError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.sentinel, e.cause}
	}
	return []error{e.sentinel}
}

func (e *paymentDomainError) Stack() []string { return shared.FormatStack(e.stack) }
