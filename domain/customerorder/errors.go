package customerorder

import (
	"errors"

	"bookstore/domain/shared"
)

var (
	ErrCustomerOrderNotFound  = errors.New("customer order not found")
	ErrInvalidCustomerOrder   = errors.New("invalid customer order")
	ErrCannotCancel           = errors.New("customer order can no longer be cancelled")
	ErrNotOwner               = errors.New("customer order belongs to another buyer")
	ErrConcurrentModification = errors.New("customer order was modified by another transaction, please retry")
)

func NewCustomerOrderNotFoundError(id string) error {
	return &customerOrderError{
		sentinel: ErrCustomerOrderNotFound,
		message:  "customer order not found: " + id,
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidCustomerOrderError(message string) error {
	return &customerOrderError{
		sentinel: ErrInvalidCustomerOrder,
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

func NewCannotCancelError(id, status string) error {
	return &customerOrderError{
		sentinel: ErrCannotCancel,
		field:    "status",
		message:  "customer order " + id + " is " + status + " and can no longer be cancelled",
		stack:    shared.CaptureStack(3),
	}
}

func NewNotOwnerError(id string) error {
	return &customerOrderError{
		sentinel: ErrNotOwner,
		message:  "customer order " + id + " belongs to another buyer",
		stack:    shared.CaptureStack(3),
	}
}

func NewConcurrentModificationError(id string) error {
	return &customerOrderError{
		sentinel: ErrConcurrentModification,
		message:  "customer order " + id + " was modified by another transaction, please retry",
		stack:    shared.CaptureStack(3),
	}
}

type customerOrderError struct {
	sentinel error
	field    string
	message  string
	stack    []uintptr
}

func (e *customerOrderError) Error() string   { return e.message }
func (e *customerOrderError) Unwrap() error   { return e.sentinel }
func (e *customerOrderError) Stack() []string { return shared.FormatStack(e.stack) }
