/*
Package promotion - errors

Every rejection a buyer can see wraps ErrInvalidPromotion and carries a
user-facing reason. Structural errors (bad construction input) wrap
ErrInvalidPromotionDefinition and never reach the buyer.
*/
package promotion

import (
	"errors"

	"bookstore/domain/shared"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	// ErrInvalidPromotion the code cannot be applied to this checkout
	ErrInvalidPromotion = errors.New("invalid promotion")

	// ErrPromotionNotFound no promotion with this code
	ErrPromotionNotFound = errors.New("promotion not found")

	// ErrInvalidPromotionDefinition the promotion itself is malformed
	ErrInvalidPromotionDefinition = errors.New("invalid promotion definition")

	// ErrConcurrentModification usage counter changed under us
	ErrConcurrentModification = errors.New("promotion was modified by another transaction, please retry")
)

// ============================================================================
// Constructors
// ============================================================================

// NewInvalidPromotionError wraps ErrInvalidPromotion with a reason that is
// shown to the buyer as is.
func NewInvalidPromotionError(code, reason string) error {
	return &promotionDomainError{
		sentinel: ErrInvalidPromotion,
		entity:   "promotion",
		field:    "promotion_code",
		message:  reason,
		code:     code,
		stack:    shared.CaptureStack(3),
	}
}

// NewPromotionNotFoundError is both a not-found and an invalid-promotion
// error, so checkout can treat it as a rejection.
func NewPromotionNotFoundError(code string) error {
	return &promotionDomainError{
		sentinel: ErrPromotionNotFound,
		entity:   "promotion",
		field:    "promotion_code",
		message:  "promotion code does not exist",
		code:     code,
		stack:    shared.CaptureStack(3),
	}
}

func NewInvalidDefinitionError(field, message string) error {
	return &promotionDomainError{
		sentinel: ErrInvalidPromotionDefinition,
		entity:   "promotion",
		field:    field,
		message:  message,
		stack:    shared.CaptureStack(3),
	}
}

func NewConcurrentModificationError(code string) error {
	return &promotionDomainError{
		sentinel: ErrConcurrentModification,
		entity:   "promotion",
		message:  "promotion " + code + " was modified by another transaction, please retry",
		code:     code,
		stack:    shared.CaptureStack(3),
	}
}

// ============================================================================
// promotionDomainError
// ============================================================================

type promotionDomainError struct {
	sentinel error
	entity   string
	field    string
	message  string
	code     string
	stack    []uintptr
}

func (e *promotionDomainError) Error() string {
	return e.message
}

// Is lets a missing code also match ErrInvalidPromotion.
func (e *promotionDomainError) Is(target error) bool {
	return e.sentinel == ErrPromotionNotFound && target == ErrInvalidPromotion
}

func (e *promotionDomainError) Unwrap() error {
	return e.sentinel
}

// Code returns the promotion code the error is about, if any.
func (e *promotionDomainError) Code() string {
	return e.code
}

func (e *promotionDomainError) Stack() []string {
	return shared.FormatStack(e.stack)
}
