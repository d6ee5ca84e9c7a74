/*
Package shared holds the building blocks every bookstore subdomain uses:
aggregate and event contracts, the unit of work, Money and the shared
error taxonomy.

Errors follow two layers:
 1. Sentinel errors for errors.Is checks. They carry no context.
 2. Structured domain errors that wrap a sentinel, carry the entity and
    a user-facing message, and capture the call stack when created.
    The stack is only formatted when somebody logs it.

Domain errors never carry HTTP status codes; the API layer maps them.
*/
package shared

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

// ============================================================================
// Domain Error
// ============================================================================

// DomainError is the generic structured error for rules that do not
// belong to a single subdomain (input validation, ownership checks).
type DomainError struct {
	// Err is the sentinel used by errors.Is.
	Err error

	// Entity names the object the rule applies to, e.g. "shipping_address".
	Entity string

	// Message is safe to show to the buyer.
	Message string

	// Field is set for validation failures.
	Field string

	stack []uintptr
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Stack formats the captured frames on demand.
func (e *DomainError) Stack() []string {
	return FormatStack(e.stack)
}

// ============================================================================
// Stack capture helpers
// ============================================================================

// CaptureStack records the current call stack.
// skip is usually 3: runtime.Callers, CaptureStack and the error constructor.
func CaptureStack(skip int) []uintptr {
	var pcs [32]uintptr
	n := runtime.Callers(skip, pcs[:])
	return pcs[:n]
}

// FormatStack renders frames as "file:line function", dropping runtime
// frames and keeping at most 10 entries.
func FormatStack(stack []uintptr) []string {
	if len(stack) == 0 {
		return nil
	}

	frames := runtime.CallersFrames(stack)
	var result []string
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			result = append(result, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more || len(result) > 10 {
			break
		}
	}
	return result
}

// ============================================================================
// Constructors
// ============================================================================

func NewNotFoundError(entity string) error {
	return &DomainError{
		Err:     ErrNotFound,
		Entity:  entity,
		Message: entity + " not found",
		stack:   CaptureStack(3),
	}
}

func NewConflictError(entity, message string) error {
	return &DomainError{
		Err:     ErrConflict,
		Entity:  entity,
		Message: message,
		stack:   CaptureStack(3),
	}
}

func NewValidationError(entity, field, reason string) error {
	return &DomainError{
		Err:     ErrInvalidInput,
		Entity:  entity,
		Field:   field,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

func NewForbiddenError(entity, reason string) error {
	return &DomainError{
		Err:     ErrForbidden,
		Entity:  entity,
		Message: reason,
		stack:   CaptureStack(3),
	}
}

// ============================================================================
// Stacker
// ============================================================================

// Stacker is implemented by every error that captured its origin.
// The API layer uses it to log where an error was raised.
type Stacker interface {
	Stack() []string
}
