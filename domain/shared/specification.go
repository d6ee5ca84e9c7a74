package shared

import (
	"context"
)

// Specification encapsulates a query rule. It is evaluated in memory by
// IsSatisfiedBy and translated to SQL by the persistence layer.
type Specification interface {
	// IsSatisfiedBy is used for in-memory filtering (mock repositories).
	// The entity parameter should be type-asserted to the expected domain type.
	IsSatisfiedBy(ctx context.Context, entity interface{}) bool
}

// ============================================================================
// Composite Specifications
// ============================================================================

// AndSpecification represents the logical AND of two specifications
type AndSpecification struct {
	Left  Specification
	Right Specification
}

// IsSatisfiedBy returns true if both left and right specifications are satisfied
func (spec AndSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	return spec.Left.IsSatisfiedBy(ctx, entity) && spec.Right.IsSatisfiedBy(ctx, entity)
}

// And creates a new AndSpecification
func And(left, right Specification) Specification {
	return AndSpecification{
		Left:  left,
		Right: right,
	}
}

// AllOf folds the non-nil specifications into a chain of ANDs.
// It returns nil when nothing is left.
func AllOf(specs ...Specification) Specification {
	var out Specification
	for _, s := range specs {
		if s == nil {
			continue
		}
		if out == nil {
			out = s
			continue
		}
		out = And(out, s)
	}
	return out
}

// NotSpecification represents the logical NOT of a specification
type NotSpecification struct {
	Spec Specification
}

// IsSatisfiedBy returns true if the inner specification is NOT satisfied
func (spec NotSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	return !spec.Spec.IsSatisfiedBy(ctx, entity)
}

// Not creates a new NotSpecification
func Not(inner Specification) Specification {
	return NotSpecification{
		Spec: inner,
	}
}
