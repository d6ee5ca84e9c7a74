package customerorder

import (
	"context"
	"time"

	"bookstore/domain/order"
	"bookstore/domain/shared"
)

// ByBuyerIDSpecification filters customer orders by buyer
type ByBuyerIDSpecification struct {
	BuyerID string
}

// IsSatisfiedBy returns true if the customer order belongs to the buyer
func (spec ByBuyerIDSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	co, ok := entity.(*CustomerOrder)
	return ok && co.BuyerID() == spec.BuyerID
}

// ByStatusSpecification filters customer orders by derived status
type ByStatusSpecification struct {
	Status order.Status
}

func (spec ByStatusSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	co, ok := entity.(*CustomerOrder)
	return ok && co.Status() == spec.Status
}

// ByDateRangeSpecification filters by creation time, [Start, End).
// A zero bound is ignored.
type ByDateRangeSpecification struct {
	Start time.Time
	End   time.Time
}

func (spec ByDateRangeSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	co, ok := entity.(*CustomerOrder)
	if !ok {
		return false
	}
	createdAt := co.CreatedAt()

	if !spec.Start.IsZero() && createdAt.Before(spec.Start) {
		return false
	}
	if !spec.End.IsZero() && !createdAt.Before(spec.End) {
		return false
	}
	return true
}

func NewByBuyerIDSpecification(buyerID string) shared.Specification {
	return ByBuyerIDSpecification{BuyerID: buyerID}
}

func NewByStatusSpecification(status order.Status) shared.Specification {
	return ByStatusSpecification{Status: status}
}

func NewByDateRangeSpecification(start, end time.Time) shared.Specification {
	return ByDateRangeSpecification{Start: start, End: end}
}
