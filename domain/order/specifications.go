package order

import (
	"context"

	"bookstore/domain/shared"
)

// BySellerIDSpecification filters orders by seller
type BySellerIDSpecification struct {
	SellerID string
}

func (spec BySellerIDSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	o, ok := entity.(*Order)
	return ok && o.SellerID() == spec.SellerID
}

// ByStatusSpecification filters orders by status
type ByStatusSpecification struct {
	Status Status
}

func (spec ByStatusSpecification) IsSatisfiedBy(ctx context.Context, entity interface{}) bool {
	o, ok := entity.(*Order)
	return ok && o.Status() == spec.Status
}

func NewBySellerIDSpecification(sellerID string) shared.Specification {
	return BySellerIDSpecification{SellerID: sellerID}
}

func NewByStatusSpecification(status Status) shared.Specification {
	return ByStatusSpecification{Status: status}
}
