package order

import "context"

// Repository is the read side for single sub-orders. Writes go through
// the owning CustomerOrder.
type Repository interface {
	// FindByID Find order by ID
	FindByID(ctx context.Context, id string) (*Order, error)

	// FindBySellerID lists a seller's orders, newest first.
	FindBySellerID(ctx context.Context, sellerID string) ([]*Order, error)
}
