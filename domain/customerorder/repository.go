package customerorder

import (
	"context"

	"bookstore/domain/shared"
)

// Repository persists a CustomerOrder together with its sub-orders.
type Repository interface {
	// Save inserts a new aggregate with all its orders, or updates the
	// status fields of an existing one under an optimistic version check.
	Save(ctx context.Context, co *CustomerOrder) error

	FindByID(ctx context.Context, id string) (*CustomerOrder, error)

	// FindByOrderID loads the aggregate that owns a sub-order.
	FindByOrderID(ctx context.Context, orderID string) (*CustomerOrder, error)

	// FindByGatewayTxnRef returns ErrCustomerOrderNotFound when no order was
	// materialised from that payment yet.
	FindByGatewayTxnRef(ctx context.Context, txnRef string) (*CustomerOrder, error)

	// Find lists aggregates matching spec, newest first.
	Find(ctx context.Context, spec shared.Specification) ([]*CustomerOrder, error)
}
