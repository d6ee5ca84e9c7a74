/*
Package order Application Layer - order lifecycle after checkout

Responsibilities:
1. Move per-seller orders through their status table
2. Keep the owning customer order's derived status in step
3. Return stock for cancelled orders and refund paid checkouts once
4. Read models for buyers and sellers

Every write runs in one unit of work: the status change, the stock
returned and the wallet credit commit or roll back together. Events are
collected by the unit of work and written to the outbox.
*/
package order

import (
	"context"

	appinventory "bookstore/application/inventory"
	"bookstore/domain/customerorder"
	"bookstore/domain/order"
	"bookstore/domain/shared"
	"bookstore/pkg/logger"

	"go.uber.org/zap"
)

// Service Order application service
type Service struct {
	customerOrders customerorder.Repository
	orders         order.Repository
	ledger         *appinventory.Ledger
	refunder       Refunder
	uowFactory     shared.UnitOfWorkFactory
}

// NewService Create order application service
func NewService(
	customerOrders customerorder.Repository,
	orders order.Repository,
	ledger *appinventory.Ledger,
	refunder Refunder,
	uowFactory shared.UnitOfWorkFactory,
) *Service {
	return &Service{
		customerOrders: customerOrders,
		orders:         orders,
		ledger:         ledger,
		refunder:       refunder,
		uowFactory:     uowFactory,
	}
}

// ============================================================================
// Commands
// ============================================================================

// UpdateOrderStatus moves one sub-order and re-derives its customer order.
// A cancelled sub-order gives its stock back. When that cancellation leaves
// a paid checkout with nothing alive, the checkout is refunded.
func (s *Service) UpdateOrderStatus(ctx context.Context, req UpdateOrderStatusRequest) (*CustomerOrderResponse, error) {
	next, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var co *customerorder.CustomerOrder
	err = shared.Transactional(ctx, s.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		var err error
		co, err = s.customerOrders.FindByOrderID(ctx, req.OrderID)
		if err != nil {
			return err
		}

		o, err := co.UpdateOrderStatus(req.OrderID, next, req.Reason)
		if err != nil {
			return err
		}

		refund := co.Status() == order.StatusCancelled && co.NeedsRefund()
		if refund {
			if err := co.MarkRefunded(); err != nil {
				return err
			}
		}

		if err := s.customerOrders.Save(ctx, co); err != nil {
			return err
		}
		uow.RegisterDirty(co)

		if next == order.StatusCancelled {
			if err := s.ledger.Restock(ctx, stockLines(o)); err != nil {
				return err
			}
		}
		if refund {
			return s.refund(ctx, co, req.Reason)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Order status updated",
		zap.String("order_id", req.OrderID),
		logger.CustomerOrderID(co.ID()),
		zap.String("status", string(next)),
		zap.String("customer_order_status", string(co.Status())))
	return toCustomerOrderResponse(co), nil
}

// CancelCustomerOrder cancels every sub-order that can still be cancelled,
// returns their stock and, for a checkout paid through the gateway,
// credits the final total to the buyer's wallet. Repeating the request
// for a cancelled checkout changes nothing.
func (s *Service) CancelCustomerOrder(ctx context.Context, req CancelCustomerOrderRequest) (*CustomerOrderResponse, error) {
	var co *customerorder.CustomerOrder
	err := shared.Transactional(ctx, s.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		var err error
		co, err = s.customerOrders.FindByID(ctx, req.CustomerOrderID)
		if err != nil {
			return err
		}
		if !co.IsOwnedBy(req.BuyerID) {
			return customerorder.NewNotOwnerError(co.ID())
		}
		if co.Status() == order.StatusCancelled && !co.NeedsRefund() {
			return nil
		}

		cancelled, err := co.Cancel(req.Reason)
		if err != nil {
			return err
		}

		refund := co.NeedsRefund()
		if refund {
			if err := co.MarkRefunded(); err != nil {
				return err
			}
		}

		if err := s.customerOrders.Save(ctx, co); err != nil {
			return err
		}
		uow.RegisterDirty(co)

		if err := s.ledger.Restock(ctx, stockLines(cancelled...)); err != nil {
			return err
		}
		if refund {
			return s.refund(ctx, co, req.Reason)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Customer order cancelled",
		logger.CustomerOrderID(co.ID()),
		logger.BuyerID(co.BuyerID()),
		zap.String("payment_status", string(co.PaymentStatus())))
	return toCustomerOrderResponse(co), nil
}

func (s *Service) refund(ctx context.Context, co *customerorder.CustomerOrder, reason string) error {
	created, err := s.refunder.RefundCustomerOrder(ctx, co, reason)
	if err != nil {
		logger.Error("Refund failed",
			logger.CustomerOrderID(co.ID()),
			zap.Int64("amount", co.FinalTotal().Amount()),
			zap.Error(err))
		return err
	}
	if !created {
		logger.Warn("Refund already credited", logger.CustomerOrderID(co.ID()))
	}
	return nil
}

// ============================================================================
// Queries
// ============================================================================

// GetCustomerOrder loads one checkout. A non-empty buyerID must own it.
func (s *Service) GetCustomerOrder(ctx context.Context, id, buyerID string) (*CustomerOrderResponse, error) {
	co, err := s.customerOrders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if buyerID != "" && !co.IsOwnedBy(buyerID) {
		return nil, customerorder.NewNotOwnerError(id)
	}
	return toCustomerOrderResponse(co), nil
}

// ListCustomerOrders returns the buyer's checkouts, newest first.
func (s *Service) ListCustomerOrders(ctx context.Context, req ListCustomerOrdersRequest) ([]*CustomerOrderResponse, error) {
	specs := []shared.Specification{customerorder.NewByBuyerIDSpecification(req.BuyerID)}
	if req.Status != "" {
		status, err := order.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		specs = append(specs, customerorder.NewByStatusSpecification(status))
	}
	if !req.From.IsZero() || !req.To.IsZero() {
		specs = append(specs, customerorder.NewByDateRangeSpecification(req.From, req.To))
	}

	found, err := s.customerOrders.Find(ctx, shared.AllOf(specs...))
	if err != nil {
		return nil, err
	}

	responses := make([]*CustomerOrderResponse, len(found))
	for i, co := range found {
		responses[i] = toCustomerOrderResponse(co)
	}
	return responses, nil
}

// GetOrder loads one per-seller order.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(o)
	return &resp, nil
}

// ListSellerOrders returns a seller's orders, newest first.
func (s *Service) ListSellerOrders(ctx context.Context, sellerID string) ([]OrderResponse, error) {
	found, err := s.orders.FindBySellerID(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	responses := make([]OrderResponse, len(found))
	for i, o := range found {
		responses[i] = toOrderResponse(o)
	}
	return responses, nil
}
