/*
Package customerorder holds the checkout aggregate: one CustomerOrder per
checkout, owning one Order per seller. Its status is derived from the
sub-orders and its totals are fixed when it is placed.

Invariants:
  - originalTotal == Σ order.subtotal + Σ order.shippingFee
  - finalTotal == originalTotal - discountAmount
*/
package customerorder

import (
	"fmt"
	"time"

	"bookstore/domain/order"
	"bookstore/domain/shared"

	"github.com/google/uuid"
)

// CustomerOrder aggregate root
type CustomerOrder struct {
	id                 string
	buyerID            string
	shipping           shared.ShippingAddress
	paymentMethod      shared.PaymentMethod
	paymentStatus      shared.PaymentStatus
	orders             []*order.Order
	originalTotal      shared.Money
	discountAmount     shared.Money
	finalTotal         shared.Money
	shippingFee        shared.Money
	promotionCode      string
	gatewayTxnRef      string
	status             order.Status
	notes              string
	cancellationReason string
	version            int
	createdAt          time.Time
	updatedAt          time.Time

	shared.EventRecorder
	isNew bool
}

// PlaceParams is the input to Place.
type PlaceParams struct {
	ID            string
	BuyerID       string
	Shipping      shared.ShippingAddress
	PaymentMethod shared.PaymentMethod
	Orders        []*order.Order
	PromotionCode string
	GatewayTxnRef string
	Notes         string
}

// NewID reserves an identity before the sub-orders are built, since each
// of them records its parent id.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate customer order ID: %w", err)
	}
	return id.String(), nil
}

// Place assembles a customer order from priced sub-orders and moves every
// sub-order to PROCESSING. Totals are summed from the sub-orders, so the
// discount is whatever the distributor actually assigned.
func Place(params PlaceParams) (*CustomerOrder, error) {
	if params.ID == "" || params.BuyerID == "" {
		return nil, NewInvalidCustomerOrderError("id and buyer are required")
	}
	if len(params.Orders) == 0 {
		return nil, NewInvalidCustomerOrderError("a customer order needs at least one seller order")
	}

	var subtotal, shipping, discount int64
	for _, o := range params.Orders {
		if o.CustomerOrderID() != params.ID {
			return nil, NewInvalidCustomerOrderError("order " + o.ID() + " belongs to another customer order")
		}
		if o.BuyerID() != params.BuyerID {
			return nil, NewInvalidCustomerOrderError("order " + o.ID() + " belongs to another buyer")
		}
		subtotal += o.Subtotal().Amount()
		shipping += o.ShippingFee().Amount()
		discount += o.DiscountAmount().Amount()
	}

	for _, o := range params.Orders {
		if err := o.StartProcessing(); err != nil {
			return nil, err
		}
	}

	original := subtotal + shipping
	now := time.Now()
	co := &CustomerOrder{
		id:             params.ID,
		buyerID:        params.BuyerID,
		shipping:       params.Shipping,
		paymentMethod:  params.PaymentMethod,
		paymentStatus:  shared.PaymentPending,
		orders:         params.Orders,
		originalTotal:  shared.VND(original),
		discountAmount: shared.VND(discount),
		finalTotal:     shared.VND(original - discount),
		shippingFee:    shared.VND(shipping),
		promotionCode:  params.PromotionCode,
		gatewayTxnRef:  params.GatewayTxnRef,
		notes:          params.Notes,
		createdAt:      now,
		updatedAt:      now,
		isNew:          true,
	}
	co.status = DeriveStatus(co.orderStatuses())
	co.Record(NewOrderPlacedEvent(co))
	return co, nil
}

// ============================================================================
// ReconstructionDTO - repository use only
// ============================================================================

type ReconstructionDTO struct {
	ID                 string
	BuyerID            string
	Shipping           shared.ShippingAddress
	PaymentMethod      shared.PaymentMethod
	PaymentStatus      shared.PaymentStatus
	Orders             []*order.Order
	OriginalTotal      shared.Money
	DiscountAmount     shared.Money
	FinalTotal         shared.Money
	ShippingFee        shared.Money
	PromotionCode      string
	GatewayTxnRef      string
	Status             order.Status
	Notes              string
	CancellationReason string
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *CustomerOrder {
	return &CustomerOrder{
		id:                 dto.ID,
		buyerID:            dto.BuyerID,
		shipping:           dto.Shipping,
		paymentMethod:      dto.PaymentMethod,
		paymentStatus:      dto.PaymentStatus,
		orders:             dto.Orders,
		originalTotal:      dto.OriginalTotal,
		discountAmount:     dto.DiscountAmount,
		finalTotal:         dto.FinalTotal,
		shippingFee:        dto.ShippingFee,
		promotionCode:      dto.PromotionCode,
		gatewayTxnRef:      dto.GatewayTxnRef,
		status:             dto.Status,
		notes:              dto.Notes,
		cancellationReason: dto.CancellationReason,
		version:            dto.Version,
		createdAt:          dto.CreatedAt,
		updatedAt:          dto.UpdatedAt,
	}
}

// ============================================================================
// Behavior
// ============================================================================

// MarkPaid records gateway settlement on the aggregate and every sub-order.
func (c *CustomerOrder) MarkPaid() {
	c.paymentStatus = shared.PaymentPaid
	for _, o := range c.orders {
		o.MarkPaid()
	}
	c.updatedAt = time.Now()
}

// UpdateOrderStatus moves one sub-order and re-derives the aggregate status.
func (c *CustomerOrder) UpdateOrderStatus(orderID string, next order.Status, reason string) (*order.Order, error) {
	o := c.Order(orderID)
	if o == nil {
		return nil, order.NewOrderNotFoundError(orderID)
	}
	if err := o.TransitionTo(next, reason); err != nil {
		return nil, err
	}
	c.refreshStatus()
	return o, nil
}

// CanCancel reports whether the buyer may still cancel the whole checkout.
func (c *CustomerOrder) CanCancel() bool {
	return c.status == order.StatusPending || c.status == order.StatusProcessing
}

// Cancel cancels every still-cancellable sub-order and returns them, so
// the caller can give their stock back. Cancelling an already cancelled
// customer order returns nothing and no error.
func (c *CustomerOrder) Cancel(reason string) ([]*order.Order, error) {
	if c.status == order.StatusCancelled {
		return nil, nil
	}
	if !c.CanCancel() {
		return nil, NewCannotCancelError(c.id, string(c.status))
	}

	var cancelled []*order.Order
	for _, o := range c.orders {
		if !o.CanCancel() {
			continue
		}
		if err := o.Cancel(reason); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, o)
	}

	c.status = order.StatusCancelled
	c.cancellationReason = reason
	c.updatedAt = time.Now()
	c.Record(NewCustomerOrderCancelledEvent(c.id, c.buyerID, reason, c.NeedsRefund()))
	return cancelled, nil
}

// NeedsRefund is true when money was taken through the gateway and has
// not been returned yet.
func (c *CustomerOrder) NeedsRefund() bool {
	return c.paymentMethod.IsAsynchronous() && c.paymentStatus == shared.PaymentPaid
}

// MarkRefunded records that the final total went back to the buyer's wallet.
func (c *CustomerOrder) MarkRefunded() error {
	if c.paymentStatus != shared.PaymentPaid {
		return NewInvalidCustomerOrderError("only paid customer orders can be refunded")
	}
	c.paymentStatus = shared.PaymentRefunded
	for _, o := range c.orders {
		if o.PaymentStatus() == shared.PaymentPaid {
			if err := o.MarkRefunded(); err != nil {
				return err
			}
		}
	}
	c.updatedAt = time.Now()
	return nil
}

// IsOwnedBy reports whether buyerID placed this customer order.
func (c *CustomerOrder) IsOwnedBy(buyerID string) bool {
	return c.buyerID == buyerID
}

func (c *CustomerOrder) IncrementVersionForSave() {
	c.version++
}

func (c *CustomerOrder) ClearDirtyTracking() {
	c.isNew = false
	for _, o := range c.orders {
		o.ClearDirtyTracking()
	}
}

// PullEvents returns the aggregate's events followed by its sub-orders'.
func (c *CustomerOrder) PullEvents() []shared.DomainEvent {
	events := c.EventRecorder.PullEvents()
	for _, o := range c.orders {
		events = append(events, o.PullEvents()...)
	}
	return events
}

func (c *CustomerOrder) refreshStatus() {
	c.status = DeriveStatus(c.orderStatuses())
	c.updatedAt = time.Now()
}

func (c *CustomerOrder) orderStatuses() []order.Status {
	statuses := make([]order.Status, len(c.orders))
	for i, o := range c.orders {
		statuses[i] = o.Status()
	}
	return statuses
}

// ============================================================================
// Getters
// ============================================================================

func (c *CustomerOrder) ID() string                          { return c.id }
func (c *CustomerOrder) BuyerID() string                     { return c.buyerID }
func (c *CustomerOrder) Shipping() shared.ShippingAddress    { return c.shipping }
func (c *CustomerOrder) PaymentMethod() shared.PaymentMethod { return c.paymentMethod }
func (c *CustomerOrder) PaymentStatus() shared.PaymentStatus { return c.paymentStatus }
func (c *CustomerOrder) OriginalTotal() shared.Money         { return c.originalTotal }
func (c *CustomerOrder) DiscountAmount() shared.Money        { return c.discountAmount }
func (c *CustomerOrder) FinalTotal() shared.Money            { return c.finalTotal }
func (c *CustomerOrder) ShippingFee() shared.Money           { return c.shippingFee }
func (c *CustomerOrder) PromotionCode() string               { return c.promotionCode }
func (c *CustomerOrder) GatewayTxnRef() string               { return c.gatewayTxnRef }
func (c *CustomerOrder) Status() order.Status                { return c.status }
func (c *CustomerOrder) Notes() string                       { return c.notes }
func (c *CustomerOrder) CancellationReason() string          { return c.cancellationReason }
func (c *CustomerOrder) Version() int                        { return c.version }
func (c *CustomerOrder) CreatedAt() time.Time                { return c.createdAt }
func (c *CustomerOrder) UpdatedAt() time.Time                { return c.updatedAt }
func (c *CustomerOrder) IsNew() bool                         { return c.isNew }

// Orders returns the sub-orders in creation sequence.
func (c *CustomerOrder) Orders() []*order.Order {
	orders := make([]*order.Order, len(c.orders))
	copy(orders, c.orders)
	return orders
}

// Order returns the sub-order with the given id, or nil.
func (c *CustomerOrder) Order(orderID string) *order.Order {
	for _, o := range c.orders {
		if o.ID() == orderID {
			return o
		}
	}
	return nil
}

var _ shared.AggregateRoot = (*CustomerOrder)(nil)
