/*
Package order Per-seller sub-order

A checkout touching N sellers produces N Orders, all owned by one
CustomerOrder. An Order's line items are fixed at creation; afterwards only
its status, payment status and cancellation reason change.

DDD Core Principles:
1. All fields are private, behavior exposed through methods
2. Status changes go through the transition table in status.go
3. Version is incremented by the repository after a successful save
*/
package order

import (
	"fmt"
	"time"

	"bookstore/domain/shared"

	"github.com/google/uuid"
)

// CartLine is one selected book at checkout time. It is never persisted on
// its own; it becomes an Item of the seller's Order.
type CartLine struct {
	BookID    string
	Title     string
	Quantity  int
	UnitPrice shared.Money
	SellerID  string
}

// Order Per-seller sub-order aggregate
type Order struct {
	id                 string
	customerOrderID    string
	sequence           int // creation order inside its checkout
	buyerID            string
	sellerID           string
	shipping           shared.ShippingAddress
	items              []Item
	subtotal           shared.Money
	shippingFee        shared.Money
	discountAmount     shared.Money
	discountCode       string
	total              shared.Money
	paymentMethod      shared.PaymentMethod
	paymentStatus      shared.PaymentStatus
	status             Status
	notes              string
	cancellationReason string
	version            int
	createdAt          time.Time
	updatedAt          time.Time

	events []shared.DomainEvent
	isNew  bool
}

// Item Line item - entity inside the Order aggregate
type Item struct {
	id        string
	bookID    string
	title     string
	quantity  int
	unitPrice shared.Money
	subtotal  shared.Money
}

// NewOrderParams Create order options
type NewOrderParams struct {
	CustomerOrderID string
	Sequence        int
	BuyerID         string
	SellerID        string
	Shipping        shared.ShippingAddress
	Lines           []CartLine
	ShippingFee     shared.Money
	PaymentMethod   shared.PaymentMethod
	Notes           string
}

// ============================================================================
// Factory Methods
// ============================================================================

// NewOrder builds a PENDING order for one seller. Every line must belong to
// params.SellerID.
func NewOrder(params NewOrderParams) (*Order, error) {
	if params.BuyerID == "" || params.SellerID == "" || params.CustomerOrderID == "" {
		return nil, NewInvalidOrderError("buyer, seller and customer order are required")
	}
	if len(params.Lines) == 0 {
		return nil, NewEmptyOrderItemsError()
	}
	if !params.PaymentMethod.IsValid() {
		return nil, NewInvalidOrderError("unsupported payment method " + string(params.PaymentMethod))
	}
	if params.ShippingFee.IsNegative() {
		return nil, NewInvalidOrderError("shipping fee cannot be negative")
	}

	items := make([]Item, len(params.Lines))
	subtotal := shared.Zero(shared.CurrencyVND)
	for i, line := range params.Lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if line.SellerID != params.SellerID {
			return nil, NewInvalidOrderError(fmt.Sprintf("book %s is not sold by seller %s", line.BookID, params.SellerID))
		}

		lineTotal, err := line.UnitPrice.Multiply(line.Quantity)
		if err != nil {
			return nil, err
		}
		sum, err := subtotal.Add(*lineTotal)
		if err != nil {
			return nil, err
		}
		subtotal = *sum

		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate order item ID: %w", err)
		}
		items[i] = Item{
			id:        id.String(),
			bookID:    line.BookID,
			title:     line.Title,
			quantity:  line.Quantity,
			unitPrice: line.UnitPrice,
			subtotal:  *lineTotal,
		}
	}

	if !subtotal.IsPositive() {
		return nil, ErrOrderTotalAmountNotPositive
	}

	total, err := subtotal.Add(params.ShippingFee)
	if err != nil {
		return nil, err
	}

	orderID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order ID: %w", err)
	}

	now := time.Now()
	return &Order{
		id:              orderID.String(),
		customerOrderID: params.CustomerOrderID,
		sequence:        params.Sequence,
		buyerID:         params.BuyerID,
		sellerID:        params.SellerID,
		shipping:        params.Shipping,
		items:           items,
		subtotal:        subtotal,
		shippingFee:     params.ShippingFee,
		discountAmount:  shared.Zero(shared.CurrencyVND),
		total:           *total,
		paymentMethod:   params.PaymentMethod,
		paymentStatus:   shared.PaymentPending,
		status:          StatusPending,
		notes:           params.Notes,
		createdAt:       now,
		updatedAt:       now,
		isNew:           true,
	}, nil
}

// ============================================================================
// ReconstructionDTO - For Repository Layer Use Only
// ============================================================================

type ReconstructionDTO struct {
	ID                 string
	CustomerOrderID    string
	Sequence           int
	BuyerID            string
	SellerID           string
	Shipping           shared.ShippingAddress
	Items              []Item
	Subtotal           shared.Money
	ShippingFee        shared.Money
	DiscountAmount     shared.Money
	DiscountCode       string
	Total              shared.Money
	PaymentMethod      shared.PaymentMethod
	PaymentStatus      shared.PaymentStatus
	Status             Status
	Notes              string
	CancellationReason string
	Version            int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *Order {
	return &Order{
		id:                 dto.ID,
		customerOrderID:    dto.CustomerOrderID,
		sequence:           dto.Sequence,
		buyerID:            dto.BuyerID,
		sellerID:           dto.SellerID,
		shipping:           dto.Shipping,
		items:              dto.Items,
		subtotal:           dto.Subtotal,
		shippingFee:        dto.ShippingFee,
		discountAmount:     dto.DiscountAmount,
		discountCode:       dto.DiscountCode,
		total:              dto.Total,
		paymentMethod:      dto.PaymentMethod,
		paymentStatus:      dto.PaymentStatus,
		status:             dto.Status,
		notes:              dto.Notes,
		cancellationReason: dto.CancellationReason,
		version:            dto.Version,
		createdAt:          dto.CreatedAt,
		updatedAt:          dto.UpdatedAt,
	}
}

type ItemReconstructionDTO struct {
	ID        string
	BookID    string
	Title     string
	Quantity  int
	UnitPrice shared.Money
	Subtotal  shared.Money
}

func RebuildItemFromDTO(dto ItemReconstructionDTO) Item {
	return Item{
		id:        dto.ID,
		bookID:    dto.BookID,
		title:     dto.Title,
		quantity:  dto.Quantity,
		unitPrice: dto.UnitPrice,
		subtotal:  dto.Subtotal,
	}
}

// ============================================================================
// Pricing
// ============================================================================

// ApplyDiscount sets this order's share of a checkout-wide promotion and
// recomputes total = subtotal + shipping - discount. The share is clamped
// to [0, subtotal].
func (o *Order) ApplyDiscount(amount shared.Money, code string) {
	amount = amount.ClampZero().Min(o.subtotal)

	o.discountAmount = amount
	o.discountCode = code
	o.total = shared.VND(o.subtotal.Amount() + o.shippingFee.Amount() - amount.Amount())
	o.updatedAt = time.Now()
}

// ============================================================================
// State Change Methods
// ============================================================================

// TransitionTo moves the order to next if the transition table allows it.
// reason is kept only for cancellations.
func (o *Order) TransitionTo(next Status, reason string) error {
	if !o.status.CanTransitionTo(next) {
		return NewInvalidOrderStateError(string(o.status), string(next))
	}

	from := o.status
	o.status = next
	if next == StatusCancelled {
		o.cancellationReason = reason
	}
	o.updatedAt = time.Now()
	o.events = append(o.events, NewOrderStatusChangedEvent(o.id, o.customerOrderID, from, next, reason))
	return nil
}

// StartProcessing moves a freshly placed order to PROCESSING.
func (o *Order) StartProcessing() error {
	return o.TransitionTo(StatusProcessing, "")
}

// Cancel cancels the order if it has not been delivered.
func (o *Order) Cancel(reason string) error {
	return o.TransitionTo(StatusCancelled, reason)
}

// CanCancel reports whether Cancel would succeed.
func (o *Order) CanCancel() bool {
	return o.status.CanTransitionTo(StatusCancelled)
}

// MarkPaid records that the gateway settled the order.
func (o *Order) MarkPaid() {
	o.paymentStatus = shared.PaymentPaid
	o.updatedAt = time.Now()
}

// MarkRefunded records that the paid amount went back to the buyer.
func (o *Order) MarkRefunded() error {
	if o.paymentStatus != shared.PaymentPaid {
		return NewInvalidOrderError("only paid orders can be refunded")
	}
	o.paymentStatus = shared.PaymentRefunded
	o.updatedAt = time.Now()
	return nil
}

// IncrementVersionForSave Increments the version after successful persistence
func (o *Order) IncrementVersionForSave() {
	o.version++
}

// ============================================================================
// Getters
// ============================================================================

func (o *Order) ID() string                          { return o.id }
func (o *Order) CustomerOrderID() string             { return o.customerOrderID }
func (o *Order) Sequence() int                       { return o.sequence }
func (o *Order) BuyerID() string                     { return o.buyerID }
func (o *Order) SellerID() string                    { return o.sellerID }
func (o *Order) Shipping() shared.ShippingAddress    { return o.shipping }
func (o *Order) Subtotal() shared.Money              { return o.subtotal }
func (o *Order) ShippingFee() shared.Money           { return o.shippingFee }
func (o *Order) DiscountAmount() shared.Money        { return o.discountAmount }
func (o *Order) DiscountCode() string                { return o.discountCode }
func (o *Order) Total() shared.Money                 { return o.total }
func (o *Order) PaymentMethod() shared.PaymentMethod { return o.paymentMethod }
func (o *Order) PaymentStatus() shared.PaymentStatus { return o.paymentStatus }
func (o *Order) Status() Status                      { return o.status }
func (o *Order) Notes() string                       { return o.notes }
func (o *Order) CancellationReason() string          { return o.cancellationReason }
func (o *Order) Version() int                        { return o.version }
func (o *Order) CreatedAt() time.Time                { return o.createdAt }
func (o *Order) UpdatedAt() time.Time                { return o.updatedAt }
func (o *Order) IsNew() bool                         { return o.isNew }

// Items Return copy of order items
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// ClearDirtyTracking is called by the repository after a successful save.
func (o *Order) ClearDirtyTracking() {
	o.isNew = false
}

// PullEvents Get and clear aggregate root's event list
func (o *Order) PullEvents() []shared.DomainEvent {
	events := make([]shared.DomainEvent, len(o.events))
	copy(events, o.events)
	o.events = nil
	return events
}

func (item Item) ID() string              { return item.id }
func (item Item) BookID() string          { return item.bookID }
func (item Item) Title() string           { return item.title }
func (item Item) Quantity() int           { return item.quantity }
func (item Item) UnitPrice() shared.Money { return item.unitPrice }
func (item Item) Subtotal() shared.Money  { return item.subtotal }

var _ shared.AggregateRoot = (*Order)(nil)
