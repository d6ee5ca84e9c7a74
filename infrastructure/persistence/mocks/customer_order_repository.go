package mocks

import (
	"context"
	"sort"
	"sync"

	"bookstore/domain/customerorder"
	"bookstore/domain/order"
	"bookstore/domain/shared"
)

// MockCustomerOrderRepository is an in-memory repository for customer
// orders and their sub-orders. It stores copies so callers cannot change
// persisted state without going through Save.
type MockCustomerOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*customerorder.CustomerOrder
}

// NewMockCustomerOrderRepository creates a new empty mock repository
func NewMockCustomerOrderRepository() *MockCustomerOrderRepository {
	return &MockCustomerOrderRepository{
		orders: make(map[string]*customerorder.CustomerOrder),
	}
}

func cloneOrder(o *order.Order) *order.Order {
	return order.RebuildFromDTO(order.ReconstructionDTO{
		ID:                 o.ID(),
		CustomerOrderID:    o.CustomerOrderID(),
		Sequence:           o.Sequence(),
		BuyerID:            o.BuyerID(),
		SellerID:           o.SellerID(),
		Shipping:           o.Shipping(),
		Items:              o.Items(),
		Subtotal:           o.Subtotal(),
		ShippingFee:        o.ShippingFee(),
		DiscountAmount:     o.DiscountAmount(),
		DiscountCode:       o.DiscountCode(),
		Total:              o.Total(),
		PaymentMethod:      o.PaymentMethod(),
		PaymentStatus:      o.PaymentStatus(),
		Status:             o.Status(),
		Notes:              o.Notes(),
		CancellationReason: o.CancellationReason(),
		Version:            o.Version(),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
	})
}

func cloneCustomerOrder(co *customerorder.CustomerOrder) *customerorder.CustomerOrder {
	orders := co.Orders()
	for i, o := range orders {
		orders[i] = cloneOrder(o)
	}
	return customerorder.RebuildFromDTO(customerorder.ReconstructionDTO{
		ID:                 co.ID(),
		BuyerID:            co.BuyerID(),
		Shipping:           co.Shipping(),
		PaymentMethod:      co.PaymentMethod(),
		PaymentStatus:      co.PaymentStatus(),
		Orders:             orders,
		OriginalTotal:      co.OriginalTotal(),
		DiscountAmount:     co.DiscountAmount(),
		FinalTotal:         co.FinalTotal(),
		ShippingFee:        co.ShippingFee(),
		PromotionCode:      co.PromotionCode(),
		GatewayTxnRef:      co.GatewayTxnRef(),
		Status:             co.Status(),
		Notes:              co.Notes(),
		CancellationReason: co.CancellationReason(),
		Version:            co.Version(),
		CreatedAt:          co.CreatedAt(),
		UpdatedAt:          co.UpdatedAt(),
	})
}

// Save inserts new aggregates and updates existing ones under a version check.
func (r *MockCustomerOrderRepository) Save(ctx context.Context, co *customerorder.CustomerOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if co.IsNew() {
		if _, exists := r.orders[co.ID()]; exists {
			return customerorder.NewConcurrentModificationError(co.ID())
		}
	} else {
		existing, ok := r.orders[co.ID()]
		if !ok {
			return customerorder.NewCustomerOrderNotFoundError(co.ID())
		}
		if existing.Version() != co.Version() {
			return customerorder.NewConcurrentModificationError(co.ID())
		}
		co.IncrementVersionForSave()
		for _, o := range co.Orders() {
			if !o.IsNew() {
				o.IncrementVersionForSave()
			}
		}
	}
	co.ClearDirtyTracking()

	id := co.ID()
	prev := r.orders[id]
	saved := cloneCustomerOrder(co)
	r.orders[id] = saved
	onRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.orders[id] != saved {
			return
		}
		if prev == nil {
			delete(r.orders, id)
		} else {
			r.orders[id] = prev
		}
	})
	return nil
}

func (r *MockCustomerOrderRepository) FindByID(ctx context.Context, id string) (*customerorder.CustomerOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	co, ok := r.orders[id]
	if !ok {
		return nil, customerorder.NewCustomerOrderNotFoundError(id)
	}
	return cloneCustomerOrder(co), nil
}

func (r *MockCustomerOrderRepository) FindByOrderID(ctx context.Context, orderID string) (*customerorder.CustomerOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, co := range r.orders {
		if co.Order(orderID) != nil {
			return cloneCustomerOrder(co), nil
		}
	}
	return nil, order.NewOrderNotFoundError(orderID)
}

func (r *MockCustomerOrderRepository) FindByGatewayTxnRef(ctx context.Context, txnRef string) (*customerorder.CustomerOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, co := range r.orders {
		if txnRef != "" && co.GatewayTxnRef() == txnRef {
			return cloneCustomerOrder(co), nil
		}
	}
	return nil, customerorder.NewCustomerOrderNotFoundError(txnRef)
}

// Find evaluates spec in memory. A nil spec matches everything.
func (r *MockCustomerOrderRepository) Find(ctx context.Context, spec shared.Specification) ([]*customerorder.CustomerOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*customerorder.CustomerOrder
	for _, co := range r.orders {
		if spec == nil || spec.IsSatisfiedBy(ctx, co) {
			result = append(result, cloneCustomerOrder(co))
		}
	}
	sortNewestFirst(result)
	return result, nil
}

// FindOrder loads a single sub-order.
func (r *MockCustomerOrderRepository) FindOrder(ctx context.Context, id string) (*order.Order, error) {
	co, err := r.FindByOrderID(ctx, id)
	if err != nil {
		return nil, err
	}
	return co.Order(id), nil
}

func (r *MockCustomerOrderRepository) FindBySellerID(ctx context.Context, sellerID string) ([]*order.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*order.Order
	for _, co := range r.orders {
		for _, o := range co.Orders() {
			if o.SellerID() == sellerID {
				result = append(result, cloneOrder(o))
			}
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt().After(result[j].CreatedAt()) })
	return result, nil
}

// Count returns how many customer orders are stored.
func (r *MockCustomerOrderRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.orders)
}

// Orders exposes the same store through order.Repository.
func (r *MockCustomerOrderRepository) Orders() order.Repository {
	return orderView{r}
}

type orderView struct {
	r *MockCustomerOrderRepository
}

func (v orderView) FindByID(ctx context.Context, id string) (*order.Order, error) {
	return v.r.FindOrder(ctx, id)
}

func (v orderView) FindBySellerID(ctx context.Context, sellerID string) ([]*order.Order, error) {
	return v.r.FindBySellerID(ctx, sellerID)
}

func sortNewestFirst(orders []*customerorder.CustomerOrder) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt().Equal(orders[j].CreatedAt()) {
			return orders[i].ID() > orders[j].ID()
		}
		return orders[i].CreatedAt().After(orders[j].CreatedAt())
	})
}

var (
	_ customerorder.Repository = (*MockCustomerOrderRepository)(nil)
	_ order.Repository         = orderView{}
)
