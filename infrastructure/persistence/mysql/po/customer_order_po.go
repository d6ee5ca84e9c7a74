package po

import (
	"time"

	"bookstore/domain/customerorder"
	"bookstore/domain/order"
	"bookstore/domain/shared"
)

// CustomerOrderPO is the checkout-level row. Sub-orders reference it by id
// only; no GORM associations are declared.
type CustomerOrderPO struct {
	ID                 string     `gorm:"primaryKey;size:64"`
	BuyerID            string     `gorm:"size:64;index;not null"`
	Shipping           ShippingPO `gorm:"embedded;embeddedPrefix:ship_"`
	PaymentMethod      string     `gorm:"size:20;not null"`
	PaymentStatus      string     `gorm:"size:20;not null"`
	Currency           string     `gorm:"size:3;not null"`
	OriginalTotal      int64      `gorm:"not null"`
	DiscountAmount     int64      `gorm:"not null"`
	FinalTotal         int64      `gorm:"not null"`
	ShippingFee        int64      `gorm:"not null"`
	PromotionCode      string     `gorm:"size:50"`
	GatewayTxnRef      *string    `gorm:"size:32;uniqueIndex"`
	Status             string     `gorm:"size:20;not null;index"`
	Notes              string     `gorm:"size:500"`
	CancellationReason string     `gorm:"size:255"`
	Version            int        `gorm:"default:0"`
	CreatedAt          time.Time  `gorm:"not null;index"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

func (CustomerOrderPO) TableName() string {
	return "customer_orders"
}

// OrderPO is one seller's share of a customer order.
type OrderPO struct {
	ID                 string     `gorm:"primaryKey;size:64"`
	CustomerOrderID    string     `gorm:"size:64;index;not null"`
	Sequence           int        `gorm:"not null"`
	BuyerID            string     `gorm:"size:64;not null"`
	SellerID           string     `gorm:"size:64;index;not null"`
	Shipping           ShippingPO `gorm:"embedded;embeddedPrefix:ship_"`
	Currency           string     `gorm:"size:3;not null"`
	Subtotal           int64      `gorm:"not null"`
	ShippingFee        int64      `gorm:"not null"`
	DiscountAmount     int64      `gorm:"not null"`
	DiscountCode       string     `gorm:"size:50"`
	Total              int64      `gorm:"not null"`
	PaymentMethod      string     `gorm:"size:20;not null"`
	PaymentStatus      string     `gorm:"size:20;not null"`
	Status             string     `gorm:"size:20;not null"`
	Notes              string     `gorm:"size:500"`
	CancellationReason string     `gorm:"size:255"`
	Version            int        `gorm:"default:0"`
	CreatedAt          time.Time  `gorm:"not null"`
	UpdatedAt          time.Time  `gorm:"not null"`
}

func (OrderPO) TableName() string {
	return "orders"
}

// OrderItemPO is a purchased line of a sub-order.
type OrderItemPO struct {
	ID        string `gorm:"primaryKey;size:128"`
	OrderID   string `gorm:"size:64;index;not null"`
	BookID    string `gorm:"size:64;not null"`
	Title     string `gorm:"size:255;not null"`
	Quantity  int    `gorm:"not null"`
	UnitPrice int64  `gorm:"not null"`
	Subtotal  int64  `gorm:"not null"`
}

func (OrderItemPO) TableName() string {
	return "order_items"
}

// FromCustomerOrderDomain flattens the aggregate into its three tables.
func FromCustomerOrderDomain(co *customerorder.CustomerOrder) (*CustomerOrderPO, []OrderPO, []OrderItemPO) {
	coPO := &CustomerOrderPO{
		ID:                 co.ID(),
		BuyerID:            co.BuyerID(),
		Shipping:           FromShipping(co.Shipping()),
		PaymentMethod:      string(co.PaymentMethod()),
		PaymentStatus:      string(co.PaymentStatus()),
		Currency:           co.FinalTotal().Currency(),
		OriginalTotal:      co.OriginalTotal().Amount(),
		DiscountAmount:     co.DiscountAmount().Amount(),
		FinalTotal:         co.FinalTotal().Amount(),
		ShippingFee:        co.ShippingFee().Amount(),
		PromotionCode:      co.PromotionCode(),
		Status:             string(co.Status()),
		Notes:              co.Notes(),
		CancellationReason: co.CancellationReason(),
		Version:            co.Version(),
		CreatedAt:          co.CreatedAt(),
		UpdatedAt:          co.UpdatedAt(),
	}
	// NULL keeps the unique index from colliding across COD orders
	if ref := co.GatewayTxnRef(); ref != "" {
		coPO.GatewayTxnRef = &ref
	}

	var orderPOs []OrderPO
	var itemPOs []OrderItemPO
	for _, o := range co.Orders() {
		oPO, items := FromOrderDomain(o)
		orderPOs = append(orderPOs, *oPO)
		itemPOs = append(itemPOs, items...)
	}
	return coPO, orderPOs, itemPOs
}

func FromOrderDomain(o *order.Order) (*OrderPO, []OrderItemPO) {
	orderPO := &OrderPO{
		ID:                 o.ID(),
		CustomerOrderID:    o.CustomerOrderID(),
		Sequence:           o.Sequence(),
		BuyerID:            o.BuyerID(),
		SellerID:           o.SellerID(),
		Shipping:           FromShipping(o.Shipping()),
		Currency:           o.Total().Currency(),
		Subtotal:           o.Subtotal().Amount(),
		ShippingFee:        o.ShippingFee().Amount(),
		DiscountAmount:     o.DiscountAmount().Amount(),
		DiscountCode:       o.DiscountCode(),
		Total:              o.Total().Amount(),
		PaymentMethod:      string(o.PaymentMethod()),
		PaymentStatus:      string(o.PaymentStatus()),
		Status:             string(o.Status()),
		Notes:              o.Notes(),
		CancellationReason: o.CancellationReason(),
		Version:            o.Version(),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
	}

	items := o.Items()
	itemPOs := make([]OrderItemPO, len(items))
	for i, item := range items {
		itemPOs[i] = OrderItemPO{
			ID:        item.ID(),
			OrderID:   o.ID(),
			BookID:    item.BookID(),
			Title:     item.Title(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().Amount(),
			Subtotal:  item.Subtotal().Amount(),
		}
	}
	return orderPO, itemPOs
}

// StatusColumns are the fields an update may change after placement.
func (p *CustomerOrderPO) StatusColumns() map[string]interface{} {
	return map[string]interface{}{
		"payment_status":      p.PaymentStatus,
		"status":              p.Status,
		"cancellation_reason": p.CancellationReason,
		"updated_at":          p.UpdatedAt,
	}
}

func (p *OrderPO) StatusColumns() map[string]interface{} {
	return map[string]interface{}{
		"payment_status":      p.PaymentStatus,
		"status":              p.Status,
		"cancellation_reason": p.CancellationReason,
		"updated_at":          p.UpdatedAt,
	}
}

func (p *OrderPO) ToDomain(itemPOs []OrderItemPO) *order.Order {
	items := make([]order.Item, len(itemPOs))
	for i, itemPO := range itemPOs {
		items[i] = order.RebuildItemFromDTO(order.ItemReconstructionDTO{
			ID:        itemPO.ID,
			BookID:    itemPO.BookID,
			Title:     itemPO.Title,
			Quantity:  itemPO.Quantity,
			UnitPrice: *shared.NewMoney(itemPO.UnitPrice, p.Currency),
			Subtotal:  *shared.NewMoney(itemPO.Subtotal, p.Currency),
		})
	}

	return order.RebuildFromDTO(order.ReconstructionDTO{
		ID:                 p.ID,
		CustomerOrderID:    p.CustomerOrderID,
		Sequence:           p.Sequence,
		BuyerID:            p.BuyerID,
		SellerID:           p.SellerID,
		Shipping:           p.Shipping.ToDomain(),
		Items:              items,
		Subtotal:           *shared.NewMoney(p.Subtotal, p.Currency),
		ShippingFee:        *shared.NewMoney(p.ShippingFee, p.Currency),
		DiscountAmount:     *shared.NewMoney(p.DiscountAmount, p.Currency),
		DiscountCode:       p.DiscountCode,
		Total:              *shared.NewMoney(p.Total, p.Currency),
		PaymentMethod:      shared.PaymentMethod(p.PaymentMethod),
		PaymentStatus:      shared.PaymentStatus(p.PaymentStatus),
		Status:             order.Status(p.Status),
		Notes:              p.Notes,
		CancellationReason: p.CancellationReason,
		Version:            p.Version,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	})
}

// ToDomain expects orders already sorted by sequence.
func (p *CustomerOrderPO) ToDomain(orders []*order.Order) *customerorder.CustomerOrder {
	var txnRef string
	if p.GatewayTxnRef != nil {
		txnRef = *p.GatewayTxnRef
	}
	return customerorder.RebuildFromDTO(customerorder.ReconstructionDTO{
		ID:                 p.ID,
		BuyerID:            p.BuyerID,
		Shipping:           p.Shipping.ToDomain(),
		PaymentMethod:      shared.PaymentMethod(p.PaymentMethod),
		PaymentStatus:      shared.PaymentStatus(p.PaymentStatus),
		Orders:             orders,
		OriginalTotal:      *shared.NewMoney(p.OriginalTotal, p.Currency),
		DiscountAmount:     *shared.NewMoney(p.DiscountAmount, p.Currency),
		FinalTotal:         *shared.NewMoney(p.FinalTotal, p.Currency),
		ShippingFee:        *shared.NewMoney(p.ShippingFee, p.Currency),
		PromotionCode:      p.PromotionCode,
		GatewayTxnRef:      txnRef,
		Status:             order.Status(p.Status),
		Notes:              p.Notes,
		CancellationReason: p.CancellationReason,
		Version:            p.Version,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	})
}
