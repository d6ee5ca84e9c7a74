package payment

import (
	"bookstore/domain/order"
	"bookstore/domain/shared"
)

// Snapshot is everything needed to materialise the orders once the
// payment settles: the priced per-seller split as it was shown to the
// buyer, so nothing is re-priced at callback time.
type Snapshot struct {
	Shipping      shared.ShippingAddress `json:"shipping"`
	Notes         string                 `json:"notes,omitempty"`
	PromotionCode string                 `json:"promotion_code,omitempty"`
	PromotionID   string                 `json:"promotion_id,omitempty"`
	Orders        []SnapshotOrder        `json:"orders"`
}

type SnapshotOrder struct {
	SellerID    string         `json:"seller_id"`
	Sequence    int            `json:"sequence"`
	ShippingFee int64          `json:"shipping_fee"`
	Discount    int64          `json:"discount"`
	Lines       []SnapshotLine `json:"lines"`
}

type SnapshotLine struct {
	BookID    string `json:"book_id"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// SnapshotOf captures priced orders.
func SnapshotOf(shipping shared.ShippingAddress, notes, promotionCode, promotionID string, orders []*order.Order) Snapshot {
	s := Snapshot{
		Shipping:      shipping,
		Notes:         notes,
		PromotionCode: promotionCode,
		PromotionID:   promotionID,
		Orders:        make([]SnapshotOrder, len(orders)),
	}
	for i, o := range orders {
		so := SnapshotOrder{
			SellerID:    o.SellerID(),
			Sequence:    o.Sequence(),
			ShippingFee: o.ShippingFee().Amount(),
			Discount:    o.DiscountAmount().Amount(),
		}
		for _, item := range o.Items() {
			so.Lines = append(so.Lines, SnapshotLine{
				BookID:    item.BookID(),
				Title:     item.Title(),
				Quantity:  item.Quantity(),
				UnitPrice: item.UnitPrice().Amount(),
			})
		}
		s.Orders[i] = so
	}
	return s
}

// BuildOrders re-creates the priced sub-orders under a new customer order.
func (s Snapshot) BuildOrders(customerOrderID, buyerID string, method shared.PaymentMethod) ([]*order.Order, error) {
	orders := make([]*order.Order, 0, len(s.Orders))
	for _, so := range s.Orders {
		lines := make([]order.CartLine, len(so.Lines))
		for i, l := range so.Lines {
			lines[i] = order.CartLine{
				BookID:    l.BookID,
				Title:     l.Title,
				Quantity:  l.Quantity,
				UnitPrice: shared.VND(l.UnitPrice),
				SellerID:  so.SellerID,
			}
		}

		o, err := order.NewOrder(order.NewOrderParams{
			CustomerOrderID: customerOrderID,
			Sequence:        so.Sequence,
			BuyerID:         buyerID,
			SellerID:        so.SellerID,
			Shipping:        s.Shipping,
			Lines:           lines,
			ShippingFee:     shared.VND(so.ShippingFee),
			PaymentMethod:   method,
			Notes:           s.Notes,
		})
		if err != nil {
			return nil, err
		}
		if so.Discount > 0 {
			o.ApplyDiscount(shared.VND(so.Discount), s.PromotionCode)
		}
		orders = append(orders, o)
	}
	return orders, nil
}
