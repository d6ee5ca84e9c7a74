package order

import (
	"bookstore/domain/customerorder"
	"bookstore/domain/inventory"
	"bookstore/domain/order"
	"bookstore/domain/shared"
)

func toMoneyResponse(m shared.Money) MoneyResponse {
	return MoneyResponse{Amount: m.Amount(), Currency: m.Currency()}
}

func toOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items()))
	for i, item := range o.Items() {
		items[i] = OrderItemResponse{
			BookID:    item.BookID(),
			Title:     item.Title(),
			Quantity:  item.Quantity(),
			UnitPrice: toMoneyResponse(item.UnitPrice()),
			Subtotal:  toMoneyResponse(item.Subtotal()),
		}
	}

	return OrderResponse{
		ID:                 o.ID(),
		CustomerOrderID:    o.CustomerOrderID(),
		SellerID:           o.SellerID(),
		Items:              items,
		Subtotal:           toMoneyResponse(o.Subtotal()),
		ShippingFee:        toMoneyResponse(o.ShippingFee()),
		DiscountAmount:     toMoneyResponse(o.DiscountAmount()),
		DiscountCode:       o.DiscountCode(),
		Total:              toMoneyResponse(o.Total()),
		Status:             string(o.Status()),
		PaymentStatus:      string(o.PaymentStatus()),
		CancellationReason: o.CancellationReason(),
		CreatedAt:          o.CreatedAt(),
		UpdatedAt:          o.UpdatedAt(),
	}
}

func toCustomerOrderResponse(co *customerorder.CustomerOrder) *CustomerOrderResponse {
	orders := make([]OrderResponse, 0, len(co.Orders()))
	for _, o := range co.Orders() {
		orders = append(orders, toOrderResponse(o))
	}

	return &CustomerOrderResponse{
		ID:                 co.ID(),
		BuyerID:            co.BuyerID(),
		Status:             string(co.Status()),
		PaymentMethod:      string(co.PaymentMethod()),
		PaymentStatus:      string(co.PaymentStatus()),
		OriginalTotal:      toMoneyResponse(co.OriginalTotal()),
		DiscountAmount:     toMoneyResponse(co.DiscountAmount()),
		FinalTotal:         toMoneyResponse(co.FinalTotal()),
		ShippingFee:        toMoneyResponse(co.ShippingFee()),
		PromotionCode:      co.PromotionCode(),
		GatewayTxnRef:      co.GatewayTxnRef(),
		Shipping:           co.Shipping(),
		Notes:              co.Notes(),
		CancellationReason: co.CancellationReason(),
		Orders:             orders,
		CreatedAt:          co.CreatedAt(),
		UpdatedAt:          co.UpdatedAt(),
	}
}

// stockLines lists the copies held by the given orders.
func stockLines(orders ...*order.Order) []inventory.Line {
	var lines []inventory.Line
	for _, o := range orders {
		for _, item := range o.Items() {
			lines = append(lines, inventory.Line{
				BookID:   item.BookID(),
				Title:    item.Title(),
				Quantity: item.Quantity(),
			})
		}
	}
	return lines
}
