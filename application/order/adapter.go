package order

import (
	"context"

	appwallet "bookstore/application/wallet"
	"bookstore/domain/customerorder"
)

// Refunder credits a cancelled, paid customer order back to its buyer.
// created is false when the credit had already been written.
type Refunder interface {
	RefundCustomerOrder(ctx context.Context, co *customerorder.CustomerOrder, reason string) (created bool, err error)
}

// walletRefunder adapts the wallet service to Refunder.
type walletRefunder struct {
	wallets *appwallet.Service
}

// NewWalletRefunder refunds the final total into the buyer's wallet.
func NewWalletRefunder(wallets *appwallet.Service) Refunder {
	return &walletRefunder{wallets: wallets}
}

func (a *walletRefunder) RefundCustomerOrder(ctx context.Context, co *customerorder.CustomerOrder, reason string) (bool, error) {
	if reason == "" {
		reason = "Refund for cancelled order " + co.ID()
	}
	_, created, err := a.wallets.Refund(ctx, appwallet.RefundRequest{
		BuyerID:         co.BuyerID(),
		Amount:          co.FinalTotal(),
		Reason:          reason,
		CustomerOrderID: co.ID(),
	})
	return created, err
}
