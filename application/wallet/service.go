// Package wallet Application Layer - buyer wallet credits
package wallet

import (
	"context"
	"errors"

	"bookstore/domain/shared"
	"bookstore/domain/wallet"
	"bookstore/pkg/logger"
	"bookstore/pkg/metrics"

	"go.uber.org/zap"
)

type Service struct {
	repo       wallet.Repository
	uowFactory shared.UnitOfWorkFactory
}

func NewService(repo wallet.Repository, uowFactory shared.UnitOfWorkFactory) *Service {
	return &Service{repo: repo, uowFactory: uowFactory}
}

// RefundRequest credits a cancelled, paid customer order back to its buyer.
type RefundRequest struct {
	BuyerID         string
	Amount          shared.Money
	Reason          string
	CustomerOrderID string
}

// BalanceResponse Wallet balance response DTO
type BalanceResponse struct {
	BuyerID  string `json:"buyer_id"`
	Balance  int64  `json:"balance"`
	Currency string `json:"currency"`
}

// Refund writes the ORDER_REFUND credit for a customer order at most once.
// When the credit already exists it is returned unchanged, so retries and
// repeated cancellations are safe.
func (s *Service) Refund(ctx context.Context, req RefundRequest) (*wallet.Transaction, bool, error) {
	var (
		tx      *wallet.Transaction
		created bool
	)

	err := shared.Transactional(ctx, s.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		existing, err := s.repo.FindByReference(ctx, wallet.ReferenceOrderRefund, req.CustomerOrderID)
		if err == nil {
			tx = existing
			return nil
		}
		if !errors.Is(err, wallet.ErrTransactionMissing) {
			return err
		}

		refund, err := wallet.NewRefund(req.BuyerID, req.Amount, req.Reason, req.CustomerOrderID)
		if err != nil {
			return err
		}
		if err := s.repo.Save(ctx, refund); err != nil {
			if errors.Is(err, wallet.ErrTransactionExists) {
				tx, err = s.repo.FindByReference(ctx, wallet.ReferenceOrderRefund, req.CustomerOrderID)
				return err
			}
			return err
		}

		uow.RegisterNew(refund)
		tx = refund
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.Refunds.Inc()
		logger.Info("Wallet refund credited",
			logger.BuyerID(req.BuyerID),
			logger.CustomerOrderID(req.CustomerOrderID),
			zap.Int64("amount", req.Amount.Amount()))
	}
	return tx, created, nil
}

// Balance is the sum of the buyer's completed credits minus debits.
func (s *Service) Balance(ctx context.Context, buyerID string) (*BalanceResponse, error) {
	txs, err := s.repo.FindByBuyerID(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	var balance int64
	for _, t := range txs {
		balance += t.SignedAmount()
	}
	return &BalanceResponse{BuyerID: buyerID, Balance: balance, Currency: shared.CurrencyVND}, nil
}
