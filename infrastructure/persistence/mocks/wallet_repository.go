package mocks

import (
	"context"
	"sync"

	"bookstore/domain/wallet"
)

// MockWalletRepository enforces the (reference type, reference id)
// uniqueness the wallet_transactions table has.
type MockWalletRepository struct {
	mu           sync.Mutex
	transactions []wallet.ReconstructionDTO
}

func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{}
}

func (r *MockWalletRepository) Save(ctx context.Context, tx *wallet.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.transactions {
		if existing.ReferenceType == tx.ReferenceType() && existing.ReferenceID == tx.ReferenceID() {
			return wallet.ErrTransactionExists
		}
	}
	r.transactions = append(r.transactions, wallet.ReconstructionDTO{
		ID:            tx.ID(),
		BuyerID:       tx.BuyerID(),
		Amount:        tx.Amount(),
		Type:          tx.Type(),
		Status:        tx.Status(),
		ReferenceType: tx.ReferenceType(),
		ReferenceID:   tx.ReferenceID(),
		Description:   tx.Description(),
		CreatedAt:     tx.CreatedAt(),
	})
	refType, refID := tx.ReferenceType(), tx.ReferenceID()
	onRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, dto := range r.transactions {
			if dto.ReferenceType == refType && dto.ReferenceID == refID {
				r.transactions = append(r.transactions[:i], r.transactions[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *MockWalletRepository) FindByReference(ctx context.Context, refType wallet.ReferenceType, refID string) (*wallet.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, dto := range r.transactions {
		if dto.ReferenceType == refType && dto.ReferenceID == refID {
			return wallet.RebuildFromDTO(dto), nil
		}
	}
	return nil, wallet.ErrTransactionMissing
}

func (r *MockWalletRepository) FindByBuyerID(ctx context.Context, buyerID string) ([]*wallet.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*wallet.Transaction
	for _, dto := range r.transactions {
		if dto.BuyerID == buyerID {
			out = append(out, wallet.RebuildFromDTO(dto))
		}
	}
	return out, nil
}

// Len returns the number of stored transactions.
func (r *MockWalletRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transactions)
}

var _ wallet.Repository = (*MockWalletRepository)(nil)
