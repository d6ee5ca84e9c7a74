package mocks

import (
	"context"
	"sync"

	"bookstore/domain/address"
)

type MockAddressRepository struct {
	mu        sync.RWMutex
	addresses map[string]address.SavedAddress
}

func NewMockAddressRepository(addresses ...address.SavedAddress) *MockAddressRepository {
	r := &MockAddressRepository{addresses: make(map[string]address.SavedAddress)}
	for _, a := range addresses {
		r.addresses[a.ID] = a
	}
	return r
}

func (r *MockAddressRepository) FindByID(ctx context.Context, buyerID, addressID string) (*address.SavedAddress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.addresses[addressID]
	if !ok || a.BuyerID != buyerID {
		return nil, address.ErrAddressNotFound
	}
	return &a, nil
}

var _ address.Repository = (*MockAddressRepository)(nil)
