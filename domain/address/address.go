// Package address is the read side of a buyer's saved shipping addresses.
package address

import (
	"context"
	"errors"

	"bookstore/domain/shared"
)

var ErrAddressNotFound = errors.New("address not found")

// SavedAddress is an address the buyer stored earlier.
type SavedAddress struct {
	ID      string
	BuyerID string
	Address shared.ShippingAddress
	Default bool
}

type Repository interface {
	// FindByID returns ErrAddressNotFound when the address does not exist
	// or belongs to somebody else.
	FindByID(ctx context.Context, buyerID, addressID string) (*SavedAddress, error)
}
