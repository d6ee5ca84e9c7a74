package wallet

import "context"

type Repository interface {
	// Save inserts a transaction. A second row for the same
	// (reference type, reference id) fails with ErrTransactionExists.
	Save(ctx context.Context, tx *Transaction) error

	// FindByReference returns ErrTransactionMissing when nothing matches.
	FindByReference(ctx context.Context, refType ReferenceType, refID string) (*Transaction, error)

	FindByBuyerID(ctx context.Context, buyerID string) ([]*Transaction, error)
}
