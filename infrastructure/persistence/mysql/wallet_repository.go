package mysql

import (
	"context"
	"errors"

	"bookstore/domain/wallet"
	"bookstore/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Save relies on the unique (reference_type, reference_id) index to refuse
// a second credit for the same reference.
func (r *WalletRepository) Save(ctx context.Context, tx *wallet.Transaction) error {
	if err := getDB(ctx, r.db).Create(po.FromWalletTransaction(tx)).Error; err != nil {
		if isDuplicateKeyError(err) {
			return wallet.ErrTransactionExists
		}
		return err
	}
	return nil
}

func (r *WalletRepository) FindByReference(ctx context.Context, refType wallet.ReferenceType, refID string) (*wallet.Transaction, error) {
	var txPO po.WalletTransactionPO
	err := getDB(ctx, r.db).
		Where("reference_type = ? AND reference_id = ?", string(refType), refID).
		First(&txPO).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wallet.ErrTransactionMissing
		}
		return nil, err
	}
	return txPO.ToDomain(), nil
}

func (r *WalletRepository) FindByBuyerID(ctx context.Context, buyerID string) ([]*wallet.Transaction, error) {
	var txPOs []po.WalletTransactionPO
	err := getDB(ctx, r.db).Where("buyer_id = ?", buyerID).Order("created_at").Find(&txPOs).Error
	if err != nil {
		return nil, err
	}

	out := make([]*wallet.Transaction, len(txPOs))
	for i := range txPOs {
		out[i] = txPOs[i].ToDomain()
	}
	return out, nil
}

var _ wallet.Repository = (*WalletRepository)(nil)
