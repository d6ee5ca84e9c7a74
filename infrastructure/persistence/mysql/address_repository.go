package mysql

import (
	"context"
	"errors"

	"bookstore/domain/address"
	"bookstore/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

type AddressRepository struct {
	db *gorm.DB
}

func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) FindByID(ctx context.Context, buyerID, addressID string) (*address.SavedAddress, error) {
	var addrPO po.AddressPO
	err := getDB(ctx, r.db).Where("id = ? AND buyer_id = ?", addressID, buyerID).First(&addrPO).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, address.ErrAddressNotFound
		}
		return nil, err
	}
	return addrPO.ToDomain(), nil
}

var _ address.Repository = (*AddressRepository)(nil)
