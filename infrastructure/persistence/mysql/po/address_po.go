package po

import "bookstore/domain/address"

type AddressPO struct {
	ID        string     `gorm:"primaryKey;size:64"`
	BuyerID   string     `gorm:"size:64;index;not null"`
	Shipping  ShippingPO `gorm:"embedded"`
	IsDefault bool       `gorm:"not null;default:false"`
}

func (AddressPO) TableName() string {
	return "addresses"
}

func (p *AddressPO) ToDomain() *address.SavedAddress {
	return &address.SavedAddress{
		ID:      p.ID,
		BuyerID: p.BuyerID,
		Address: p.Shipping.ToDomain(),
		Default: p.IsDefault,
	}
}
