package po

import "bookstore/domain/shared"

// ShippingPO is embedded into every table that carries a delivery address.
type ShippingPO struct {
	RecipientName  string `gorm:"size:100;not null"`
	RecipientPhone string `gorm:"size:20;not null"`
	Detail         string `gorm:"size:255;not null"`
	Ward           string `gorm:"size:100"`
	District       string `gorm:"size:100"`
	Province       string `gorm:"size:100"`
}

func FromShipping(a shared.ShippingAddress) ShippingPO {
	return ShippingPO{
		RecipientName:  a.RecipientName,
		RecipientPhone: a.RecipientPhone,
		Detail:         a.Detail,
		Ward:           a.Ward,
		District:       a.District,
		Province:       a.Province,
	}
}

func (p ShippingPO) ToDomain() shared.ShippingAddress {
	return shared.ShippingAddress{
		RecipientName:  p.RecipientName,
		RecipientPhone: p.RecipientPhone,
		Detail:         p.Detail,
		Ward:           p.Ward,
		District:       p.District,
		Province:       p.Province,
	}
}
