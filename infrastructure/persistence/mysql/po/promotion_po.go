package po

import (
	"time"

	"bookstore/domain/promotion"
	"bookstore/domain/shared"
)

// PromotionPO stores codes upper-cased so lookups can use the unique index.
type PromotionPO struct {
	ID            string `gorm:"primaryKey;size:64"`
	Code          string `gorm:"size:50;uniqueIndex;not null"`
	Name          string `gorm:"size:255;not null"`
	Type          string `gorm:"size:20;not null"`
	Value         int64  `gorm:"not null"`
	Currency      string `gorm:"size:3;not null"`
	MaxDiscount   *int64
	MinOrderValue *int64
	Active        bool      `gorm:"not null"`
	StartDate     time.Time `gorm:"not null"`
	EndDate       time.Time `gorm:"not null"`
	PerUserLimit  int       `gorm:"not null;default:0"`
	TotalLimit    int       `gorm:"not null;default:0"`
	UsageCount    int       `gorm:"not null;default:0"`
	Version       int       `gorm:"default:0"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (PromotionPO) TableName() string {
	return "promotions"
}

// PromotionUsagePO is one redemption, written in the checkout transaction.
type PromotionUsagePO struct {
	ID              string    `gorm:"primaryKey;size:64"`
	PromotionID     string    `gorm:"size:64;not null;index:idx_usage_promo_buyer,priority:1"`
	PromotionCode   string    `gorm:"size:50;not null"`
	BuyerID         string    `gorm:"size:64;not null;index:idx_usage_promo_buyer,priority:2"`
	CustomerOrderID string    `gorm:"size:64;not null"`
	DiscountAmount  int64     `gorm:"not null"`
	UsedAt          time.Time `gorm:"not null"`
}

func (PromotionUsagePO) TableName() string {
	return "promotion_usages"
}

func FromPromotionDomain(p *promotion.Promotion) *PromotionPO {
	currency := shared.CurrencyVND
	optional := func(m *shared.Money) *int64 {
		if m == nil {
			return nil
		}
		currency = m.Currency()
		v := m.Amount()
		return &v
	}

	promoPO := &PromotionPO{
		ID:            p.ID(),
		Code:          p.Code(),
		Name:          p.Name(),
		Type:          string(p.Type()),
		Value:         p.Value(),
		MaxDiscount:   optional(p.MaxDiscount()),
		MinOrderValue: optional(p.MinOrderValue()),
		Active:        p.IsActive(),
		StartDate:     p.StartDate(),
		EndDate:       p.EndDate(),
		PerUserLimit:  p.PerUserLimit(),
		TotalLimit:    p.TotalLimit(),
		UsageCount:    p.UsageCount(),
		Version:       p.Version(),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
	promoPO.Currency = currency
	return promoPO
}

func (p *PromotionPO) ToDomain() *promotion.Promotion {
	optional := func(v *int64) *shared.Money {
		if v == nil {
			return nil
		}
		return shared.NewMoney(*v, p.Currency)
	}

	return promotion.RebuildFromDTO(promotion.ReconstructionDTO{
		ID:            p.ID,
		Code:          p.Code,
		Name:          p.Name,
		Type:          promotion.Type(p.Type),
		Value:         p.Value,
		MaxDiscount:   optional(p.MaxDiscount),
		MinOrderValue: optional(p.MinOrderValue),
		Active:        p.Active,
		StartDate:     p.StartDate,
		EndDate:       p.EndDate,
		PerUserLimit:  p.PerUserLimit,
		TotalLimit:    p.TotalLimit,
		UsageCount:    p.UsageCount,
		Version:       p.Version,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	})
}

func FromUsageDomain(u promotion.Usage) *PromotionUsagePO {
	return &PromotionUsagePO{
		ID:              u.ID,
		PromotionID:     u.PromotionID,
		PromotionCode:   u.PromotionCode,
		BuyerID:         u.BuyerID,
		CustomerOrderID: u.CustomerOrderID,
		DiscountAmount:  u.DiscountAmount.Amount(),
		UsedAt:          u.UsedAt,
	}
}
