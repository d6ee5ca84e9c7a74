package mysql

import (
	"context"
	"errors"

	"bookstore/domain/promotion"
	"bookstore/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PromotionRepository struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

// FindByCode locks the row when called inside a transaction, so the usage
// counters read by the checkout cannot change before it commits.
func (r *PromotionRepository) FindByCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	code = promotion.NormalizeCode(code)

	db := getDB(ctx, r.db)
	if inTransaction(ctx) {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var promoPO po.PromotionPO
	if err := db.First(&promoPO, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, promotion.NewPromotionNotFoundError(code)
		}
		return nil, err
	}
	return promoPO.ToDomain(), nil
}

func (r *PromotionRepository) Save(ctx context.Context, p *promotion.Promotion) error {
	db := getDB(ctx, r.db)
	promoPO := po.FromPromotionDomain(p)
	expectedVersion := p.Version()

	result := db.Model(&po.PromotionPO{}).
		Where("id = ? AND version = ?", p.ID(), expectedVersion).
		Updates(map[string]interface{}{
			"name":        promoPO.Name,
			"active":      promoPO.Active,
			"start_date":  promoPO.StartDate,
			"end_date":    promoPO.EndDate,
			"usage_count": promoPO.UsageCount,
			"version":     expectedVersion + 1,
			"updated_at":  promoPO.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		p.IncrementVersionForSave()
		return nil
	}

	var count int64
	if err := db.Model(&po.PromotionPO{}).Where("id = ?", p.ID()).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return promotion.NewConcurrentModificationError(p.Code())
	}

	if err := db.Create(promoPO).Error; err != nil {
		if isDuplicateKeyError(err) {
			return promotion.NewInvalidDefinitionError("code", "code "+p.Code()+" already exists")
		}
		return err
	}
	return nil
}

func (r *PromotionRepository) CountUsageByBuyer(ctx context.Context, promotionID, buyerID string) (int, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&po.PromotionUsagePO{}).
		Where("promotion_id = ? AND buyer_id = ?", promotionID, buyerID).
		Count(&count).Error
	return int(count), err
}

func (r *PromotionRepository) SaveUsage(ctx context.Context, usage promotion.Usage) error {
	return getDB(ctx, r.db).Create(po.FromUsageDomain(usage)).Error
}

var _ promotion.Repository = (*PromotionRepository)(nil)
