package mocks

import (
	"context"
	"sync"

	"bookstore/domain/promotion"
)

// MockPromotionRepository keeps promotions by normalized code.
type MockPromotionRepository struct {
	mu         sync.Mutex
	promotions map[string]promotion.ReconstructionDTO
	usages     []promotion.Usage
}

func NewMockPromotionRepository(promotions ...*promotion.Promotion) *MockPromotionRepository {
	r := &MockPromotionRepository{promotions: make(map[string]promotion.ReconstructionDTO)}
	for _, p := range promotions {
		r.promotions[p.Code()] = toPromotionDTO(p)
	}
	return r
}

func toPromotionDTO(p *promotion.Promotion) promotion.ReconstructionDTO {
	return promotion.ReconstructionDTO{
		ID:            p.ID(),
		Code:          p.Code(),
		Name:          p.Name(),
		Type:          p.Type(),
		Value:         p.Value(),
		MaxDiscount:   p.MaxDiscount(),
		MinOrderValue: p.MinOrderValue(),
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
}

func (r *MockPromotionRepository) FindByCode(ctx context.Context, code string) (*promotion.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dto, ok := r.promotions[promotion.NormalizeCode(code)]
	if !ok {
		return nil, promotion.NewPromotionNotFoundError(code)
	}
	return promotion.RebuildFromDTO(dto), nil
}

func (r *MockPromotionRepository) Save(ctx context.Context, p *promotion.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := p.Code()
	existing, existed := r.promotions[code]
	if existed {
		if existing.Version != p.Version() {
			return promotion.NewConcurrentModificationError(code)
		}
		p.IncrementVersionForSave()
	}
	saved := toPromotionDTO(p)
	r.promotions[code] = saved
	onRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.promotions[code]; !ok || cur.Version != saved.Version {
			return
		}
		if existed {
			r.promotions[code] = existing
		} else {
			delete(r.promotions, code)
		}
	})
	return nil
}

func (r *MockPromotionRepository) CountUsageByBuyer(ctx context.Context, promotionID, buyerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.usages {
		if u.PromotionID == promotionID && u.BuyerID == buyerID {
			n++
		}
	}
	return n, nil
}

func (r *MockPromotionRepository) SaveUsage(ctx context.Context, usage promotion.Usage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usages = append(r.usages, usage)
	onRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, u := range r.usages {
			if u.ID == usage.ID && u.CustomerOrderID == usage.CustomerOrderID {
				r.usages = append(r.usages[:i], r.usages[i+1:]...)
				return
			}
		}
	})
	return nil
}

// Usages returns a copy of the saved usage rows.
func (r *MockPromotionRepository) Usages() []promotion.Usage {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]promotion.Usage, len(r.usages))
	copy(out, r.usages)
	return out
}

var _ promotion.Repository = (*MockPromotionRepository)(nil)
