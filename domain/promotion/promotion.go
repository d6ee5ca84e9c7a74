/*
Package promotion holds discount codes and the rules that decide whether a
code applies to a checkout and how much it takes off.

Validate and CalculateDiscount are pure; the application layer supplies
the promotion, the buyer's usage count and the clock.
*/
package promotion

import (
	"strings"
	"time"

	"bookstore/domain/shared"

	"github.com/google/uuid"
)

// Type is the discount kind.
type Type string

const (
	TypePercentage  Type = "PERCENTAGE"
	TypeFixedAmount Type = "FIXED_AMOUNT"
)

// Promotion aggregate root
type Promotion struct {
	id            string
	code          string
	name          string
	promoType     Type
	value         int64         // percent for TypePercentage, đồng for TypeFixedAmount
	maxDiscount   *shared.Money // percentage only; nil means uncapped
	minOrderValue *shared.Money
	active        bool
	startDate     time.Time
	endDate       time.Time
	perUserLimit  int // 0 means unlimited
	totalLimit    int // 0 means unlimited
	usageCount    int
	version       int
	createdAt     time.Time
	updatedAt     time.Time

	shared.EventRecorder
}

// Usage is one redemption of a promotion, stored with the customer order
// that consumed it.
type Usage struct {
	ID              string
	PromotionID     string
	PromotionCode   string
	BuyerID         string
	CustomerOrderID string
	DiscountAmount  shared.Money
	UsedAt          time.Time
}

// Definition is the input to New.
type Definition struct {
	Code          string
	Name          string
	Type          Type
	Value         int64
	MaxDiscount   *shared.Money
	MinOrderValue *shared.Money
	Active        bool
	StartDate     time.Time
	EndDate       time.Time
	PerUserLimit  int
	TotalLimit    int
}

// NormalizeCode upper-cases and trims a code; codes are stored upper-case.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// New creates a promotion after checking the value range for its type.
func New(def Definition) (*Promotion, error) {
	code := NormalizeCode(def.Code)
	if code == "" {
		return nil, NewInvalidDefinitionError("code", "promotion code is required")
	}

	switch def.Type {
	case TypePercentage:
		if def.Value < 1 || def.Value > 100 {
			return nil, NewInvalidDefinitionError("value", "percentage must be between 1 and 100")
		}
	case TypeFixedAmount:
		if def.Value <= 0 {
			return nil, NewInvalidDefinitionError("value", "fixed discount must be positive")
		}
	default:
		return nil, NewInvalidDefinitionError("type", "unknown promotion type "+string(def.Type))
	}

	if !def.EndDate.After(def.StartDate) {
		return nil, NewInvalidDefinitionError("end_date", "end date must be after start date")
	}
	if def.PerUserLimit < 0 || def.TotalLimit < 0 {
		return nil, NewInvalidDefinitionError("usage_limit", "usage limits cannot be negative")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Promotion{
		id:            id.String(),
		code:          code,
		name:          def.Name,
		promoType:     def.Type,
		value:         def.Value,
		maxDiscount:   def.MaxDiscount,
		minOrderValue: def.MinOrderValue,
		active:        def.Active,
		startDate:     def.StartDate,
		endDate:       def.EndDate,
		perUserLimit:  def.PerUserLimit,
		totalLimit:    def.TotalLimit,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ============================================================================
// ReconstructionDTO - repository use only
// ============================================================================

type ReconstructionDTO struct {
	ID            string
	Code          string
	Name          string
	Type          Type
	Value         int64
	MaxDiscount   *shared.Money
	MinOrderValue *shared.Money
	Active        bool
	StartDate     time.Time
	EndDate       time.Time
	PerUserLimit  int
	TotalLimit    int
	UsageCount    int
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *Promotion {
	return &Promotion{
		id:            dto.ID,
		code:          dto.Code,
		name:          dto.Name,
		promoType:     dto.Type,
		value:         dto.Value,
		maxDiscount:   dto.MaxDiscount,
		minOrderValue: dto.MinOrderValue,
		active:        dto.Active,
		startDate:     dto.StartDate,
		endDate:       dto.EndDate,
		perUserLimit:  dto.PerUserLimit,
		totalLimit:    dto.TotalLimit,
		usageCount:    dto.UsageCount,
		version:       dto.Version,
		createdAt:     dto.CreatedAt,
		updatedAt:     dto.UpdatedAt,
	}
}

// ============================================================================
// Behavior
// ============================================================================

// RecordUsage counts one redemption and returns the usage row to persist
// alongside the customer order.
func (p *Promotion) RecordUsage(buyerID, customerOrderID string, discount shared.Money) (Usage, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Usage{}, err
	}

	now := time.Now()
	p.usageCount++
	p.updatedAt = now

	usage := Usage{
		ID:              id.String(),
		PromotionID:     p.id,
		PromotionCode:   p.code,
		BuyerID:         buyerID,
		CustomerOrderID: customerOrderID,
		DiscountAmount:  discount,
		UsedAt:          now,
	}
	p.Record(NewPromotionUsedEvent(p.id, p.code, buyerID, customerOrderID, discount))
	return usage, nil
}

// Deactivate switches the promotion off.
func (p *Promotion) Deactivate() {
	p.active = false
	p.updatedAt = time.Now()
}

func (p *Promotion) IncrementVersionForSave() {
	p.version++
}

// ============================================================================
// Getters
// ============================================================================

func (p *Promotion) ID() string                   { return p.id }
func (p *Promotion) Code() string                 { return p.code }
func (p *Promotion) Name() string                 { return p.name }
func (p *Promotion) Type() Type                   { return p.promoType }
func (p *Promotion) Value() int64                 { return p.value }
func (p *Promotion) MaxDiscount() *shared.Money   { return p.maxDiscount }
func (p *Promotion) MinOrderValue() *shared.Money { return p.minOrderValue }
func (p *Promotion) IsActive() bool               { return p.active }
func (p *Promotion) StartDate() time.Time         { return p.startDate }
func (p *Promotion) EndDate() time.Time           { return p.endDate }
func (p *Promotion) PerUserLimit() int            { return p.perUserLimit }
func (p *Promotion) TotalLimit() int              { return p.totalLimit }
func (p *Promotion) UsageCount() int              { return p.usageCount }
func (p *Promotion) Version() int                 { return p.version }
func (p *Promotion) CreatedAt() time.Time         { return p.createdAt }
func (p *Promotion) UpdatedAt() time.Time         { return p.updatedAt }

var _ shared.AggregateRoot = (*Promotion)(nil)
