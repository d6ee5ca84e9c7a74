package promotion

import "context"

// Repository persists promotions and their usage rows.
type Repository interface {
	// FindByCode looks a code up case-insensitively.
	FindByCode(ctx context.Context, code string) (*Promotion, error)

	// Save inserts on version 0, otherwise updates with an optimistic
	// version check.
	Save(ctx context.Context, p *Promotion) error

	// CountUsageByBuyer counts how many times a buyer redeemed a promotion.
	CountUsageByBuyer(ctx context.Context, promotionID, buyerID string) (int, error)

	SaveUsage(ctx context.Context, usage Usage) error
}
