/*
Package promotion Application Layer - promotion lookup and redemption

Checkout validates a code against the combined total of the cart; the
usage is recorded later, in the same unit of work that persists the
customer order (immediately for COD, on the settling callback for
gateway payments).
*/
package promotion

import (
	"context"
	"errors"
	"time"

	"bookstore/domain/promotion"
	"bookstore/domain/shared"
	"bookstore/pkg/logger"

	"go.uber.org/zap"
)

// Service Promotion application service
type Service struct {
	repo       promotion.Repository
	uowFactory shared.UnitOfWorkFactory
	now        func() time.Time
}

func NewService(repo promotion.Repository, uowFactory shared.UnitOfWorkFactory) *Service {
	return &Service{repo: repo, uowFactory: uowFactory, now: time.Now}
}

// ============================================================================
// DTO Definitions
// ============================================================================

// PreviewRequest Promotion preview request DTO
type PreviewRequest struct {
	Code       string `json:"code" binding:"required"`
	BuyerID    string `json:"buyer_id" binding:"required"`
	OrderTotal int64  `json:"order_total" binding:"required,min=1"`
}

// PreviewResponse is what the buyer sees before checking out.
type PreviewResponse struct {
	Code       string `json:"code"`
	Valid      bool   `json:"valid"`
	Message    string `json:"message,omitempty"`
	Discount   int64  `json:"discount"`
	FinalTotal int64  `json:"final_total"`
}

// Quote is a validated promotion applied to a total.
type Quote struct {
	Promotion  *promotion.Promotion
	Discount   shared.Money
	FinalTotal shared.Money
}

// ============================================================================
// Application Service Methods
// ============================================================================

// Validate looks the code up and checks it against orderTotal for buyerID.
// Rejections wrap promotion.ErrInvalidPromotion.
func (s *Service) Validate(ctx context.Context, code, buyerID string, orderTotal shared.Money) (*promotion.Promotion, error) {
	p, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	usage, err := s.repo.CountUsageByBuyer(ctx, p.ID(), buyerID)
	if err != nil {
		return nil, err
	}

	if err := promotion.Validate(p, usage, orderTotal, s.now()); err != nil {
		return nil, err
	}
	return p, nil
}

// Quote validates code and computes the discount on orderTotal.
func (s *Service) Quote(ctx context.Context, code, buyerID string, orderTotal shared.Money) (*Quote, error) {
	p, err := s.Validate(ctx, code, buyerID, orderTotal)
	if err != nil {
		return nil, err
	}

	discount, final := promotion.CalculateDiscount(p, orderTotal)
	return &Quote{Promotion: p, Discount: discount, FinalTotal: final}, nil
}

// Preview answers "what would this code do" without side effects. A
// rejected code is a valid answer, not an error.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) (*PreviewResponse, error) {
	total := shared.VND(req.OrderTotal)

	q, err := s.Quote(ctx, req.Code, req.BuyerID, total)
	if err != nil {
		if errors.Is(err, promotion.ErrInvalidPromotion) {
			return &PreviewResponse{
				Code:       promotion.NormalizeCode(req.Code),
				Valid:      false,
				Message:    err.Error(),
				FinalTotal: total.Amount(),
			}, nil
		}
		return nil, err
	}

	return &PreviewResponse{
		Code:       q.Promotion.Code(),
		Valid:      true,
		Discount:   q.Discount.Amount(),
		FinalTotal: q.FinalTotal.Amount(),
	}, nil
}

// RecordUsage counts one redemption of code by buyerID for a customer
// order. It joins the caller's unit of work. A code that disappeared
// since checkout is logged and skipped: the buyer already got the price.
func (s *Service) RecordUsage(ctx context.Context, code, buyerID, customerOrderID string, discount shared.Money) error {
	if code == "" {
		return nil
	}

	return shared.Transactional(ctx, s.uowFactory, func(ctx context.Context, uow shared.UnitOfWork) error {
		p, err := s.repo.FindByCode(ctx, code)
		if errors.Is(err, promotion.ErrPromotionNotFound) {
			logger.Warn("Promotion vanished before usage was recorded",
				zap.String("promotion_code", code),
				logger.CustomerOrderID(customerOrderID))
			return nil
		}
		if err != nil {
			return err
		}

		usage, err := p.RecordUsage(buyerID, customerOrderID, discount)
		if err != nil {
			return err
		}
		if err := s.repo.Save(ctx, p); err != nil {
			return err
		}
		if err := s.repo.SaveUsage(ctx, usage); err != nil {
			return err
		}

		uow.RegisterDirty(p)
		return nil
	})
}
