package mysql

import (
	"context"
	"fmt"
	"time"

	"bookstore/domain/shared"
	"bookstore/infrastructure/persistence"
	"bookstore/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

// OutboxRepository stores domain events next to the aggregate writes that
// raised them and hands them to the relay afterwards.
type OutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// SaveEvent joins the unit of work's transaction when there is one and
// opens its own otherwise.
func (r *OutboxRepository) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	if err := shared.ValidateEvent(event); err != nil {
		return fmt.Errorf("invalid domain event: %w", err)
	}

	requestID := persistence.RequestIDFromContext(ctx)
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return r.saveEventWithTx(tx, event, requestID)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.saveEventWithTx(tx, event, requestID)
	})
}

func (r *OutboxRepository) saveEventWithTx(tx *gorm.DB, event shared.DomainEvent, requestID string) error {
	outboxPO, err := po.FromDomainEvent(event)
	if err != nil {
		return fmt.Errorf("failed to convert domain event: %w", err)
	}
	outboxPO.RequestID = requestID

	if err := tx.Create(outboxPO).Error; err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}
	return nil
}

// GetPendingEvents returns the oldest PENDING events first.
func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*po.OutboxEventPO, error) {
	var events []*po.OutboxEventPO
	err := getDB(ctx, r.db).Where("status = ?", string(po.EventStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

// MarkEventProcessing claims an event. It fails when another relay
// instance claimed it first.
func (r *OutboxRepository) MarkEventProcessing(ctx context.Context, eventID string) error {
	result := getDB(ctx, r.db).Model(&po.OutboxEventPO{}).
		Where("id = ? AND status = ?", eventID, string(po.EventStatusPending)).
		Updates(map[string]interface{}{
			"status":     string(po.EventStatusProcessing),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found or already being processed: %s", eventID)
	}
	return nil
}

func (r *OutboxRepository) MarkEventPublished(ctx context.Context, eventID string) error {
	result := getDB(ctx, r.db).Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":     string(po.EventStatusPublished),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found: %s", eventID)
	}
	return nil
}

// MarkEventFailed puts the event back to PENDING until it has failed
// maxRetries times, then parks it as FAILED. It reports whether the event
// was parked.
func (r *OutboxRepository) MarkEventFailed(ctx context.Context, eventID string, maxRetries int) (bool, error) {
	db := getDB(ctx, r.db)

	var event po.OutboxEventPO
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		return false, fmt.Errorf("failed to find event: %w", err)
	}

	retries := event.RetryCount + 1
	status := po.EventStatusFailed
	if retries < maxRetries {
		status = po.EventStatusPending
	}

	err := db.Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":      string(status),
			"retry_count": retries,
			"updated_at":  time.Now(),
		}).Error
	return status == po.EventStatusFailed, err
}

// ReleaseStale returns events stuck in PROCESSING since before cutoff to
// PENDING. A relay that died between claim and publish leaves them there.
func (r *OutboxRepository) ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result := getDB(ctx, r.db).Model(&po.OutboxEventPO{}).
		Where("status = ? AND updated_at < ?", string(po.EventStatusProcessing), cutoff).
		Updates(map[string]interface{}{
			"status":     string(po.EventStatusPending),
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

var _ shared.OutboxRepository = (*OutboxRepository)(nil)
