package mysql

import (
	"context"
	"fmt"
	"time"

	"bookstore/infrastructure/messaging"
	"bookstore/infrastructure/persistence/mysql/po"
	"bookstore/pkg/logger"
	"bookstore/pkg/metrics"

	"go.uber.org/zap"
)

// OutboxStore is the part of OutboxRepository the relay drives.
type OutboxStore interface {
	GetPendingEvents(ctx context.Context, limit int) ([]*po.OutboxEventPO, error)
	MarkEventProcessing(ctx context.Context, eventID string) error
	MarkEventPublished(ctx context.Context, eventID string) error
	MarkEventFailed(ctx context.Context, eventID string, maxRetries int) (bool, error)
	ReleaseStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxWorker relays stored events to the broker: claim, publish, mark.
// Delivery is at least once.
type OutboxWorker struct {
	store        OutboxStore
	publisher    messaging.Publisher
	pollInterval time.Duration
	batchSize    int
	maxRetries   int
	staleAfter   time.Duration
}

func NewOutboxWorker(
	store OutboxStore,
	publisher messaging.Publisher,
	pollInterval time.Duration,
	batchSize int,
	maxRetries int,
) (*OutboxWorker, error) {
	if store == nil {
		return nil, fmt.Errorf("outbox store is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher is required")
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	if maxRetries <= 0 {
		return nil, fmt.Errorf("max retries must be positive")
	}

	return &OutboxWorker{
		store:        store,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		maxRetries:   maxRetries,
		staleAfter:   5 * time.Minute,
	}, nil
}

// Run polls until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	logger.Info("Outbox relay started",
		zap.Duration("poll_interval", w.pollInterval),
		zap.Int("batch_size", w.batchSize))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				logger.Error("Outbox batch processing failed", zap.Error(err))
			}
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) error {
	if released, err := w.store.ReleaseStale(ctx, time.Now().Add(-w.staleAfter)); err != nil {
		logger.Warn("Failed to release stale outbox events", zap.Error(err))
	} else if released > 0 {
		logger.Warn("Released stale outbox events", zap.Int64("count", released))
	}

	events, err := w.store.GetPendingEvents(ctx, w.batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := w.store.MarkEventProcessing(ctx, event.ID); err != nil {
			logger.Debug("Skip outbox event claimed elsewhere",
				zap.String("event_id", event.ID),
				zap.Error(err))
			continue
		}

		if err := w.publisher.Publish(ctx, toMessage(event)); err != nil {
			w.fail(ctx, event, err)
			continue
		}

		if err := w.store.MarkEventPublished(ctx, event.ID); err != nil {
			logger.Error("Failed to mark outbox event as published",
				zap.String("event_id", event.ID),
				zap.Error(err))
			continue
		}
		metrics.OutboxEvents.WithLabelValues("published").Inc()
	}
	return nil
}

func (w *OutboxWorker) fail(ctx context.Context, event *po.OutboxEventPO, publishErr error) {
	parked, err := w.store.MarkEventFailed(ctx, event.ID, w.maxRetries)
	if err != nil {
		logger.Error("Failed to mark outbox event as failed",
			zap.String("event_id", event.ID),
			zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", event.EventType),
		zap.Int("retry_count", event.RetryCount+1),
		zap.Error(publishErr),
	}
	if parked {
		metrics.OutboxEvents.WithLabelValues("failed").Inc()
		logger.Error("Outbox event gave up after max retries", fields...)
		return
	}
	metrics.OutboxEvents.WithLabelValues("retry").Inc()
	logger.Warn("Outbox event publish failed, will retry", fields...)
}

func toMessage(event *po.OutboxEventPO) messaging.Message {
	return messaging.Message{
		ID:          event.ID,
		AggregateID: event.AggregateID,
		EventType:   event.EventType,
		Payload:     []byte(event.Payload),
		OccurredAt:  event.CreatedAt,
	}
}
