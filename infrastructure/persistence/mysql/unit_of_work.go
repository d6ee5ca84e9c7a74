package mysql

import (
	"context"
	"fmt"

	"bookstore/domain/shared"
	"bookstore/infrastructure/persistence"
	"bookstore/infrastructure/persistence/retry"
	"bookstore/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UnitOfWork runs one checkout, settlement or cancellation step in a single
// MySQL transaction. Repositories pick the transaction up from the context;
// events of the registered aggregates land in the outbox table in the same
// transaction, so a committed state change always has its event.
type UnitOfWork struct {
	db         *gorm.DB
	outbox     *OutboxRepository
	retry      retry.Config
	aggregates []shared.AggregateRoot
}

// Execute runs fn in a transaction and commits it with the pending events.
// Deadlocks and lock wait timeouts (on FOR UPDATE stock rows, mostly)
// repeat the whole attempt with a fresh aggregate list. Events are only
// pulled while flushing, so an aggregate registered again by the next
// attempt still carries them.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, u.retry, func(ctx context.Context) error {
		u.aggregates = u.aggregates[:0]

		err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			txCtx := persistence.ContextWithTx(ctx, tx)
			if err := fn(txCtx); err != nil {
				return err
			}
			return u.flushEvents(txCtx)
		})
		if err != nil {
			logger.FromContext(ctx).Debug("Transaction rolled back",
				zap.Int("aggregates", len(u.aggregates)),
				zap.Error(err))
		}
		return err
	})
}

func (u *UnitOfWork) flushEvents(txCtx context.Context) error {
	for _, agg := range u.aggregates {
		for _, event := range agg.PullEvents() {
			if err := u.outbox.SaveEvent(txCtx, event); err != nil {
				return fmt.Errorf("failed to save %s to outbox: %w", event.EventName(), err)
			}
		}
	}
	return nil
}

func (u *UnitOfWork) RegisterNew(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

func (u *UnitOfWork) RegisterDirty(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

func (u *UnitOfWork) RegisterRemoved(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

var _ shared.UnitOfWork = (*UnitOfWork)(nil)
