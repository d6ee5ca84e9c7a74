package mysql

import (
	"bookstore/domain/shared"
	"bookstore/infrastructure/persistence/retry"

	"gorm.io/gorm"
)

// UnitOfWorkFactory hands every application step its own UnitOfWork over
// the shared connection pool and outbox.
type UnitOfWorkFactory struct {
	db     *gorm.DB
	outbox *OutboxRepository
	retry  retry.Config
}

func NewUnitOfWorkFactory(db *gorm.DB, retryConfig retry.Config) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		db:     db,
		outbox: NewOutboxRepository(db),
		retry:  retryConfig,
	}
}

func (f *UnitOfWorkFactory) New() shared.UnitOfWork {
	return &UnitOfWork{db: f.db, outbox: f.outbox, retry: f.retry}
}

var _ shared.UnitOfWorkFactory = (*UnitOfWorkFactory)(nil)
