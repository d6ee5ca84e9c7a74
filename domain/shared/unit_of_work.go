package shared

import "context"

// UnitOfWork 管理事务边界与聚合事件收集。
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
	RegisterNew(aggregate AggregateRoot)
	RegisterDirty(aggregate AggregateRoot)
	RegisterRemoved(aggregate AggregateRoot)
}

// UnitOfWorkFactory hands out a fresh unit of work per use case invocation.
// A UnitOfWork collects aggregates and must not be shared between
// concurrent requests.
type UnitOfWorkFactory interface {
	New() UnitOfWork
}

type OutboxRepository interface {
	SaveEvent(ctx context.Context, event DomainEvent) error
}

type uowKey struct{}

// ContextWithUnitOfWork marks ctx as running inside uow.
func ContextWithUnitOfWork(ctx context.Context, uow UnitOfWork) context.Context {
	return context.WithValue(ctx, uowKey{}, uow)
}

// UnitOfWorkFromContext returns the unit of work ctx runs in, or nil.
func UnitOfWorkFromContext(ctx context.Context) UnitOfWork {
	uow, _ := ctx.Value(uowKey{}).(UnitOfWork)
	return uow
}

// Transactional runs fn in the unit of work already carried by ctx, or in
// a new one from factory. Services that are used both on their own and as
// a step of a larger use case go through it, so the step joins the
// caller's transaction instead of opening a second one.
func Transactional(ctx context.Context, factory UnitOfWorkFactory, fn func(ctx context.Context, uow UnitOfWork) error) error {
	if uow := UnitOfWorkFromContext(ctx); uow != nil {
		return fn(ctx, uow)
	}

	uow := factory.New()
	return uow.Execute(ctx, func(txCtx context.Context) error {
		return fn(ContextWithUnitOfWork(txCtx, uow), uow)
	})
}
