package mocks

import (
	"context"
	"sync"

	"bookstore/domain/shared"
)

// MockOutbox collects the events mock units of work commit.
type MockOutbox struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (o *MockOutbox) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	if err := shared.ValidateEvent(event); err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return nil
}

// Events returns a copy of everything saved so far.
func (o *MockOutbox) Events() []shared.DomainEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]shared.DomainEvent, len(o.events))
	copy(out, o.events)
	return out
}

// Names returns the event names in save order.
func (o *MockOutbox) Names() []string {
	events := o.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.EventName()
	}
	return names
}

// undoLog records how to revert the writes made inside one unit of work.
// Repositories write through immediately and append the inverse of each
// write; a failed unit replays them newest first.
type undoLog struct {
	mu  sync.Mutex
	fns []func()
}

type undoKey struct{}

// onRollback registers fn to run if the unit of work carried by ctx fails.
// Writes made outside a unit of work are final.
func onRollback(ctx context.Context, fn func()) {
	log, ok := ctx.Value(undoKey{}).(*undoLog)
	if !ok {
		return
	}
	log.mu.Lock()
	defer log.mu.Unlock()
	log.fns = append(log.fns, fn)
}

func (l *undoLog) rollback() {
	l.mu.Lock()
	fns := l.fns
	l.fns = nil
	l.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}

// MockUnitOfWork is a mock implementation of UnitOfWork for testing.
// A failed fn reverts the repository writes it made and drops the
// collected events, like a rolled back transaction.
type MockUnitOfWork struct {
	outbox     *MockOutbox
	aggregates []shared.AggregateRoot
}

// NewMockUnitOfWork creates a new MockUnitOfWork instance
func NewMockUnitOfWork(outbox *MockOutbox) *MockUnitOfWork {
	if outbox == nil {
		outbox = &MockOutbox{}
	}
	return &MockUnitOfWork{outbox: outbox}
}

func (u *MockUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	u.aggregates = make([]shared.AggregateRoot, 0)

	log := &undoLog{}
	if err := fn(context.WithValue(ctx, undoKey{}, log)); err != nil {
		log.rollback()
		for _, agg := range u.aggregates {
			agg.PullEvents()
		}
		return err
	}

	for _, agg := range u.aggregates {
		for _, event := range agg.PullEvents() {
			if err := u.outbox.SaveEvent(ctx, event); err != nil {
				return err
			}
		}
	}
	return nil
}

// RegisterNew registers a newly created aggregate root for event collection
func (u *MockUnitOfWork) RegisterNew(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

// RegisterDirty registers a modified aggregate root for event collection
func (u *MockUnitOfWork) RegisterDirty(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

// RegisterRemoved registers a deleted aggregate root for event collection
func (u *MockUnitOfWork) RegisterRemoved(aggregate shared.AggregateRoot) {
	u.aggregates = append(u.aggregates, aggregate)
}

// MockUnitOfWorkFactory hands out mock units of work sharing one outbox.
type MockUnitOfWorkFactory struct {
	Outbox *MockOutbox
}

func NewMockUnitOfWorkFactory() *MockUnitOfWorkFactory {
	return &MockUnitOfWorkFactory{Outbox: &MockOutbox{}}
}

func (f *MockUnitOfWorkFactory) New() shared.UnitOfWork {
	return NewMockUnitOfWork(f.Outbox)
}

// Compile-time check that MockUnitOfWork implements shared.UnitOfWork
var (
	_ shared.UnitOfWork        = (*MockUnitOfWork)(nil)
	_ shared.UnitOfWorkFactory = (*MockUnitOfWorkFactory)(nil)
	_ shared.OutboxRepository  = (*MockOutbox)(nil)
)
