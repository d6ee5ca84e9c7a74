package shared

// AggregateRoot is the consistency boundary every repository persists.
// All state changes go through its methods; the events it records are
// pulled by the unit of work and written to the outbox.
type AggregateRoot interface {
	ID() string

	// Version is the optimistic lock counter.
	Version() int

	// PullEvents returns the recorded events and clears them.
	PullEvents() []DomainEvent
}

// Entity has an identity that outlives its attribute values.
type Entity interface {
	ID() string
}

// ValueObject is compared by value and never mutated after creation.
type ValueObject interface {
	Equals(other interface{}) bool
}

// EventRecorder is embedded by aggregates to collect domain events.
type EventRecorder struct {
	events []DomainEvent
}

// Record appends an event.
func (r *EventRecorder) Record(event DomainEvent) {
	r.events = append(r.events, event)
}

// PullEvents returns a copy of the recorded events and clears the list.
func (r *EventRecorder) PullEvents() []DomainEvent {
	events := make([]DomainEvent, len(r.events))
	copy(events, r.events)
	r.events = nil
	return events
}
