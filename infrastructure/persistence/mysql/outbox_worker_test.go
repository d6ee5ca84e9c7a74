package mysql

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bookstore/infrastructure/messaging"
	"bookstore/infrastructure/persistence/mysql/po"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutboxStore struct {
	mu        sync.Mutex
	events    map[string]*po.OutboxEventPO
	order     []string
	claimErr  map[string]error
	published []string
	released  int
}

func newFakeOutboxStore(events ...*po.OutboxEventPO) *fakeOutboxStore {
	s := &fakeOutboxStore{events: map[string]*po.OutboxEventPO{}, claimErr: map[string]error{}}
	for _, e := range events {
		s.events[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	return s
}

func (s *fakeOutboxStore) GetPendingEvents(_ context.Context, limit int) ([]*po.OutboxEventPO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*po.OutboxEventPO
	for _, id := range s.order {
		e := s.events[id]
		if e.Status == string(po.EventStatusPending) && len(out) < limit {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeOutboxStore) MarkEventProcessing(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claimErr[id]; err != nil {
		return err
	}
	s.events[id].Status = string(po.EventStatusProcessing)
	return nil
}

func (s *fakeOutboxStore) MarkEventPublished(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[id].Status = string(po.EventStatusPublished)
	s.published = append(s.published, id)
	return nil
}

func (s *fakeOutboxStore) MarkEventFailed(_ context.Context, id string, maxRetries int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.events[id]
	e.RetryCount++
	if e.RetryCount >= maxRetries {
		e.Status = string(po.EventStatusFailed)
		return true, nil
	}
	e.Status = string(po.EventStatusPending)
	return false, nil
}

func (s *fakeOutboxStore) ReleaseStale(_ context.Context, _ time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released++
	return 0, nil
}

func (s *fakeOutboxStore) status(id string) po.EventStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return po.EventStatus(s.events[id].Status)
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []messaging.Message
	failFor  map[string]bool
}

func (p *recordingPublisher) Publish(_ context.Context, msg messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failFor[msg.EventType] {
		return errors.New("broker unavailable")
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func pendingEvent(id, eventType string) *po.OutboxEventPO {
	return &po.OutboxEventPO{
		ID:          id,
		AggregateID: "agg-" + id,
		EventType:   eventType,
		Payload:     `{"event_name":"` + eventType + `"}`,
		Status:      string(po.EventStatusPending),
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNewOutboxWorker_Validation(t *testing.T) {
	store := newFakeOutboxStore()
	pub := &recordingPublisher{}

	_, err := NewOutboxWorker(nil, pub, time.Second, 10, 3)
	assert.Error(t, err)
	_, err = NewOutboxWorker(store, nil, time.Second, 10, 3)
	assert.Error(t, err)
	_, err = NewOutboxWorker(store, pub, 0, 10, 3)
	assert.Error(t, err)
	_, err = NewOutboxWorker(store, pub, time.Second, 0, 3)
	assert.Error(t, err)
	_, err = NewOutboxWorker(store, pub, time.Second, 10, 0)
	assert.Error(t, err)
}

func TestOutboxWorker_PublishesPendingEvents(t *testing.T) {
	store := newFakeOutboxStore(
		pendingEvent("e1", "checkout.order_placed"),
		pendingEvent("e2", "wallet.refunded"),
	)
	pub := &recordingPublisher{}
	w, err := NewOutboxWorker(store, pub, time.Second, 10, 3)
	require.NoError(t, err)

	require.NoError(t, w.processBatch(context.Background()))

	require.Len(t, pub.messages, 2)
	assert.Equal(t, "e1", pub.messages[0].ID)
	assert.Equal(t, "agg-e1", pub.messages[0].AggregateID)
	assert.Equal(t, "checkout.order_placed", pub.messages[0].EventType)
	assert.JSONEq(t, `{"event_name":"checkout.order_placed"}`, string(pub.messages[0].Payload))
	assert.Equal(t, po.EventStatusPublished, store.status("e1"))
	assert.Equal(t, po.EventStatusPublished, store.status("e2"))
	assert.Equal(t, 1, store.released)
}

func TestOutboxWorker_SkipsEventsClaimedElsewhere(t *testing.T) {
	store := newFakeOutboxStore(pendingEvent("e1", "inventory.reserved"))
	store.claimErr["e1"] = errors.New("already being processed")
	pub := &recordingPublisher{}
	w, err := NewOutboxWorker(store, pub, time.Second, 10, 3)
	require.NoError(t, err)

	require.NoError(t, w.processBatch(context.Background()))

	assert.Empty(t, pub.messages)
	assert.Equal(t, po.EventStatusPending, store.status("e1"))
}

func TestOutboxWorker_RetriesThenParksFailedEvent(t *testing.T) {
	store := newFakeOutboxStore(pendingEvent("e1", "payment.reservation_confirmed"))
	pub := &recordingPublisher{failFor: map[string]bool{"payment.reservation_confirmed": true}}
	w, err := NewOutboxWorker(store, pub, time.Second, 10, 2)
	require.NoError(t, err)

	require.NoError(t, w.processBatch(context.Background()))
	assert.Equal(t, po.EventStatusPending, store.status("e1"))

	require.NoError(t, w.processBatch(context.Background()))
	assert.Equal(t, po.EventStatusFailed, store.status("e1"))

	// parked events are not picked up again
	require.NoError(t, w.processBatch(context.Background()))
	assert.Empty(t, pub.messages)
}

func TestOutboxWorker_RunStopsOnCancel(t *testing.T) {
	store := newFakeOutboxStore(pendingEvent("e1", "promotion.used"))
	pub := &recordingPublisher{}
	w, err := NewOutboxWorker(store, pub, 10*time.Millisecond, 10, 3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return store.status("e1") == po.EventStatusPublished
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
