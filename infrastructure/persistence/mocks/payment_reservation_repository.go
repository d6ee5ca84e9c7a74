package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookstore/domain/payment"
)

// MockPaymentReservationRepository keeps payment reservations as value
// snapshots keyed by txn ref.
type MockPaymentReservationRepository struct {
	mu       sync.Mutex
	byTxnRef map[string]payment.ReconstructionDTO
}

func NewMockPaymentReservationRepository() *MockPaymentReservationRepository {
	return &MockPaymentReservationRepository{byTxnRef: make(map[string]payment.ReconstructionDTO)}
}

func toPaymentDTO(r *payment.Reservation) payment.ReconstructionDTO {
	return payment.ReconstructionDTO{
		ID:              r.ID(),
		BuyerID:         r.BuyerID(),
		TxnRef:          r.TxnRef(),
		Snapshot:        r.RawSnapshot(),
		TotalAmount:     r.TotalAmount(),
		ShippingFee:     r.ShippingFee(),
		DiscountAmount:  r.DiscountAmount(),
		PaymentMethod:   r.PaymentMethod(),
		Status:          r.Status(),
		Shipping:        r.Shipping(),
		Notes:           r.Notes(),
		CustomerOrderID: r.CustomerOrderID(),
		CancelReason:    r.CancelReason(),
		CreatedAt:       r.CreatedAt(),
		ExpiresAt:       r.ExpiresAt(),
		ConfirmedAt:     r.ConfirmedAt(),
		CancelledAt:     r.CancelledAt(),
	}
}

func (m *MockPaymentReservationRepository) Save(ctx context.Context, r *payment.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.byTxnRef[r.TxnRef()]; exists {
		return payment.NewDuplicateTxnRefError(r.TxnRef())
	}
	m.byTxnRef[r.TxnRef()] = toPaymentDTO(r)
	txnRef := r.TxnRef()
	onRollback(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.byTxnRef, txnRef)
	})
	return nil
}

func (m *MockPaymentReservationRepository) ExistsByTxnRef(ctx context.Context, txnRef string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byTxnRef[txnRef]
	return ok, nil
}

func (m *MockPaymentReservationRepository) FindByTxnRef(ctx context.Context, txnRef string) (*payment.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dto, ok := m.byTxnRef[txnRef]
	if !ok {
		return nil, payment.NewReservationNotFoundError(txnRef)
	}
	return payment.RebuildFromDTO(dto), nil
}

func (m *MockPaymentReservationRepository) FindByID(ctx context.Context, id string) (*payment.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, dto := range m.byTxnRef {
		if dto.ID == id {
			return payment.RebuildFromDTO(dto), nil
		}
	}
	return nil, payment.NewReservationNotFoundError(id)
}

func (m *MockPaymentReservationRepository) UpdateStatus(ctx context.Context, r *payment.Reservation, expected payment.Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dto, ok := m.byTxnRef[r.TxnRef()]
	if !ok || dto.Status != expected {
		return false, nil
	}
	next := toPaymentDTO(r)
	next.Snapshot = dto.Snapshot
	m.byTxnRef[r.TxnRef()] = next
	onRollback(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if cur, ok := m.byTxnRef[dto.TxnRef]; ok && cur.Status == next.Status {
			m.byTxnRef[dto.TxnRef] = dto
		}
	})
	return true, nil
}

func (m *MockPaymentReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*payment.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dtos []payment.ReconstructionDTO
	for _, dto := range m.byTxnRef {
		if dto.Status == payment.StatusPending && dto.ExpiresAt.Before(now) {
			dtos = append(dtos, dto)
		}
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].ExpiresAt.Before(dtos[j].ExpiresAt) })
	if limit > 0 && len(dtos) > limit {
		dtos = dtos[:limit]
	}

	out := make([]*payment.Reservation, len(dtos))
	for i, dto := range dtos {
		out[i] = payment.RebuildFromDTO(dto)
	}
	return out, nil
}

// ExpireNow moves a reservation's expiry into the past.
func (m *MockPaymentReservationRepository) ExpireNow(txnRef string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dto, ok := m.byTxnRef[txnRef]; ok {
		dto.ExpiresAt = time.Now().Add(-time.Second)
		m.byTxnRef[txnRef] = dto
	}
}

var _ payment.Repository = (*MockPaymentReservationRepository)(nil)
