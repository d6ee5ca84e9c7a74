package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"bookstore/domain/inventory"
)

// MockInventoryReservationRepository stores reservations as value
// snapshots, so conditional updates behave like the SQL ones.
type MockInventoryReservationRepository struct {
	mu      sync.Mutex
	byOwner map[string]inventory.ReservationDTO
}

func NewMockInventoryReservationRepository() *MockInventoryReservationRepository {
	return &MockInventoryReservationRepository{byOwner: make(map[string]inventory.ReservationDTO)}
}

func toReservationDTO(r *inventory.Reservation) inventory.ReservationDTO {
	return inventory.ReservationDTO{
		ID:        r.ID(),
		OwnerID:   r.OwnerID(),
		Lines:     r.Lines(),
		Status:    r.Status(),
		CreatedAt: r.CreatedAt(),
		ExpiresAt: r.ExpiresAt(),
		UpdatedAt: r.UpdatedAt(),
	}
}

func (m *MockInventoryReservationRepository) Save(ctx context.Context, r *inventory.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ownerID := r.OwnerID()
	prev, existed := m.byOwner[ownerID]
	m.byOwner[ownerID] = toReservationDTO(r)
	onRollback(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if existed {
			m.byOwner[ownerID] = prev
		} else {
			delete(m.byOwner, ownerID)
		}
	})
	return nil
}

func (m *MockInventoryReservationRepository) FindByOwnerID(ctx context.Context, ownerID string) (*inventory.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dto, ok := m.byOwner[ownerID]
	if !ok {
		return nil, inventory.NewReservationNotFoundError(ownerID)
	}
	return inventory.RebuildReservation(dto), nil
}

func (m *MockInventoryReservationRepository) UpdateStatus(ctx context.Context, r *inventory.Reservation, expected inventory.ReservationStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dto, ok := m.byOwner[r.OwnerID()]
	if !ok || dto.Status != expected {
		return false, nil
	}
	prev := dto
	dto.Status = r.Status()
	dto.UpdatedAt = r.UpdatedAt()
	m.byOwner[r.OwnerID()] = dto
	onRollback(ctx, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if cur, ok := m.byOwner[prev.OwnerID]; ok && cur.Status == dto.Status {
			m.byOwner[prev.OwnerID] = prev
		}
	})
	return true, nil
}

func (m *MockInventoryReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*inventory.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dtos []inventory.ReservationDTO
	for _, dto := range m.byOwner {
		if dto.Status == inventory.ReservationPending && dto.ExpiresAt.Before(now) {
			dtos = append(dtos, dto)
		}
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].ExpiresAt.Before(dtos[j].ExpiresAt) })
	if limit > 0 && len(dtos) > limit {
		dtos = dtos[:limit]
	}

	out := make([]*inventory.Reservation, len(dtos))
	for i, dto := range dtos {
		out[i] = inventory.RebuildReservation(dto)
	}
	return out, nil
}

// ExpireNow moves a reservation's expiry into the past.
func (m *MockInventoryReservationRepository) ExpireNow(ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dto, ok := m.byOwner[ownerID]; ok {
		dto.ExpiresAt = time.Now().Add(-time.Second)
		m.byOwner[ownerID] = dto
	}
}

var _ inventory.ReservationRepository = (*MockInventoryReservationRepository)(nil)
