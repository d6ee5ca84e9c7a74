package mysql

import (
	"context"
	"errors"
	"time"

	"bookstore/domain/inventory"
	"bookstore/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

type InventoryReservationRepository struct {
	db *gorm.DB
}

func NewInventoryReservationRepository(db *gorm.DB) *InventoryReservationRepository {
	return &InventoryReservationRepository{db: db}
}

func (r *InventoryReservationRepository) Save(ctx context.Context, res *inventory.Reservation) error {
	resPO, err := po.FromInventoryReservation(res)
	if err != nil {
		return err
	}
	if err := getDB(ctx, r.db).Create(resPO).Error; err != nil {
		if isDuplicateKeyError(err) {
			return inventory.NewInvalidReservationError("owner " + res.OwnerID() + " already holds a reservation")
		}
		return err
	}
	return nil
}

func (r *InventoryReservationRepository) FindByOwnerID(ctx context.Context, ownerID string) (*inventory.Reservation, error) {
	var resPO po.InventoryReservationPO
	if err := getDB(ctx, r.db).First(&resPO, "owner_id = ?", ownerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.NewReservationNotFoundError(ownerID)
		}
		return nil, err
	}
	return resPO.ToDomain()
}

// UpdateStatus is a compare-and-set on the status column.
func (r *InventoryReservationRepository) UpdateStatus(ctx context.Context, res *inventory.Reservation, expected inventory.ReservationStatus) (bool, error) {
	result := getDB(ctx, r.db).Model(&po.InventoryReservationPO{}).
		Where("id = ? AND status = ?", res.ID(), string(expected)).
		Updates(map[string]interface{}{
			"status":     string(res.Status()),
			"updated_at": res.UpdatedAt(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *InventoryReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*inventory.Reservation, error) {
	var resPOs []po.InventoryReservationPO
	err := getDB(ctx, r.db).
		Where("status = ? AND expires_at < ?", string(inventory.ReservationPending), now).
		Order("expires_at").
		Limit(limit).
		Find(&resPOs).Error
	if err != nil {
		return nil, err
	}

	out := make([]*inventory.Reservation, 0, len(resPOs))
	for i := range resPOs {
		res, err := resPOs[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

var _ inventory.ReservationRepository = (*InventoryReservationRepository)(nil)
