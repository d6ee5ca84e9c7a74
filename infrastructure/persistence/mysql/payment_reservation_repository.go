package mysql

import (
	"context"
	"errors"
	"time"

	"bookstore/domain/payment"
	"bookstore/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
)

type PaymentReservationRepository struct {
	db *gorm.DB
}

func NewPaymentReservationRepository(db *gorm.DB) *PaymentReservationRepository {
	return &PaymentReservationRepository{db: db}
}

func (r *PaymentReservationRepository) Save(ctx context.Context, res *payment.Reservation) error {
	if err := getDB(ctx, r.db).Create(po.FromPaymentReservation(res)).Error; err != nil {
		if isDuplicateKeyError(err) {
			return payment.NewDuplicateTxnRefError(res.TxnRef())
		}
		return err
	}
	return nil
}

func (r *PaymentReservationRepository) ExistsByTxnRef(ctx context.Context, txnRef string) (bool, error) {
	var count int64
	err := getDB(ctx, r.db).Model(&po.PaymentReservationPO{}).Where("txn_ref = ?", txnRef).Count(&count).Error
	return count > 0, err
}

func (r *PaymentReservationRepository) FindByTxnRef(ctx context.Context, txnRef string) (*payment.Reservation, error) {
	return r.findOne(ctx, txnRef, "txn_ref = ?", txnRef)
}

func (r *PaymentReservationRepository) FindByID(ctx context.Context, id string) (*payment.Reservation, error) {
	return r.findOne(ctx, id, "id = ?", id)
}

func (r *PaymentReservationRepository) findOne(ctx context.Context, key string, query string, args ...interface{}) (*payment.Reservation, error) {
	var resPO po.PaymentReservationPO
	if err := getDB(ctx, r.db).Where(query, args...).First(&resPO).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.NewReservationNotFoundError(key)
		}
		return nil, err
	}
	return resPO.ToDomain(), nil
}

// UpdateStatus writes the transition only if no other callback or sweep
// moved the reservation out of expected first.
func (r *PaymentReservationRepository) UpdateStatus(ctx context.Context, res *payment.Reservation, expected payment.Status) (bool, error) {
	resPO := po.FromPaymentReservation(res)
	result := getDB(ctx, r.db).Model(&po.PaymentReservationPO{}).
		Where("id = ? AND status = ?", res.ID(), string(expected)).
		Updates(resPO.StatusColumns())
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *PaymentReservationRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*payment.Reservation, error) {
	var resPOs []po.PaymentReservationPO
	err := getDB(ctx, r.db).
		Where("status = ? AND expires_at < ?", string(payment.StatusPending), now).
		Order("expires_at").
		Limit(limit).
		Find(&resPOs).Error
	if err != nil {
		return nil, err
	}

	out := make([]*payment.Reservation, len(resPOs))
	for i := range resPOs {
		out[i] = resPOs[i].ToDomain()
	}
	return out, nil
}

var _ payment.Repository = (*PaymentReservationRepository)(nil)
