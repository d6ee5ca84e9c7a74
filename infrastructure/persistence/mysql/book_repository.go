package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore/domain/inventory"
	"bookstore/infrastructure/persistence/mysql/po"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookRepository is the stock side of the catalogue.
type BookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) FindByID(ctx context.Context, id string) (*inventory.Book, error) {
	var bookPO po.BookPO
	if err := getDB(ctx, r.db).First(&bookPO, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, inventory.NewBookNotFoundError(id)
		}
		return nil, err
	}
	return bookPO.ToDomain(), nil
}

func (r *BookRepository) FindByIDs(ctx context.Context, ids []string) ([]*inventory.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var bookPOs []po.BookPO
	if err := getDB(ctx, r.db).Where("id IN ?", ids).Order("id").Find(&bookPOs).Error; err != nil {
		return nil, err
	}

	books := make([]*inventory.Book, len(bookPOs))
	for i := range bookPOs {
		books[i] = bookPOs[i].ToDomain()
	}
	return books, nil
}

// DecrementStock locks the book row with SELECT ... FOR UPDATE, so two
// checkouts for the last copy serialise on it and the second one sees
// the decremented stock.
func (r *BookRepository) DecrementStock(ctx context.Context, bookID string, quantity int) (int, error) {
	if !inTransaction(ctx) {
		return 0, fmt.Errorf("decrement stock of %s: no transaction in context", bookID)
	}
	tx := getDB(ctx, r.db)

	var bookPO po.BookPO
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&bookPO, "id = ?", bookID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, inventory.NewBookNotFoundError(bookID)
		}
		return 0, err
	}

	if bookPO.StockQuantity < quantity {
		return bookPO.StockQuantity, inventory.NewInsufficientStockError(bookID, bookPO.Title, quantity, bookPO.StockQuantity)
	}

	remaining := bookPO.StockQuantity - quantity
	err = tx.Model(&po.BookPO{}).Where("id = ?", bookID).
		Updates(map[string]interface{}{
			"stock_quantity": remaining,
			"updated_at":     time.Now(),
		}).Error
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (r *BookRepository) IncrementStock(ctx context.Context, bookID string, quantity int) error {
	result := getDB(ctx, r.db).Model(&po.BookPO{}).Where("id = ?", bookID).
		Updates(map[string]interface{}{
			"stock_quantity": gorm.Expr("stock_quantity + ?", quantity),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return inventory.NewBookNotFoundError(bookID)
	}
	return nil
}

var _ inventory.BookRepository = (*BookRepository)(nil)
