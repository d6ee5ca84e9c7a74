package mocks

import (
	"context"
	"sync"
	"time"

	"bookstore/domain/inventory"
)

// MockBookRepository keeps stock in memory. Each book has its own mutex,
// held for the read-modify-write of DecrementStock and IncrementStock.
type MockBookRepository struct {
	mu    sync.RWMutex
	books map[string]*bookRecord
}

type bookRecord struct {
	mu  sync.Mutex
	dto inventory.BookDTO
}

func NewMockBookRepository(books ...inventory.BookDTO) *MockBookRepository {
	r := &MockBookRepository{books: make(map[string]*bookRecord)}
	for _, b := range books {
		r.Add(b)
	}
	return r
}

// Add inserts or replaces a book.
func (r *MockBookRepository) Add(b inventory.BookDTO) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.books[b.ID] = &bookRecord{dto: b}
}

// Stock returns the current stock of a book, -1 if unknown.
func (r *MockBookRepository) Stock(bookID string) int {
	rec := r.record(bookID)
	if rec == nil {
		return -1
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.dto.StockQuantity
}

func (r *MockBookRepository) record(bookID string) *bookRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.books[bookID]
}

func (r *MockBookRepository) FindByID(ctx context.Context, id string) (*inventory.Book, error) {
	rec := r.record(id)
	if rec == nil {
		return nil, inventory.NewBookNotFoundError(id)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return inventory.RebuildBook(rec.dto), nil
}

func (r *MockBookRepository) FindByIDs(ctx context.Context, ids []string) ([]*inventory.Book, error) {
	books := make([]*inventory.Book, 0, len(ids))
	for _, id := range ids {
		b, err := r.FindByID(ctx, id)
		if err != nil {
			continue
		}
		books = append(books, b)
	}
	return books, nil
}

func (r *MockBookRepository) DecrementStock(ctx context.Context, bookID string, quantity int) (int, error) {
	rec := r.record(bookID)
	if rec == nil {
		return 0, inventory.NewBookNotFoundError(bookID)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.dto.StockQuantity < quantity {
		return rec.dto.StockQuantity, inventory.NewInsufficientStockError(bookID, rec.dto.Title, quantity, rec.dto.StockQuantity)
	}
	rec.dto.StockQuantity -= quantity
	rec.dto.UpdatedAt = time.Now()
	onRollback(ctx, func() { rec.adjust(quantity) })
	return rec.dto.StockQuantity, nil
}

func (r *MockBookRepository) IncrementStock(ctx context.Context, bookID string, quantity int) error {
	rec := r.record(bookID)
	if rec == nil {
		return inventory.NewBookNotFoundError(bookID)
	}

	rec.adjust(quantity)
	onRollback(ctx, func() { rec.adjust(-quantity) })
	return nil
}

func (rec *bookRecord) adjust(delta int) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.dto.StockQuantity += delta
	rec.dto.UpdatedAt = time.Now()
}

var _ inventory.BookRepository = (*MockBookRepository)(nil)
