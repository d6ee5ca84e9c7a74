/*
Package inventory owns book stock and the durable reservations held
against it while a checkout is in flight.

Stock is never written through Book itself: BookRepository.DecrementStock
and IncrementStock perform the locked read-modify-write.
*/
package inventory

import (
	"time"

	"bookstore/domain/shared"
)

// Book is the catalog row checkout reads: price, owner and stock.
type Book struct {
	id            string
	title         string
	sellerID      string
	price         shared.Money
	stockQuantity int
	active        bool
	updatedAt     time.Time
}

type BookDTO struct {
	ID            string
	Title         string
	SellerID      string
	Price         shared.Money
	StockQuantity int
	Active        bool
	UpdatedAt     time.Time
}

func RebuildBook(dto BookDTO) *Book {
	return &Book{
		id:            dto.ID,
		title:         dto.Title,
		sellerID:      dto.SellerID,
		price:         dto.Price,
		stockQuantity: dto.StockQuantity,
		active:        dto.Active,
		updatedAt:     dto.UpdatedAt,
	}
}

// CheckAvailable is the read-only pre-check. The authoritative check
// happens under the row lock in DecrementStock.
func (b *Book) CheckAvailable(quantity int) error {
	if quantity > b.stockQuantity {
		return NewInsufficientStockError(b.id, b.title, quantity, b.stockQuantity)
	}
	return nil
}

func (b *Book) ID() string           { return b.id }
func (b *Book) Title() string        { return b.title }
func (b *Book) SellerID() string     { return b.sellerID }
func (b *Book) Price() shared.Money  { return b.price }
func (b *Book) StockQuantity() int   { return b.stockQuantity }
func (b *Book) IsActive() bool       { return b.active }
func (b *Book) UpdatedAt() time.Time { return b.updatedAt }
