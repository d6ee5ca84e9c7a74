package po

import (
	"encoding/json"
	"fmt"
	"time"

	"bookstore/domain/inventory"
	"bookstore/domain/shared"
)

// BookPO is the stock-bearing row of the catalogue. Only the columns the
// checkout reads are mapped.
type BookPO struct {
	ID            string    `gorm:"primaryKey;size:64"`
	Title         string    `gorm:"size:255;not null"`
	SellerID      string    `gorm:"size:64;index;not null"`
	Price         int64     `gorm:"not null"`
	StockQuantity int       `gorm:"not null"`
	Active        bool      `gorm:"not null;default:true"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (BookPO) TableName() string {
	return "books"
}

func (p *BookPO) ToDomain() *inventory.Book {
	return inventory.RebuildBook(inventory.BookDTO{
		ID:            p.ID,
		Title:         p.Title,
		SellerID:      p.SellerID,
		Price:         shared.VND(p.Price),
		StockQuantity: p.StockQuantity,
		Active:        p.Active,
		UpdatedAt:     p.UpdatedAt,
	})
}

// InventoryReservationPO stores a stock hold; its lines are a JSON column.
type InventoryReservationPO struct {
	ID        string    `gorm:"primaryKey;size:64"`
	OwnerID   string    `gorm:"size:64;uniqueIndex;not null"`
	Lines     string    `gorm:"type:json;not null"`
	Status    string    `gorm:"size:20;not null;index:idx_inv_res_status_expiry,priority:1"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index:idx_inv_res_status_expiry,priority:2"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (InventoryReservationPO) TableName() string {
	return "inventory_reservations"
}

func FromInventoryReservation(r *inventory.Reservation) (*InventoryReservationPO, error) {
	lines, err := json.Marshal(r.Lines())
	if err != nil {
		return nil, fmt.Errorf("failed to encode reservation lines: %w", err)
	}
	return &InventoryReservationPO{
		ID:        r.ID(),
		OwnerID:   r.OwnerID(),
		Lines:     string(lines),
		Status:    string(r.Status()),
		CreatedAt: r.CreatedAt(),
		ExpiresAt: r.ExpiresAt(),
		UpdatedAt: r.UpdatedAt(),
	}, nil
}

func (p *InventoryReservationPO) ToDomain() (*inventory.Reservation, error) {
	var lines []inventory.Line
	if err := json.Unmarshal([]byte(p.Lines), &lines); err != nil {
		return nil, fmt.Errorf("failed to decode reservation %s lines: %w", p.ID, err)
	}
	return inventory.RebuildReservation(inventory.ReservationDTO{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Lines:     lines,
		Status:    inventory.ReservationStatus(p.Status),
		CreatedAt: p.CreatedAt,
		ExpiresAt: p.ExpiresAt,
		UpdatedAt: p.UpdatedAt,
	}), nil
}
