package po

import (
	"time"

	"bookstore/domain/shared"
	"bookstore/domain/wallet"
)

// WalletTransactionPO is an append-only ledger row. The unique reference
// index is what makes a refund happen at most once.
type WalletTransactionPO struct {
	ID            string    `gorm:"primaryKey;size:64"`
	BuyerID       string    `gorm:"size:64;index;not null"`
	Amount        int64     `gorm:"not null"`
	Currency      string    `gorm:"size:3;not null"`
	Type          string    `gorm:"size:20;not null"`
	Status        string    `gorm:"size:20;not null"`
	ReferenceType string    `gorm:"size:30;not null;uniqueIndex:uk_wallet_reference,priority:1"`
	ReferenceID   string    `gorm:"size:64;not null;uniqueIndex:uk_wallet_reference,priority:2"`
	Description   string    `gorm:"size:255"`
	CreatedAt     time.Time `gorm:"not null"`
}

func (WalletTransactionPO) TableName() string {
	return "wallet_transactions"
}

func FromWalletTransaction(t *wallet.Transaction) *WalletTransactionPO {
	return &WalletTransactionPO{
		ID:            t.ID(),
		BuyerID:       t.BuyerID(),
		Amount:        t.Amount().Amount(),
		Currency:      t.Amount().Currency(),
		Type:          string(t.Type()),
		Status:        string(t.Status()),
		ReferenceType: string(t.ReferenceType()),
		ReferenceID:   t.ReferenceID(),
		Description:   t.Description(),
		CreatedAt:     t.CreatedAt(),
	}
}

func (p *WalletTransactionPO) ToDomain() *wallet.Transaction {
	return wallet.RebuildFromDTO(wallet.ReconstructionDTO{
		ID:            p.ID,
		BuyerID:       p.BuyerID,
		Amount:        *shared.NewMoney(p.Amount, p.Currency),
		Type:          wallet.Type(p.Type),
		Status:        wallet.Status(p.Status),
		ReferenceType: wallet.ReferenceType(p.ReferenceType),
		ReferenceID:   p.ReferenceID,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
	})
}
