/*
Package wallet records money movements on a buyer's store wallet. The
checkout core only credits refunds; the balance is the sum of completed
transactions.
*/
package wallet

import (
	"errors"
	"fmt"
	"time"

	"bookstore/domain/shared"

	"github.com/google/uuid"
)

type Type string

const (
	TypeCredit Type = "CREDIT"
	TypeDebit  Type = "DEBIT"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// ReferenceType says what a transaction is for.
type ReferenceType string

const (
	ReferenceOrderRefund       ReferenceType = "ORDER_REFUND"
	ReferenceManualAdd         ReferenceType = "MANUAL_ADD"
	ReferencePurchaseDeduction ReferenceType = "PURCHASE_DEDUCTION"
	ReferenceSystemAdjustment  ReferenceType = "SYSTEM_ADJUSTMENT"
	ReferencePromotionCredit   ReferenceType = "PROMOTION_CREDIT"
	ReferenceWithdrawal        ReferenceType = "WITHDRAWAL"
)

var (
	ErrInvalidAmount      = errors.New("wallet amount must be positive")
	ErrTransactionExists  = errors.New("wallet transaction already recorded")
	ErrTransactionMissing = errors.New("wallet transaction not found")
)

// Transaction is one entry in a buyer's wallet ledger.
type Transaction struct {
	id            string
	buyerID       string
	amount        shared.Money
	txType        Type
	status        Status
	referenceType ReferenceType
	referenceID   string
	description   string
	createdAt     time.Time

	shared.EventRecorder
}

// NewRefund creates a completed credit for a cancelled paid order.
func NewRefund(buyerID string, amount shared.Money, reason, customerOrderID string) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if buyerID == "" || customerOrderID == "" {
		return nil, shared.NewValidationError("wallet_transaction", "reference_id", "buyer and customer order are required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate wallet transaction ID: %w", err)
	}

	tx := &Transaction{
		id:            id.String(),
		buyerID:       buyerID,
		amount:        amount,
		txType:        TypeCredit,
		status:        StatusCompleted,
		referenceType: ReferenceOrderRefund,
		referenceID:   customerOrderID,
		description:   reason,
		createdAt:     time.Now(),
	}
	tx.Record(NewRefundedEvent(tx))
	return tx, nil
}

type ReconstructionDTO struct {
	ID            string
	BuyerID       string
	Amount        shared.Money
	Type          Type
	Status        Status
	ReferenceType ReferenceType
	ReferenceID   string
	Description   string
	CreatedAt     time.Time
}

func RebuildFromDTO(dto ReconstructionDTO) *Transaction {
	return &Transaction{
		id:            dto.ID,
		buyerID:       dto.BuyerID,
		amount:        dto.Amount,
		txType:        dto.Type,
		status:        dto.Status,
		referenceType: dto.ReferenceType,
		referenceID:   dto.ReferenceID,
		description:   dto.Description,
		createdAt:     dto.CreatedAt,
	}
}

// SignedAmount is positive for completed credits, negative for completed
// debits and zero otherwise.
func (t *Transaction) SignedAmount() int64 {
	if t.status != StatusCompleted {
		return 0
	}
	if t.txType == TypeDebit {
		return -t.amount.Amount()
	}
	return t.amount.Amount()
}

func (t *Transaction) ID() string                   { return t.id }
func (t *Transaction) BuyerID() string              { return t.buyerID }
func (t *Transaction) Amount() shared.Money         { return t.amount }
func (t *Transaction) Type() Type                   { return t.txType }
func (t *Transaction) Status() Status               { return t.status }
func (t *Transaction) ReferenceType() ReferenceType { return t.referenceType }
func (t *Transaction) ReferenceID() string          { return t.referenceID }
func (t *Transaction) Description() string          { return t.description }
func (t *Transaction) CreatedAt() time.Time         { return t.createdAt }
func (t *Transaction) Version() int                 { return 0 }

var _ shared.AggregateRoot = (*Transaction)(nil)

type RefundedEvent struct {
	shared.BaseEvent
	buyerID         string
	amount          shared.Money
	customerOrderID string
}

func NewRefundedEvent(t *Transaction) *RefundedEvent {
	return &RefundedEvent{
		BaseEvent:       shared.NewBaseEvent("wallet.refunded", t.id),
		buyerID:         t.buyerID,
		amount:          t.amount,
		customerOrderID: t.referenceID,
	}
}

func (e *RefundedEvent) Payload() map[string]any {
	return map[string]any{
		"buyer_id":          e.buyerID,
		"amount":            e.amount.Amount(),
		"customer_order_id": e.customerOrderID,
	}
}
