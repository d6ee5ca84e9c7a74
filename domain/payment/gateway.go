package payment

import (
	"context"
	"time"

	"bookstore/domain/shared"
)

// ResponseCodeSuccess is the gateway's code for a settled payment.
const ResponseCodeSuccess = "00"

// PaymentRequest is what the gateway needs to build a redirect URL.
type PaymentRequest struct {
	TxnRef    string
	Amount    shared.Money
	OrderInfo string
	ClientIP  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// CallbackResult is a verified callback.
type CallbackResult struct {
	TxnRef            string
	ResponseCode      string
	TransactionStatus string
	TransactionNo     string
	BankCode          string
	Amount            shared.Money
	PayDate           string
}

// Succeeded reports whether the callback claims the payment went through.
func (c CallbackResult) Succeeded() bool {
	return c.ResponseCode == ResponseCodeSuccess
}

// QueryResult is the gateway's own answer about a transaction.
type QueryResult struct {
	ResponseCode      string
	TransactionStatus string
	Message           string
}

func (q QueryResult) Succeeded() bool {
	return q.ResponseCode == ResponseCodeSuccess
}

// Gateway is the Payment Gateway collaborator.
type Gateway interface {
	// BuildPaymentURL returns the signed redirect URL.
	BuildPaymentURL(ctx context.Context, req PaymentRequest) (string, error)

	// VerifyCallback checks the signature and parses the parameters.
	// It fails with ErrSignatureInvalid.
	VerifyCallback(params map[string]string) (CallbackResult, error)

	// QueryTransaction asks the gateway directly how a payment ended.
	QueryTransaction(ctx context.Context, txnRef string, createdAt time.Time, clientIP string) (QueryResult, error)
}
