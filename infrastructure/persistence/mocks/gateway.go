package mocks

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"bookstore/domain/payment"
	"bookstore/domain/shared"
)

// MockGatewaySignature is the only vnp_SecureHash MockGateway accepts.
const MockGatewaySignature = "valid-signature"

// MockGateway is a payment.Gateway that trusts MockGatewaySignature and
// answers status queries from a table.
type MockGateway struct {
	mu        sync.Mutex
	queryResp map[string]payment.QueryResult
	queryErr  error
	queries   int32
	urlErr    error
}

func NewMockGateway() *MockGateway {
	return &MockGateway{queryResp: make(map[string]payment.QueryResult)}
}

// SetQueryResult fixes the status query answer for txnRef.
func (g *MockGateway) SetQueryResult(txnRef, responseCode string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queryResp[txnRef] = payment.QueryResult{ResponseCode: responseCode, TransactionStatus: responseCode}
}

// FailQueries makes every status query fail with err.
func (g *MockGateway) FailQueries(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queryErr = err
}

// FailPaymentURL makes BuildPaymentURL fail with err.
func (g *MockGateway) FailPaymentURL(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.urlErr = err
}

// Queries returns how many status queries were sent.
func (g *MockGateway) Queries() int {
	return int(atomic.LoadInt32(&g.queries))
}

func (g *MockGateway) BuildPaymentURL(ctx context.Context, req payment.PaymentRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.urlErr != nil {
		return "", g.urlErr
	}
	return "https://pay.example.test/pay?vnp_TxnRef=" + req.TxnRef +
		"&vnp_Amount=" + strconv.FormatInt(req.Amount.Amount()*100, 10), nil
}

func (g *MockGateway) VerifyCallback(params map[string]string) (payment.CallbackResult, error) {
	if params["vnp_SecureHash"] != MockGatewaySignature {
		return payment.CallbackResult{}, payment.NewSignatureInvalidError("secure hash mismatch")
	}
	amount, err := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	if err != nil {
		return payment.CallbackResult{}, payment.NewSignatureInvalidError("malformed amount")
	}
	return payment.CallbackResult{
		TxnRef:            params["vnp_TxnRef"],
		ResponseCode:      params["vnp_ResponseCode"],
		TransactionStatus: params["vnp_TransactionStatus"],
		TransactionNo:     params["vnp_TransactionNo"],
		BankCode:          params["vnp_BankCode"],
		Amount:            shared.VND(amount / 100),
		PayDate:           params["vnp_PayDate"],
	}, nil
}

func (g *MockGateway) QueryTransaction(ctx context.Context, txnRef string, createdAt time.Time, clientIP string) (payment.QueryResult, error) {
	atomic.AddInt32(&g.queries, 1)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.queryErr != nil {
		return payment.QueryResult{}, g.queryErr
	}
	if q, ok := g.queryResp[txnRef]; ok {
		return q, nil
	}
	return payment.QueryResult{ResponseCode: payment.ResponseCodeSuccess, TransactionStatus: payment.ResponseCodeSuccess}, nil
}

// CallbackParams builds a callback MockGateway accepts.
func CallbackParams(txnRef string, amount int64, responseCode string) map[string]string {
	return map[string]string{
		"vnp_TxnRef":            txnRef,
		"vnp_Amount":            strconv.FormatInt(amount*100, 10),
		"vnp_ResponseCode":      responseCode,
		"vnp_TransactionStatus": responseCode,
		"vnp_TransactionNo":     "14000001",
		"vnp_BankCode":          "NCB",
		"vnp_PayDate":           time.Now().Format("20060102150405"),
		"vnp_SecureHash":        MockGatewaySignature,
	}
}

var _ payment.Gateway = (*MockGateway)(nil)
