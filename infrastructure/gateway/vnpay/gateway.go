/*
Package vnpay is the VNPay implementation of payment.Gateway.

Three calls are supported: the signed redirect URL that starts a payment,
verification of the return-URL and IPN callbacks, and the querydr status
query used to confirm a callback before any order is created.
*/
package vnpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookstore/domain/payment"
	"bookstore/domain/shared"
	"bookstore/pkg/logger"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

const (
	defaultVersion = "2.1.0"
	defaultLocale  = "vn"
	orderType      = "other"

	// consecutive querydr failures that open the breaker
	breakerTripAfter = 5
	breakerCooldown  = 30 * time.Second
)

// Config VNPay merchant settings
type Config struct {
	TmnCode      string
	HashSecret   string
	PayURL       string
	APIURL       string
	ReturnURL    string
	Version      string
	Locale       string
	QueryTimeout time.Duration
}

// Gateway talks to VNPay.
type Gateway struct {
	cfg        Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[payment.QueryResult]
	now        func() time.Time
}

// NewGateway validates cfg. A nil client gets one with cfg.QueryTimeout.
func NewGateway(cfg Config, client *http.Client) (*Gateway, error) {
	if cfg.TmnCode == "" || cfg.HashSecret == "" {
		return nil, errors.New("vnpay: tmn code and hash secret are required")
	}
	if cfg.PayURL == "" || cfg.ReturnURL == "" {
		return nil, errors.New("vnpay: pay url and return url are required")
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if cfg.Locale == "" {
		cfg.Locale = defaultLocale
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.QueryTimeout}
	}
	breaker := gobreaker.NewCircuitBreaker[payment.QueryResult](gobreaker.Settings{
		Name:    "vnpay-querydr",
		Timeout: breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripAfter
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("VNPay circuit breaker changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Gateway{cfg: cfg, httpClient: client, breaker: breaker, now: time.Now}, nil
}

// BuildPaymentURL returns the redirect URL for req. The amount is sent in
// hundredths of a đồng.
func (g *Gateway) BuildPaymentURL(ctx context.Context, req payment.PaymentRequest) (string, error) {
	if req.TxnRef == "" {
		return "", errors.New("vnpay: txn ref is required")
	}
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("vnpay: amount must be positive, got %d", req.Amount.Amount())
	}

	created := req.CreatedAt
	if created.IsZero() {
		created = g.now()
	}
	ip := req.ClientIP
	if ip == "" {
		ip = "127.0.0.1"
	}

	params := map[string]string{
		"vnp_Version":    g.cfg.Version,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(req.Amount.Amount()*100, 10),
		"vnp_CurrCode":   shared.CurrencyVND,
		"vnp_TxnRef":     req.TxnRef,
		"vnp_OrderInfo":  req.OrderInfo,
		"vnp_OrderType":  orderType,
		"vnp_Locale":     g.cfg.Locale,
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_IpAddr":     ip,
		"vnp_CreateDate": formatDate(created),
	}
	if !req.ExpiresAt.IsZero() {
		params["vnp_ExpireDate"] = formatDate(req.ExpiresAt)
	}

	query := canonicalQuery(params)
	paymentURL := g.cfg.PayURL + "?" + query + "&" + paramSecureHash + "=" + sign(g.cfg.HashSecret, query)

	logger.Debug("VNPay payment URL built",
		logger.TxnRef(req.TxnRef),
		zap.Int64("amount", req.Amount.Amount()))
	return paymentURL, nil
}

// VerifyCallback checks vnp_SecureHash and parses the callback.
func (g *Gateway) VerifyCallback(params map[string]string) (payment.CallbackResult, error) {
	if !verify(g.cfg.HashSecret, params) {
		return payment.CallbackResult{}, payment.NewSignatureInvalidError("secure hash mismatch")
	}

	txnRef := params["vnp_TxnRef"]
	if txnRef == "" {
		return payment.CallbackResult{}, payment.NewSignatureInvalidError("vnp_TxnRef missing")
	}
	raw, err := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	if err != nil || raw < 0 || raw%100 != 0 {
		return payment.CallbackResult{}, payment.NewSignatureInvalidError("malformed vnp_Amount " + params["vnp_Amount"])
	}

	return payment.CallbackResult{
		TxnRef:            txnRef,
		ResponseCode:      params["vnp_ResponseCode"],
		TransactionStatus: params["vnp_TransactionStatus"],
		TransactionNo:     params["vnp_TransactionNo"],
		BankCode:          params["vnp_BankCode"],
		Amount:            shared.VND(raw / 100),
		PayDate:           params["vnp_PayDate"],
	}, nil
}

// QueryTransaction sends a querydr request for txnRef. createdAt is the
// date the payment was started. Transport failures and unreadable answers
// are reported as payment.ErrGatewayUnavailable.
func (g *Gateway) QueryTransaction(ctx context.Context, txnRef string, createdAt time.Time, clientIP string) (payment.QueryResult, error) {
	if g.cfg.APIURL == "" {
		return payment.QueryResult{}, payment.NewGatewayUnavailableError(errors.New("vnpay: api url is not configured"))
	}

	res, err := g.breaker.Execute(func() (payment.QueryResult, error) {
		return g.query(ctx, txnRef, createdAt, clientIP)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return payment.QueryResult{}, payment.NewGatewayUnavailableError(err)
	}
	return res, err
}

func (g *Gateway) query(ctx context.Context, txnRef string, createdAt time.Time, clientIP string) (payment.QueryResult, error) {
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}

	now := g.now()
	requestID := strconv.FormatInt(now.UnixMilli(), 10)
	transDate := formatDate(createdAt)
	body := map[string]string{
		"vnp_RequestId":  requestID,
		"vnp_Version":    g.cfg.Version,
		"vnp_Command":    "querydr",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  "Kiem tra trang thai GD:" + txnRef,
		"vnp_TransDate":  transDate,
		"vnp_CreateDate": formatDate(now),
		"vnp_IpAddr":     clientIP,
	}
	body[paramSecureHash] = sign(g.cfg.HashSecret, strings.Join([]string{
		requestID, g.cfg.Version, "querydr", g.cfg.TmnCode, txnRef, transDate,
	}, "|"))

	payload, err := json.Marshal(body)
	if err != nil {
		return payment.QueryResult{}, fmt.Errorf("failed to marshal query: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return payment.QueryResult{}, fmt.Errorf("failed to build query: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return payment.QueryResult{}, payment.NewGatewayUnavailableError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return payment.QueryResult{}, payment.NewGatewayUnavailableError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return payment.QueryResult{}, payment.NewGatewayUnavailableError(
			fmt.Errorf("querydr returned status %d: %s", resp.StatusCode, string(raw)))
	}

	var answer map[string]string
	if err := json.Unmarshal(raw, &answer); err != nil {
		return payment.QueryResult{}, payment.NewGatewayUnavailableError(fmt.Errorf("failed to decode querydr answer: %w", err))
	}
	code, ok := answer["vnp_ResponseCode"]
	if !ok {
		return payment.QueryResult{}, payment.NewGatewayUnavailableError(errors.New("querydr answer has no vnp_ResponseCode"))
	}

	logger.Info("VNPay status query answered",
		logger.TxnRef(txnRef),
		zap.String("response_code", code),
		zap.String("transaction_status", answer["vnp_TransactionStatus"]))
	return payment.QueryResult{
		ResponseCode:      code,
		TransactionStatus: answer["vnp_TransactionStatus"],
		Message:           answer["vnp_Message"],
	}, nil
}

var _ payment.Gateway = (*Gateway)(nil)
