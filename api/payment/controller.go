/*
Package payment exposes the VNPay callbacks and reservation lookups.

The gateway calls back twice for one payment: the buyer's browser is
redirected to the return URL and VNPay's servers call the IPN URL. Both
go through the same reconciler, so whichever arrives first settles the
reservation and the other one observes the result.
*/
package payment

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"bookstore/api/ctxutil"
	"bookstore/api/response"
	apppayment "bookstore/application/payment"
	"bookstore/domain/payment"
	"bookstore/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IPN acknowledgement codes understood by VNPay.
const (
	rspConfirmed        = "00"
	rspOrderNotFound    = "01"
	rspAlreadyConfirmed = "02"
	rspInvalidAmount    = "04"
	rspInvalidSignature = "97"
	rspUnknown          = "99"
)

// CallbackHandler settles a reservation from gateway parameters.
type CallbackHandler interface {
	HandleCallback(ctx context.Context, params map[string]string) (apppayment.Result, error)
}

// ReservationReader loads reservations by transaction reference.
type ReservationReader interface {
	Get(ctx context.Context, txnRef string) (*payment.Reservation, error)
}

// RedirectConfig holds the pages the browser lands on after paying. When
// a URL is empty the return endpoint answers with JSON instead.
type RedirectConfig struct {
	SuccessURL string
	FailureURL string
}

type Controller struct {
	callbacks    CallbackHandler
	reservations ReservationReader
	redirects    RedirectConfig
}

func NewController(callbacks CallbackHandler, reservations ReservationReader, redirects RedirectConfig) *Controller {
	return &Controller{callbacks: callbacks, reservations: reservations, redirects: redirects}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.GET("/vnpay/return", c.Return)
		payments.GET("/vnpay/ipn", c.IPN)
		payments.GET("/reservations/:txnRef", c.GetReservation)
	}
}

// ReservationResponse Payment reservation status DTO
type ReservationResponse struct {
	TxnRef          string     `json:"txn_ref"`
	Status          string     `json:"status"`
	TotalAmount     int64      `json:"total_amount"`
	DiscountAmount  int64      `json:"discount_amount"`
	ShippingFee     int64      `json:"shipping_fee"`
	PaymentMethod   string     `json:"payment_method"`
	CustomerOrderID string     `json:"customer_order_id,omitempty"`
	CancelReason    string     `json:"cancel_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	ExpiresAt       time.Time  `json:"expires_at"`
	ConfirmedAt     *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

// ipnResponse is the body VNPay expects back from the IPN call.
type ipnResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// Return handles the browser redirect from the gateway.
// GET /api/v1/payments/vnpay/return
func (c *Controller) Return(ctx *gin.Context) {
	res, err := c.callbacks.HandleCallback(ctxutil.WithRequestID(ctx), queryParams(ctx))

	if c.redirects.SuccessURL == "" || c.redirects.FailureURL == "" {
		if err != nil {
			response.HandleAppError(ctx, err)
			return
		}
		response.HandleSuccess(ctx, res, res.Message)
		return
	}

	if err == nil && res.Success {
		ctx.Redirect(http.StatusFound, withQuery(c.redirects.SuccessURL, url.Values{
			"txn_ref":           {res.TxnRef},
			"customer_order_id": {res.CustomerOrderID},
		}))
		return
	}

	// the result page only learns which payment failed, never why
	if err != nil {
		logger.Warn("Payment return rejected",
			logger.RequestID(response.GetRequestID(ctx)),
			logger.TxnRef(res.TxnRef),
			zap.Error(err))
	} else {
		logger.Info("Payment return not settled",
			logger.RequestID(response.GetRequestID(ctx)),
			logger.TxnRef(res.TxnRef),
			zap.String("reason", res.Message))
	}
	ctx.Redirect(http.StatusFound, withQuery(c.redirects.FailureURL, url.Values{
		"txn_ref": {res.TxnRef},
	}))
}

// IPN handles VNPay's server-to-server notification. VNPay retries until
// it receives a code other than 99, so only transient failures answer 99.
// GET /api/v1/payments/vnpay/ipn
func (c *Controller) IPN(ctx *gin.Context) {
	res, err := c.callbacks.HandleCallback(ctxutil.WithRequestID(ctx), queryParams(ctx))

	ack := ipnAck(res, err)
	if err != nil {
		logger.Warn("Payment IPN not confirmed",
			logger.RequestID(response.GetRequestID(ctx)),
			logger.TxnRef(res.TxnRef),
			zap.String("rsp_code", ack.RspCode),
			zap.Error(err))
	}
	ctx.JSON(http.StatusOK, ack)
}

// GetReservation reports the state of a payment reservation.
// GET /api/v1/payments/reservations/:txnRef
func (c *Controller) GetReservation(ctx *gin.Context) {
	r, err := c.reservations.Get(ctxutil.WithRequestID(ctx), ctx.Param("txnRef"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, toReservationResponse(r), "payment reservation retrieved")
}

func ipnAck(res apppayment.Result, err error) ipnResponse {
	switch {
	case errors.Is(err, payment.ErrSignatureInvalid):
		return ipnResponse{RspCode: rspInvalidSignature, Message: "Invalid signature"}
	case errors.Is(err, payment.ErrReservationNotFound):
		return ipnResponse{RspCode: rspOrderNotFound, Message: "Order not found"}
	case errors.Is(err, payment.ErrGatewayMismatch):
		return ipnResponse{RspCode: rspInvalidAmount, Message: "Invalid amount"}
	case err != nil:
		return ipnResponse{RspCode: rspUnknown, Message: "Unknown error"}
	case res.AlreadyProcessed:
		return ipnResponse{RspCode: rspAlreadyConfirmed, Message: "Order already confirmed"}
	default:
		// a declined payment was recorded too
		return ipnResponse{RspCode: rspConfirmed, Message: "Confirm Success"}
	}
}

func queryParams(ctx *gin.Context) map[string]string {
	query := ctx.Request.URL.Query()
	params := make(map[string]string, len(query))
	for key, values := range query {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}
	return params
}

func withQuery(base string, values url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for key, vs := range values {
		if len(vs) > 0 && vs[0] != "" {
			q.Set(key, vs[0])
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func toReservationResponse(r *payment.Reservation) ReservationResponse {
	return ReservationResponse{
		TxnRef:          r.TxnRef(),
		Status:          string(r.Status()),
		TotalAmount:     r.TotalAmount().Amount(),
		DiscountAmount:  r.DiscountAmount().Amount(),
		ShippingFee:     r.ShippingFee().Amount(),
		PaymentMethod:   string(r.PaymentMethod()),
		CustomerOrderID: r.CustomerOrderID(),
		CancelReason:    r.CancelReason(),
		CreatedAt:       r.CreatedAt(),
		ExpiresAt:       r.ExpiresAt(),
		ConfirmedAt:     r.ConfirmedAt(),
		CancelledAt:     r.CancelledAt(),
	}
}
