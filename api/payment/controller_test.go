package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	apppayment "bookstore/application/payment"
	"bookstore/domain/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCallbacks struct {
	res    apppayment.Result
	err    error
	params map[string]string
}

func (f *fakeCallbacks) HandleCallback(_ context.Context, params map[string]string) (apppayment.Result, error) {
	f.params = params
	return f.res, f.err
}

type fakeReservations struct {
	r   *payment.Reservation
	err error
}

func (f *fakeReservations) Get(context.Context, string) (*payment.Reservation, error) {
	return f.r, f.err
}

func newEngine(c *Controller) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	c.RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestIPN_AcknowledgementCodes(t *testing.T) {
	tests := []struct {
		name string
		res  apppayment.Result
		err  error
		want string
	}{
		{"settled", apppayment.Result{Success: true, CustomerOrderID: "co-1"}, nil, "00"},
		{"declined is still acknowledged", apppayment.Result{Message: "payment declined with code 24"}, nil, "00"},
		{"duplicate delivery", apppayment.Result{Success: true, AlreadyProcessed: true}, nil, "02"},
		{"bad signature", apppayment.Result{}, payment.NewSignatureInvalidError("hash mismatch"), "97"},
		{"unknown reference", apppayment.Result{}, payment.NewReservationNotFoundError("TXN1"), "01"},
		{"amount mismatch", apppayment.Result{}, payment.NewGatewayMismatchError("TXN1", "amount"), "04"},
		{"gateway down", apppayment.Result{}, payment.NewGatewayUnavailableError(errors.New("timeout")), "99"},
		{"lock contention", apppayment.Result{}, apppayment.ErrCallbackInProgress, "99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			callbacks := &fakeCallbacks{res: tt.res, err: tt.err}
			engine := newEngine(NewController(callbacks, &fakeReservations{}, RedirectConfig{}))

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/ipn?vnp_TxnRef=TXN1&vnp_ResponseCode=00", nil)
			engine.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			var body ipnResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.RspCode)
			assert.Equal(t, "TXN1", callbacks.params["vnp_TxnRef"])
		})
	}
}

func TestReturn_RedirectsToResultPage(t *testing.T) {
	redirects := RedirectConfig{SuccessURL: "https://shop.example/paid", FailureURL: "https://shop.example/failed?src=vnpay"}

	t.Run("success", func(t *testing.T) {
		callbacks := &fakeCallbacks{res: apppayment.Result{TxnRef: "TXN1", Success: true, CustomerOrderID: "co-1"}}
		engine := newEngine(NewController(callbacks, &fakeReservations{}, redirects))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/return?vnp_TxnRef=TXN1", nil))

		require.Equal(t, http.StatusFound, w.Code)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/paid", loc.Path)
		assert.Equal(t, "co-1", loc.Query().Get("customer_order_id"))
		assert.Equal(t, "TXN1", loc.Query().Get("txn_ref"))
	})

	t.Run("verification error", func(t *testing.T) {
		callbacks := &fakeCallbacks{res: apppayment.Result{TxnRef: "TXN1"}, err: payment.NewSignatureInvalidError("hash mismatch")}
		engine := newEngine(NewController(callbacks, &fakeReservations{}, redirects))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/return", nil))

		require.Equal(t, http.StatusFound, w.Code)
		loc, err := url.Parse(w.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/failed", loc.Path)
		assert.Equal(t, "vnpay", loc.Query().Get("src"))
		assert.Equal(t, "TXN1", loc.Query().Get("txn_ref"))
		assert.False(t, loc.Query().Has("reason"))
	})

	t.Run("declined keeps the reservation state out of the url", func(t *testing.T) {
		callbacks := &fakeCallbacks{res: apppayment.Result{TxnRef: "TXN2", Message: "payment reservation is CANCELLED"}}
		engine := newEngine(NewController(callbacks, &fakeReservations{}, redirects))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/return?vnp_TxnRef=TXN2", nil))

		require.Equal(t, http.StatusFound, w.Code)
		location := w.Header().Get("Location")
		assert.NotContains(t, location, "CANCELLED")
		loc, err := url.Parse(location)
		require.NoError(t, err)
		assert.Equal(t, "/failed", loc.Path)
		assert.Equal(t, url.Values{"src": {"vnpay"}, "txn_ref": {"TXN2"}}, loc.Query())
	})
}

func TestReturn_JSONWithoutRedirectPages(t *testing.T) {
	callbacks := &fakeCallbacks{err: payment.NewGatewayMismatchError("TXN1", "amount")}
	engine := newEngine(NewController(callbacks, &fakeReservations{}, RedirectConfig{}))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/vnpay/return", nil))

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "GATEWAY_MISMATCH")
}

func TestGetReservation(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		engine := newEngine(NewController(&fakeCallbacks{}, &fakeReservations{err: payment.NewReservationNotFoundError("TXN404")}, RedirectConfig{}))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/reservations/TXN404", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "RESERVATION_NOT_FOUND")
	})

	t.Run("found", func(t *testing.T) {
		now := time.Now()
		r := payment.RebuildFromDTO(payment.ReconstructionDTO{
			ID:        "res-1",
			BuyerID:   "buyer-1",
			TxnRef:    "TXN1",
			Status:    payment.StatusPending,
			CreatedAt: now,
			ExpiresAt: now.Add(15 * time.Minute),
		})
		engine := newEngine(NewController(&fakeCallbacks{}, &fakeReservations{r: r}, RedirectConfig{}))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payments/reservations/TXN1", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var body struct {
			Data ReservationResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "TXN1", body.Data.TxnRef)
		assert.Equal(t, "PENDING", body.Data.Status)
	})
}
