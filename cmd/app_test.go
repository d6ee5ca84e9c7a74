package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"bookstore/config"
	"bookstore/domain/inventory"
	"bookstore/domain/shared"
	"bookstore/infrastructure/persistence/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.App.Env = "test"
	cfg.Server.RateLimit.Enabled = false
	return cfg
}

func buildApp(t *testing.T, builder *AppBuilder) *App {
	t.Helper()
	app, err := builder.WithRegisterer(nil).Build()
	require.NoError(t, err)
	t.Cleanup(app.components.Close)

	books, ok := app.Components().Books.(*mocks.MockBookRepository)
	require.True(t, ok)
	books.Add(inventory.BookDTO{ID: "b1", Title: "Dế Mèn phiêu lưu ký", SellerID: "s1", Price: shared.VND(100000), StockQuantity: 5, Active: true})
	return app
}

func do(t *testing.T, app *App, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	app.GetServer().ServeHTTP(w, req)
	return w
}

func checkoutBody(method string) string {
	return `{"buyer_id":"buyer-1","items":[{"book_id":"b1","quantity":2}],` +
		`"shipping":{"recipient_name":"Nguyen Van A","recipient_phone":"0901234567","detail":"12 Ly Thuong Kiet","province":"Ha Noi"},` +
		`"payment_method":"` + method + `"}`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func TestApp_HealthWithInMemoryPersistence(t *testing.T) {
	app := buildApp(t, NewBuilder(testConfig(t)))

	w := do(t, app, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestApp_CODCheckout(t *testing.T) {
	app := buildApp(t, NewBuilder(testConfig(t)))

	w := do(t, app, http.MethodPost, "/api/v1/checkout", checkoutBody("COD"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var res struct {
		CustomerOrderID string `json:"customer_order_id"`
		FinalTotal      int64  `json:"final_total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.NotEmpty(t, res.CustomerOrderID)
	assert.Equal(t, int64(230000), res.FinalTotal)

	books := app.Components().Books.(*mocks.MockBookRepository)
	assert.Equal(t, 3, books.Stock("b1"))
}

func TestApp_OnlinePaymentDisabled(t *testing.T) {
	app := buildApp(t, NewBuilder(testConfig(t)))

	w := do(t, app, http.MethodPost, "/api/v1/checkout", checkoutBody("VNPAY"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, app, http.MethodGet, "/api/v1/payments/vnpay/ipn", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestApp_VNPayCheckoutSettledByIPN(t *testing.T) {
	app := buildApp(t, NewBuilder(testConfig(t)).WithGateway(mocks.NewMockGateway()))

	w := do(t, app, http.MethodPost, "/api/v1/checkout", checkoutBody("VNPAY"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var res struct {
		PaymentURL string `json:"payment_url"`
		TxnRef     string `json:"txn_ref"`
		FinalTotal int64  `json:"final_total"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotEmpty(t, res.TxnRef)
	assert.Contains(t, res.PaymentURL, res.TxnRef)

	query := url.Values{}
	for k, v := range mocks.CallbackParams(res.TxnRef, res.FinalTotal, "00") {
		query.Set(k, v)
	}
	target := "/api/v1/payments/vnpay/ipn?" + query.Encode()

	var ack struct {
		RspCode string `json:"RspCode"`
	}
	w = do(t, app, http.MethodGet, target, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, "00", ack.RspCode)

	w = do(t, app, http.MethodGet, target, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, "02", ack.RspCode)

	books := app.Components().Books.(*mocks.MockBookRepository)
	assert.Equal(t, 3, books.Stock("b1"))
}
