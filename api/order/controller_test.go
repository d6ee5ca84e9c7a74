package order

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	orderapp "bookstore/application/order"
	"bookstore/domain/customerorder"
	domainorder "bookstore/domain/order"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	err        error
	cancelReq  orderapp.CancelCustomerOrderRequest
	updateReq  orderapp.UpdateOrderStatusRequest
	listReq    orderapp.ListCustomerOrdersRequest
	getBuyerID string
}

func (f *fakeService) UpdateOrderStatus(_ context.Context, req orderapp.UpdateOrderStatusRequest) (*orderapp.CustomerOrderResponse, error) {
	f.updateReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &orderapp.CustomerOrderResponse{ID: "co-1", Status: req.Status}, nil
}

func (f *fakeService) CancelCustomerOrder(_ context.Context, req orderapp.CancelCustomerOrderRequest) (*orderapp.CustomerOrderResponse, error) {
	f.cancelReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &orderapp.CustomerOrderResponse{ID: req.CustomerOrderID, Status: "CANCELLED"}, nil
}

func (f *fakeService) GetCustomerOrder(_ context.Context, id, buyerID string) (*orderapp.CustomerOrderResponse, error) {
	f.getBuyerID = buyerID
	if f.err != nil {
		return nil, f.err
	}
	return &orderapp.CustomerOrderResponse{ID: id}, nil
}

func (f *fakeService) ListCustomerOrders(_ context.Context, req orderapp.ListCustomerOrdersRequest) ([]*orderapp.CustomerOrderResponse, error) {
	f.listReq = req
	return nil, f.err
}

func (f *fakeService) GetOrder(_ context.Context, orderID string) (*orderapp.OrderResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &orderapp.OrderResponse{ID: orderID}, nil
}

func (f *fakeService) ListSellerOrders(context.Context, string) ([]orderapp.OrderResponse, error) {
	return nil, f.err
}

func serve(t *testing.T, svc *fakeService, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	NewController(svc).RegisterRoutes(engine.Group("/api/v1"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	return w
}

func TestCancelCustomerOrder(t *testing.T) {
	svc := &fakeService{}
	w := serve(t, svc, http.MethodPost, "/api/v1/customer-orders/co-9/cancel", `{"buyer_id":"buyer-1","reason":"changed my mind"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "co-9", svc.cancelReq.CustomerOrderID)
	assert.Equal(t, "buyer-1", svc.cancelReq.BuyerID)
	assert.Contains(t, w.Body.String(), `"status":"CANCELLED"`)
}

func TestCancelCustomerOrder_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", customerorder.NewCustomerOrderNotFoundError("co-9"), http.StatusNotFound, "ORDER_NOT_FOUND"},
		{"other buyer", customerorder.NewNotOwnerError("co-9"), http.StatusForbidden, "NOT_OWNER"},
		{"already shipped", customerorder.NewCannotCancelError("co-9", "SHIPPED"), http.StatusUnprocessableEntity, "CANNOT_CANCEL"},
		{"lost race", customerorder.NewConcurrentModificationError("co-9"), http.StatusConflict, "CONCURRENT_MODIFICATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, &fakeService{err: tt.err}, http.MethodPost, "/api/v1/customer-orders/co-9/cancel", `{"buyer_id":"buyer-1"}`)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestCancelCustomerOrder_RequiresBuyer(t *testing.T) {
	w := serve(t, &fakeService{}, http.MethodPost, "/api/v1/customer-orders/co-9/cancel", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
}

func TestUpdateOrderStatus(t *testing.T) {
	svc := &fakeService{}
	w := serve(t, svc, http.MethodPut, "/api/v1/orders/o-1/status", `{"status":"SHIPPED"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "o-1", svc.updateReq.OrderID)
	assert.Equal(t, "SHIPPED", svc.updateReq.Status)

	w = serve(t, svc, http.MethodPut, "/api/v1/orders/o-1/status", `{"status":"LOST"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.err = domainorder.NewInvalidOrderStateError("DELIVERED", "CANCELLED")
	w = serve(t, svc, http.MethodPut, "/api/v1/orders/o-1/status", `{"status":"CANCELLED"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_ORDER_STATE")
}

func TestListCustomerOrders_BindsFilters(t *testing.T) {
	svc := &fakeService{}
	w := serve(t, svc, http.MethodGet, "/api/v1/customer-orders?buyer_id=buyer-1&status=PROCESSING&from=2026-01-01&to=2026-02-01", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "buyer-1", svc.listReq.BuyerID)
	assert.Equal(t, "PROCESSING", svc.listReq.Status)
	assert.Equal(t, 2026, svc.listReq.From.Year())
	assert.Equal(t, 2, int(svc.listReq.To.Month()))

	w = serve(t, svc, http.MethodGet, "/api/v1/customer-orders", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCustomerOrder_PassesBuyer(t *testing.T) {
	svc := &fakeService{}
	w := serve(t, svc, http.MethodGet, "/api/v1/customer-orders/co-1?buyer_id=buyer-1", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "buyer-1", svc.getBuyerID)
}
