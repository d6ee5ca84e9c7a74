/*
Package order exposes customer orders and per-seller orders over HTTP.

Binding failures answer 400 through response.HandleError; everything the
service returns goes through response.HandleAppError, which maps domain
sentinels to status codes:

	Repository: customerorder.ErrCustomerOrderNotFound
	     ↓
	Service passes it through
	     ↓
	HandleAppError: FromDomainError → ORDER_NOT_FOUND → 404
*/
package order

import (
	"context"
	"net/http"

	"bookstore/api/ctxutil"
	"bookstore/api/response"
	orderapp "bookstore/application/order"

	"github.com/gin-gonic/gin"
)

// Service is the part of the order application service the controller uses.
type Service interface {
	UpdateOrderStatus(ctx context.Context, req orderapp.UpdateOrderStatusRequest) (*orderapp.CustomerOrderResponse, error)
	CancelCustomerOrder(ctx context.Context, req orderapp.CancelCustomerOrderRequest) (*orderapp.CustomerOrderResponse, error)
	GetCustomerOrder(ctx context.Context, id, buyerID string) (*orderapp.CustomerOrderResponse, error)
	ListCustomerOrders(ctx context.Context, req orderapp.ListCustomerOrdersRequest) ([]*orderapp.CustomerOrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*orderapp.OrderResponse, error)
	ListSellerOrders(ctx context.Context, sellerID string) ([]orderapp.OrderResponse, error)
}

// Controller Order controller
type Controller struct {
	orders Service
}

func NewController(orders Service) *Controller {
	return &Controller{orders: orders}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	customerOrders := router.Group("/customer-orders")
	{
		customerOrders.GET("", c.ListCustomerOrders)
		customerOrders.GET("/:id", c.GetCustomerOrder)
		customerOrders.POST("/:id/cancel", c.CancelCustomerOrder)
	}

	orders := router.Group("/orders")
	{
		orders.GET("/:id", c.GetOrder)
		orders.PUT("/:id/status", c.UpdateOrderStatus)
	}

	router.GET("/sellers/:sellerId/orders", c.ListSellerOrders)
}

// ListCustomerOrders GET /api/v1/customer-orders?buyer_id=&status=&from=&to=
func (c *Controller) ListCustomerOrders(ctx *gin.Context) {
	var req orderapp.ListCustomerOrdersRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		response.HandleError(ctx, err, "invalid query parameters", http.StatusBadRequest)
		return
	}

	orders, err := c.orders.ListCustomerOrders(ctxutil.WithRequestID(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, orders, "customer orders retrieved")
}

// GetCustomerOrder GET /api/v1/customer-orders/:id?buyer_id=
func (c *Controller) GetCustomerOrder(ctx *gin.Context) {
	co, err := c.orders.GetCustomerOrder(ctxutil.WithRequestID(ctx), ctx.Param("id"), ctx.Query("buyer_id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, co, "customer order retrieved")
}

// CancelCustomerOrder cancels every cancellable sub-order, returns their
// stock and refunds a gateway payment to the buyer's wallet.
// POST /api/v1/customer-orders/:id/cancel
func (c *Controller) CancelCustomerOrder(ctx *gin.Context) {
	var req orderapp.CancelCustomerOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}
	req.CustomerOrderID = ctx.Param("id")

	co, err := c.orders.CancelCustomerOrder(ctxutil.WithRequestID(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, co, "customer order cancelled")
}

// GetOrder GET /api/v1/orders/:id
func (c *Controller) GetOrder(ctx *gin.Context) {
	o, err := c.orders.GetOrder(ctxutil.WithRequestID(ctx), ctx.Param("id"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, o, "order retrieved")
}

// UpdateOrderStatus moves one seller's order and answers with the parent
// customer order, whose status is re-derived.
// PUT /api/v1/orders/:id/status
func (c *Controller) UpdateOrderStatus(ctx *gin.Context) {
	var req orderapp.UpdateOrderStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid request parameters", http.StatusBadRequest)
		return
	}
	req.OrderID = ctx.Param("id")

	co, err := c.orders.UpdateOrderStatus(ctxutil.WithRequestID(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, co, "order status updated")
}

// ListSellerOrders GET /api/v1/sellers/:sellerId/orders
func (c *Controller) ListSellerOrders(ctx *gin.Context) {
	orders, err := c.orders.ListSellerOrders(ctxutil.WithRequestID(ctx), ctx.Param("sellerId"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, orders, "seller orders retrieved")
}
