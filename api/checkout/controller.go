// Package checkout exposes the checkout orchestrator over HTTP.
package checkout

import (
	"context"
	"net/http"

	"bookstore/api/ctxutil"
	"bookstore/api/response"
	checkoutapp "bookstore/application/checkout"

	"github.com/gin-gonic/gin"
)

// Checkouter is the part of the checkout service the controller needs.
type Checkouter interface {
	Checkout(ctx context.Context, req checkoutapp.Request) (*checkoutapp.Response, error)
}

// Controller Checkout controller
type Controller struct {
	checkout Checkouter
}

func NewController(checkout Checkouter) *Controller {
	return &Controller{checkout: checkout}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/checkout", c.Checkout)
}

// Checkout places a cash-on-delivery order or opens a gateway payment.
// POST /api/v1/checkout
//
// COD answers 201 with the customer order. VNPAY answers 200 with the
// payment URL the browser must be sent to; no order exists yet.
func (c *Controller) Checkout(ctx *gin.Context) {
	var req checkoutapp.Request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid checkout request", http.StatusBadRequest)
		return
	}
	req.ClientIP = ctx.ClientIP()

	res, err := c.checkout.Checkout(ctxutil.WithRequestID(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}

	if res.PaymentURL != "" {
		response.HandleSuccess(ctx, res, "redirect to payment gateway")
		return
	}
	response.HandleCreated(ctx, res, "order placed")
}
