package wallet

import (
	"context"

	"bookstore/api/ctxutil"
	"bookstore/api/response"
	appwallet "bookstore/application/wallet"

	"github.com/gin-gonic/gin"
)

type BalanceReader interface {
	Balance(ctx context.Context, buyerID string) (*appwallet.BalanceResponse, error)
}

// Controller Wallet controller
type Controller struct {
	wallets BalanceReader
}

func NewController(wallets BalanceReader) *Controller {
	return &Controller{wallets: wallets}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/wallets/:buyerId/balance", c.Balance)
}

// Balance GET /api/v1/wallets/:buyerId/balance
func (c *Controller) Balance(ctx *gin.Context) {
	res, err := c.wallets.Balance(ctxutil.WithRequestID(ctx), ctx.Param("buyerId"))
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, res, "wallet balance retrieved")
}
