package promotion

import (
	"context"
	"net/http"

	"bookstore/api/ctxutil"
	"bookstore/api/response"
	apppromotion "bookstore/application/promotion"

	"github.com/gin-gonic/gin"
)

type Previewer interface {
	Preview(ctx context.Context, req apppromotion.PreviewRequest) (*apppromotion.PreviewResponse, error)
}

// Controller Promotion controller
type Controller struct {
	promotions Previewer
}

func NewController(promotions Previewer) *Controller {
	return &Controller{promotions: promotions}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/promotions/validate", c.Validate)
}

// Validate previews a code against a cart total. An inapplicable code is
// answered with valid=false and the reason, not an error status.
// POST /api/v1/promotions/validate
func (c *Controller) Validate(ctx *gin.Context) {
	var req apppromotion.PreviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.HandleError(ctx, err, "invalid promotion request", http.StatusBadRequest)
		return
	}

	res, err := c.promotions.Preview(ctxutil.WithRequestID(ctx), req)
	if err != nil {
		response.HandleAppError(ctx, err)
		return
	}
	response.HandleSuccess(ctx, res, "promotion evaluated")
}
