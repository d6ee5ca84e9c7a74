package ctxutil

import (
	"context"

	"bookstore/api/response"
	"bookstore/infrastructure/persistence"

	"github.com/gin-gonic/gin"
)

// WithRequestID returns the request context tagged with the gin request id.
func WithRequestID(ctx *gin.Context) context.Context {
	return persistence.ContextWithRequestID(ctx.Request.Context(), response.GetRequestID(ctx))
}

func RequestIDFromContext(ctx context.Context) string {
	return persistence.RequestIDFromContext(ctx)
}
