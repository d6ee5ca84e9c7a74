package api

import (
	"bookstore/api/checkout"
	"bookstore/api/health"
	"bookstore/api/middleware"
	"bookstore/api/order"
	"bookstore/api/payment"
	"bookstore/api/promotion"
	"bookstore/api/wallet"
	"bookstore/config"
	"bookstore/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Controllers groups everything the router mounts under /api/v1.
type Controllers struct {
	Health    *health.Controller
	Checkout  *checkout.Controller
	Payment   *payment.Controller
	Order     *order.Controller
	Promotion *promotion.Controller
	Wallet    *wallet.Controller
}

// Router Route configuration
type Router struct {
	engine      *gin.Engine
	config      *config.Config
	controllers Controllers
}

// NewRouter builds the engine with its middleware chain. reg receives the
// HTTP collectors; pass nil to skip request metrics.
func NewRouter(cfg *config.Config, controllers Controllers, reg prometheus.Registerer) *Router {
	switch {
	case cfg.IsDevelopment():
		gin.SetMode(gin.DebugMode)
	case cfg.App.Env == "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// order matters: the request id must exist before anything logs
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.RecoveryMiddleware())
	engine.Use(middleware.LoggingMiddleware())
	if cfg.Metrics.Enabled && reg != nil {
		engine.Use(middleware.MetricsMiddleware(metrics.NewServerMetrics("api", reg)))
	}
	engine.Use(middleware.CORSMiddleware(&cfg.CORS))
	engine.Use(middleware.RateLimitMiddleware(&cfg.Server.RateLimit))

	return &Router{
		engine:      engine,
		config:      cfg,
		controllers: controllers,
	}
}

// SetupRoutes mounts every controller. Nil controllers are skipped, so a
// deployment without the gateway simply has no payment routes.
func (r *Router) SetupRoutes() {
	apiGroup := r.engine.Group("/api/v1")
	{
		if c := r.controllers.Health; c != nil {
			c.RegisterRoutes(apiGroup)
		}
		if c := r.controllers.Checkout; c != nil {
			c.RegisterRoutes(apiGroup)
		}
		if c := r.controllers.Payment; c != nil {
			c.RegisterRoutes(apiGroup)
		}
		if c := r.controllers.Order; c != nil {
			c.RegisterRoutes(apiGroup)
		}
		if c := r.controllers.Promotion; c != nil {
			c.RegisterRoutes(apiGroup)
		}
		if c := r.controllers.Wallet; c != nil {
			c.RegisterRoutes(apiGroup)
		}
	}

	if r.config.Metrics.Enabled {
		r.engine.GET(r.config.Metrics.Path, gin.WrapH(metrics.Handler()))
	}

	r.engine.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":    r.config.App.Name,
			"version": r.config.App.Version,
			"env":     r.config.App.Env,
			"health":  "/api/v1/health",
		})
	})
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
