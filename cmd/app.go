package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"bookstore/api"
	"bookstore/config"
	"bookstore/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// App is the HTTP server with the service graph behind it.
type App struct {
	config     *config.Config
	router     *api.Router
	server     *http.Server
	components *Components
}

// Run serves until ctx is cancelled, then drains in-flight requests for
// at most Server.ShutdownTimeout.
//
// With in-memory persistence the sweepers run inside the server, since a
// separate worker process could not see the same data.
func (a *App) Run(ctx context.Context) error {
	defer a.components.Close()

	var background []func(context.Context) error
	if a.components.DB == nil {
		sweepers, err := a.sweepers()
		if err != nil {
			return err
		}
		background = sweepers
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, run := range background {
		g.Go(func() error { return ignoreCanceled(run(ctx)) })
	}

	g.Go(func() error {
		logger.Info("Server starting", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		logger.Info("Server stopped")
		return nil
	})

	return g.Wait()
}

func (a *App) sweepers() ([]func(context.Context) error, error) {
	inventorySweeper, err := a.components.InventorySweeper(a.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create inventory sweeper: %w", err)
	}
	paymentSweeper, err := a.components.PaymentSweeper(a.config)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment sweeper: %w", err)
	}
	return []func(context.Context) error{inventorySweeper.Run, paymentSweeper.Run}, nil
}

// Components exposes the service graph, mainly for tests and seeding.
func (a *App) Components() *Components {
	return a.components
}

// GetServer returns the gin engine (used by tests).
func (a *App) GetServer() *gin.Engine {
	return a.router.GetEngine()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
