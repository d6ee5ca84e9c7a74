package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"bookstore/cmd"
	"bookstore/config"
	"bookstore/infrastructure/messaging"
	"bookstore/infrastructure/persistence/mysql"
	"bookstore/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("Worker startup failed: %v\n", err)
		os.Exit(1)
	}
}

// run relays the outbox and sweeps expired reservations. The HTTP server
// does the sweeping itself when persistence is in memory, so the worker
// only makes sense against MySQL.
func run() error {
	configPath := parseConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Log, &cfg.App); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if cfg.Database.Type != "mysql" {
		return errors.New("the worker requires database.type=mysql")
	}

	components, err := cmd.NewBuilder(cfg).Components()
	if err != nil {
		return err
	}
	defer components.Close()

	publisher, err := messaging.NewPublisher(messaging.Config{
		Kind:          messaging.Kind(cfg.Messaging.Publisher),
		KafkaBrokers:  cfg.Messaging.KafkaBrokers,
		KafkaTopic:    cfg.Messaging.KafkaTopic,
		RabbitMQURL:   cfg.Messaging.RabbitMQURL,
		RabbitMQQueue: cfg.Messaging.RabbitMQQueue,
	})
	if err != nil {
		return fmt.Errorf("failed to create publisher: %w", err)
	}
	defer publisher.Close()

	worker, err := mysql.NewOutboxWorker(
		components.OutboxStore,
		publisher,
		cfg.Worker.PollInterval,
		cfg.Worker.BatchSize,
		cfg.Worker.MaxRetries,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox worker: %w", err)
	}
	inventorySweeper, err := components.InventorySweeper(cfg)
	if err != nil {
		return fmt.Errorf("failed to create inventory sweeper: %w", err)
	}
	paymentSweeper, err := components.PaymentSweeper(cfg)
	if err != nil {
		return fmt.Errorf("failed to create payment sweeper: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Worker started",
		zap.String("publisher", cfg.Messaging.Publisher),
		zap.Duration("poll_interval", cfg.Worker.PollInterval),
		zap.Int("batch_size", cfg.Worker.BatchSize),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Duration("inventory_sweep_interval", cfg.Inventory.SweepInterval),
		zap.Duration("payment_sweep_interval", cfg.Payment.SweepInterval),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(ctx) })
	g.Go(func() error { return inventorySweeper.Run(ctx) })
	g.Go(func() error { return paymentSweeper.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker exited with error: %w", err)
	}

	logger.Info("Worker stopped")
	return nil
}

func parseConfigPath() string {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()
	return configPath
}
