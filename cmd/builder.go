package cmd

import (
	"context"
	"fmt"
	"net/http"

	"bookstore/api"
	apicheckout "bookstore/api/checkout"
	"bookstore/api/health"
	apiorder "bookstore/api/order"
	apipayment "bookstore/api/payment"
	apipromotion "bookstore/api/promotion"
	apiwallet "bookstore/api/wallet"
	appcheckout "bookstore/application/checkout"
	appinventory "bookstore/application/inventory"
	apporder "bookstore/application/order"
	apppayment "bookstore/application/payment"
	apppromotion "bookstore/application/promotion"
	appwallet "bookstore/application/wallet"
	"bookstore/config"
	"bookstore/domain/address"
	"bookstore/domain/customerorder"
	"bookstore/domain/inventory"
	"bookstore/domain/order"
	"bookstore/domain/payment"
	"bookstore/domain/promotion"
	"bookstore/domain/shared"
	"bookstore/domain/wallet"
	"bookstore/infrastructure/cache"
	"bookstore/infrastructure/gateway/vnpay"
	"bookstore/infrastructure/persistence/mocks"
	"bookstore/infrastructure/persistence/mysql"
	"bookstore/infrastructure/persistence/retry"
	"bookstore/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Components is the wired service graph. The HTTP server and the worker
// build the same graph and use different parts of it.
type Components struct {
	DB    *gorm.DB              // nil with mock persistence
	Redis redis.UniversalClient // nil without redis

	UoWFactory            shared.UnitOfWorkFactory
	Books                 inventory.BookRepository
	InventoryReservations inventory.ReservationRepository
	PaymentReservations   payment.Repository
	CustomerOrders        customerorder.Repository
	Orders                order.Repository
	Promotions            promotion.Repository
	Wallets               wallet.Repository
	Addresses             address.Repository
	ReservationCache      inventory.ReservationCache
	Locker                apppayment.CallbackLocker
	Gateway               payment.Gateway // nil when online payment is off

	Ledger       *appinventory.Ledger
	PromotionSvc *apppromotion.Service
	WalletSvc    *appwallet.Service
	PaymentStore *apppayment.Store
	Reconciler   *apppayment.Reconciler
	CheckoutSvc  *appcheckout.Service
	OrderSvc     *apporder.Service
	OutboxStore  mysql.OutboxStore // nil with mock persistence
	closers      []func() error
}

// Close releases connections opened while building.
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			logger.Warn("Failed to close component", zap.Error(err))
		}
	}
}

// InventorySweeper returns the sweeper for expired stock holds.
func (c *Components) InventorySweeper(cfg *config.Config) (*appinventory.Sweeper, error) {
	return appinventory.NewSweeper(c.Ledger, c.InventoryReservations, c.ReservationCache,
		cfg.Inventory.SweepInterval, cfg.Inventory.SweepBatch)
}

// PaymentSweeper returns the sweeper for unpaid payment reservations.
func (c *Components) PaymentSweeper(cfg *config.Config) (*apppayment.Sweeper, error) {
	return apppayment.NewSweeper(c.PaymentStore, c.PaymentReservations, c.Ledger, c.UoWFactory,
		cfg.Payment.SweepInterval, cfg.Payment.SweepBatch)
}

// AppBuilder builds an App with customizable components
type AppBuilder struct {
	cfg        *config.Config
	registerer prometheus.Registerer
	gateway    payment.Gateway
	redis      redis.UniversalClient
}

// NewBuilder creates a new AppBuilder
func NewBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{
		cfg:        cfg,
		registerer: prometheus.DefaultRegisterer,
	}
}

// WithRegisterer sends the HTTP collectors to reg instead of the default
// registry. nil disables request metrics.
func (b *AppBuilder) WithRegisterer(reg prometheus.Registerer) *AppBuilder {
	b.registerer = reg
	return b
}

// WithGateway replaces the gateway built from config.
func (b *AppBuilder) WithGateway(gw payment.Gateway) *AppBuilder {
	b.gateway = gw
	return b
}

// WithRedis replaces the client built from config.
func (b *AppBuilder) WithRedis(client redis.UniversalClient) *AppBuilder {
	b.redis = client
	return b
}

// Components wires repositories and services without the HTTP layer.
func (b *AppBuilder) Components() (*Components, error) {
	c := &Components{}

	if err := b.initPersistence(c); err != nil {
		c.Close()
		return nil, err
	}
	b.initCache(c)
	if err := b.initGateway(c); err != nil {
		c.Close()
		return nil, err
	}

	cfg := b.cfg
	c.Ledger = appinventory.NewLedger(c.Books, c.InventoryReservations, c.ReservationCache, c.UoWFactory)
	c.PromotionSvc = apppromotion.NewService(c.Promotions, c.UoWFactory)
	c.WalletSvc = appwallet.NewService(c.Wallets, c.UoWFactory)
	c.PaymentStore = apppayment.NewStore(c.PaymentReservations, c.UoWFactory, cfg.Payment.ReservationTTL)
	c.CheckoutSvc = appcheckout.NewService(
		c.Books, c.Addresses, c.CustomerOrders, c.Ledger, c.PromotionSvc,
		c.PaymentStore, c.Gateway, c.UoWFactory,
		appcheckout.Config{
			ShippingFee:   shared.VND(cfg.Payment.ShippingFee),
			InventoryHold: cfg.Inventory.ReservationTTL,
		},
	)
	c.OrderSvc = apporder.NewService(c.CustomerOrders, c.Orders, c.Ledger,
		apporder.NewWalletRefunder(c.WalletSvc), c.UoWFactory)

	if c.Gateway != nil {
		c.Reconciler = apppayment.NewReconciler(
			c.Gateway, c.PaymentStore, c.Ledger, c.PromotionSvc, c.CustomerOrders,
			c.Locker, c.UoWFactory,
			apppayment.ReconcilerConfig{
				VerifyWithQuery: cfg.Payment.VNPay.VerifyWithQuery,
				QueryTimeout:    cfg.Payment.VNPay.QueryTimeout,
			},
		)
	}

	return c, nil
}

// Build creates the App instance
func (b *AppBuilder) Build() (*App, error) {
	logger.Info("Starting application",
		zap.String("app", b.cfg.App.Name),
		zap.String("version", b.cfg.App.Version),
		zap.String("env", b.cfg.App.Env))

	c, err := b.Components()
	if err != nil {
		return nil, err
	}

	controllers := api.Controllers{
		Health:    health.NewController(b.cfg, b.healthDeps(c)),
		Checkout:  apicheckout.NewController(c.CheckoutSvc),
		Order:     apiorder.NewController(c.OrderSvc),
		Promotion: apipromotion.NewController(c.PromotionSvc),
		Wallet:    apiwallet.NewController(c.WalletSvc),
	}
	if c.Reconciler != nil {
		controllers.Payment = apipayment.NewController(c.Reconciler, c.PaymentStore, apipayment.RedirectConfig{
			SuccessURL: b.cfg.Payment.SuccessURL,
			FailureURL: b.cfg.Payment.FailureURL,
		})
	}

	router := api.NewRouter(b.cfg, controllers, b.registerer)
	router.SetupRoutes()

	server := &http.Server{
		Addr:         ":" + b.cfg.Server.Port,
		Handler:      router.GetEngine(),
		ReadTimeout:  b.cfg.Server.ReadTimeout,
		WriteTimeout: b.cfg.Server.WriteTimeout,
	}

	return &App{
		config:     b.cfg,
		router:     router,
		server:     server,
		components: c,
	}, nil
}

func (b *AppBuilder) initPersistence(c *Components) error {
	if b.cfg.Database.Type == "mock" {
		logger.Info("Using in-memory persistence layer")
		customerOrders := mocks.NewMockCustomerOrderRepository()
		c.UoWFactory = mocks.NewMockUnitOfWorkFactory()
		c.Books = mocks.NewMockBookRepository()
		c.InventoryReservations = mocks.NewMockInventoryReservationRepository()
		c.PaymentReservations = mocks.NewMockPaymentReservationRepository()
		c.CustomerOrders = customerOrders
		c.Orders = customerOrders.Orders()
		c.Promotions = mocks.NewMockPromotionRepository()
		c.Wallets = mocks.NewMockWalletRepository()
		c.Addresses = mocks.NewMockAddressRepository()
		return nil
	}

	logger.Info("Using MySQL/GORM persistence layer")

	mysqlConfig := mysql.NewConfig(b.cfg.Database)
	if b.cfg.Database.Migrate {
		if err := mysqlConfig.Migrate(); err != nil {
			return fmt.Errorf("failed to migrate MySQL: %w", err)
		}
	}

	db, err := mysqlConfig.Connect()
	if err != nil {
		return fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	c.closers = append(c.closers, sqlDB.Close)

	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.Server.ReadTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping MySQL: %w", err)
	}
	logger.Info("Connected to MySQL successfully")

	c.DB = db
	c.UoWFactory = mysql.NewUnitOfWorkFactory(db, retry.FromAppConfig(b.cfg))
	c.Books = mysql.NewBookRepository(db)
	c.InventoryReservations = mysql.NewInventoryReservationRepository(db)
	c.PaymentReservations = mysql.NewPaymentReservationRepository(db)
	c.CustomerOrders = mysql.NewCustomerOrderRepository(db)
	c.Orders = mysql.NewOrderRepository(db)
	c.Promotions = mysql.NewPromotionRepository(db)
	c.Wallets = mysql.NewWalletRepository(db)
	c.Addresses = mysql.NewAddressRepository(db)
	c.OutboxStore = mysql.NewOutboxRepository(db)
	return nil
}

// initCache picks redis when an address is configured and falls back to
// process-local structures otherwise. The memory locker only serialises
// callbacks within one instance.
func (b *AppBuilder) initCache(c *Components) {
	client := b.redis
	if client == nil && b.cfg.Redis.Addr != "" {
		client = redis.NewClient(&redis.Options{
			Addr:     b.cfg.Redis.Addr,
			Password: b.cfg.Redis.Password,
			DB:       b.cfg.Redis.DB,
		})
		c.closers = append(c.closers, client.Close)
	}

	if client == nil {
		logger.Info("Redis not configured; using in-memory reservation cache and callback locks")
		c.ReservationCache = cache.NewMemoryReservationCache()
		c.Locker = cache.NewMemoryLocker()
		return
	}

	c.Redis = client
	c.ReservationCache = cache.NewRedisReservationCache(client)
	c.Locker = cache.NewRedisLocker(client)
}

func (b *AppBuilder) initGateway(c *Components) error {
	if b.gateway != nil {
		c.Gateway = b.gateway
		return nil
	}

	vc := b.cfg.Payment.VNPay
	if !vc.Enabled {
		logger.Info("VNPay disabled; online checkout is unavailable")
		return nil
	}

	gw, err := vnpay.NewGateway(vnpay.Config{
		TmnCode:      vc.TmnCode,
		HashSecret:   vc.HashSecret,
		PayURL:       vc.PayURL,
		APIURL:       vc.APIURL,
		ReturnURL:    vc.ReturnURL,
		QueryTimeout: vc.QueryTimeout,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to create vnpay gateway: %w", err)
	}
	c.Gateway = gw
	return nil
}

func (b *AppBuilder) healthDeps(c *Components) map[string]health.Pinger {
	deps := make(map[string]health.Pinger)
	if c.DB != nil {
		if sqlDB, err := c.DB.DB(); err == nil {
			deps["mysql"] = sqlDB
		}
	}
	if c.Redis != nil {
		client := c.Redis
		deps["redis"] = health.PingerFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return deps
}
