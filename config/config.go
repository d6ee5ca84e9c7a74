package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config Application Configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Payment   PaymentConfig   `mapstructure:"payment"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Messaging MessagingConfig `mapstructure:"messaging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig Application Configuration
type AppConfig struct {
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`
	Env     string `mapstructure:"env" validate:"oneof=development staging production test"`
}

// ServerConfig Server Configuration
type ServerConfig struct {
	Port            string          `mapstructure:"port" validate:"required"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" validate:"gt=0"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig Rate Limiting Configuration
type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	Rate    float64 `mapstructure:"rate" validate:"required_if=Enabled true,gte=0"` // Requests per second
	Burst   int     `mapstructure:"burst" validate:"required_if=Enabled true,gte=0"`
}

// DatabaseConfig Database Configuration
type DatabaseConfig struct {
	Type            string        `mapstructure:"type" validate:"oneof=mysql mock"`
	Host            string        `mapstructure:"host" validate:"required_if=Type mysql"`
	Port            string        `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database" validate:"required_if=Type mysql"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level" validate:"omitempty,oneof=silent error warn info"`
	SlowQuery       time.Duration `mapstructure:"slow_query"` // statements slower than this log at warn
	Migrate         bool          `mapstructure:"migrate"`    // apply embedded migrations at startup
	Retry           RetryConfig   `mapstructure:"retry"`
}

// RetryConfig Retry configuration for deadlocks, lock wait timeouts and
// optimistic concurrency conflicts
type RetryConfig struct {
	Enabled                       bool          `mapstructure:"enabled"`
	MaxAttempts                   int           `mapstructure:"max_attempts" validate:"required_if=Enabled true,gte=0"`
	InitialDelay                  time.Duration `mapstructure:"initial_delay"`
	MaxDelay                      time.Duration `mapstructure:"max_delay"`
	BackoffFactor                 float64       `mapstructure:"backoff_factor"`
	JitterEnabled                 bool          `mapstructure:"jitter_enabled"`
	RetryOnConcurrentModification bool          `mapstructure:"retry_on_concurrent_modification"`
	RetryOnDeadlock               bool          `mapstructure:"retry_on_deadlock"`
	RetryOnLockTimeout            bool          `mapstructure:"retry_on_lock_timeout"`
}

// LogConfig Log Configuration
type LogConfig struct {
	Level    string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format   string `mapstructure:"format" validate:"oneof=json console"`
	Output   string `mapstructure:"output" validate:"oneof=stdout file"`
	FilePath string `mapstructure:"file_path" validate:"required_if=Output file"`

	// rotation, only used with file output
	MaxSizeMB  int  `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int  `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int  `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool `mapstructure:"compress"`
}

// CORSConfig CORS Configuration
type CORSConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// WorkerConfig Outbox relay configuration
type WorkerConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
	BatchSize    int           `mapstructure:"batch_size" validate:"gt=0"`
	MaxRetries   int           `mapstructure:"max_retries" validate:"gt=0"`
}

// InventoryConfig Stock reservation configuration
type InventoryConfig struct {
	ReservationTTL time.Duration `mapstructure:"reservation_ttl" validate:"gt=0"` // hold for COD checkouts
	SweepInterval  time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	SweepBatch     int           `mapstructure:"sweep_batch" validate:"gt=0"`
}

// PaymentConfig Payment reservation and gateway configuration
type PaymentConfig struct {
	ReservationTTL time.Duration `mapstructure:"reservation_ttl" validate:"gt=0"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
	SweepBatch     int           `mapstructure:"sweep_batch" validate:"gt=0"`
	ShippingFee    int64         `mapstructure:"shipping_fee" validate:"gte=0"` // đồng per seller order
	Currency       string        `mapstructure:"currency" validate:"eq=VND"`
	SuccessURL     string        `mapstructure:"success_url"` // browser lands here after a settled payment
	FailureURL     string        `mapstructure:"failure_url"`
	VNPay          VNPayConfig   `mapstructure:"vnpay"`
}

// VNPayConfig VNPay merchant configuration
type VNPayConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	TmnCode         string        `mapstructure:"tmn_code" validate:"required_if=Enabled true"`
	HashSecret      string        `mapstructure:"hash_secret" validate:"required_if=Enabled true"`
	PayURL          string        `mapstructure:"pay_url" validate:"required_if=Enabled true"`
	APIURL          string        `mapstructure:"api_url" validate:"omitempty,url"`
	ReturnURL       string        `mapstructure:"return_url" validate:"required_if=Enabled true"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout" validate:"gt=0"`
	VerifyWithQuery bool          `mapstructure:"verify_with_query"`
}

// RedisConfig Redis configuration; an empty address keeps the reservation
// cache and callback lock in process.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// MessagingConfig Outbox publisher configuration
type MessagingConfig struct {
	Publisher     string   `mapstructure:"publisher" validate:"oneof=log kafka rabbitmq"`
	KafkaBrokers  []string `mapstructure:"kafka_brokers" validate:"required_if=Publisher kafka"`
	KafkaTopic    string   `mapstructure:"kafka_topic" validate:"required_if=Publisher kafka"`
	RabbitMQURL   string   `mapstructure:"rabbitmq_url" validate:"required_if=Publisher rabbitmq"`
	RabbitMQQueue string   `mapstructure:"rabbitmq_queue" validate:"required_if=Publisher rabbitmq"`
}

// MetricsConfig Prometheus configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// IsDevelopment Whether it's development environment
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction Whether it's production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load Load Configuration
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Configuration file settings
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Read environment variables, e.g. BOOKSTORE_PAYMENT_VNPAY_HASH_SECRET
	v.SetEnvPrefix("BOOKSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read configuration file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Use default values when config file doesn't exist
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults Set default configuration
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "bookstore")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.env", "development")

	// Server
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.rate", 100)
	v.SetDefault("server.rate_limit.burst", 200)

	// Database
	v.SetDefault("database.type", "mock")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "bookstore")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query", "200ms")
	v.SetDefault("database.migrate", true)

	// Retry configuration defaults
	v.SetDefault("database.retry.enabled", true)
	v.SetDefault("database.retry.max_attempts", 3)
	v.SetDefault("database.retry.initial_delay", "100ms")
	v.SetDefault("database.retry.max_delay", "2s")
	v.SetDefault("database.retry.backoff_factor", 2.0)
	v.SetDefault("database.retry.jitter_enabled", true)
	v.SetDefault("database.retry.retry_on_concurrent_modification", false)
	v.SetDefault("database.retry.retry_on_deadlock", true)
	v.SetDefault("database.retry.retry_on_lock_timeout", true)

	// Log
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file_path", "logs/app.log")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", true)

	// CORS
	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.allow_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allow_headers", []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 86400)

	// Outbox relay
	v.SetDefault("worker.poll_interval", "1s")
	v.SetDefault("worker.batch_size", 100)
	v.SetDefault("worker.max_retries", 5)

	// Inventory
	v.SetDefault("inventory.reservation_ttl", "15m")
	v.SetDefault("inventory.sweep_interval", "1m")
	v.SetDefault("inventory.sweep_batch", 100)

	// Payment
	v.SetDefault("payment.reservation_ttl", "15m")
	v.SetDefault("payment.sweep_interval", "1m")
	v.SetDefault("payment.sweep_batch", 100)
	v.SetDefault("payment.shipping_fee", 30000)
	v.SetDefault("payment.currency", "VND")
	v.SetDefault("payment.success_url", "http://localhost:3000/checkout/success")
	v.SetDefault("payment.failure_url", "http://localhost:3000/checkout/failure")
	v.SetDefault("payment.vnpay.enabled", false)
	v.SetDefault("payment.vnpay.tmn_code", "")
	v.SetDefault("payment.vnpay.hash_secret", "")
	v.SetDefault("payment.vnpay.pay_url", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html")
	v.SetDefault("payment.vnpay.api_url", "https://sandbox.vnpayment.vn/merchant_webapi/api/transaction")
	v.SetDefault("payment.vnpay.return_url", "http://localhost:8080/api/v1/payments/vnpay/return")
	v.SetDefault("payment.vnpay.query_timeout", "10s")
	v.SetDefault("payment.vnpay.verify_with_query", true)

	// Redis
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Messaging
	v.SetDefault("messaging.publisher", "log")
	v.SetDefault("messaging.kafka_brokers", []string{})
	v.SetDefault("messaging.kafka_topic", "bookstore.events")
	v.SetDefault("messaging.rabbitmq_url", "")
	v.SetDefault("messaging.rabbitmq_queue", "bookstore.events")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
