package mysql

import (
	"fmt"
	"time"

	"bookstore/config"
	"bookstore/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Pool sizing used when the database section leaves a value unset. The
// checkout path holds a connection for the whole unit of work, so the
// idle pool stays close to the open limit.
const (
	DefaultMaxOpenConns    = 25
	DefaultMaxIdleConns    = 10
	DefaultConnMaxLifetime = 10 * time.Minute
	DefaultConnMaxIdleTime = 5 * time.Minute
)

// Config is what the MySQL store needs to open its pool and run migrations.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// LogLevel and SlowQuery feed the gorm statement log.
	LogLevel  string
	SlowQuery time.Duration
}

// NewConfig maps the application database settings.
func NewConfig(db config.DatabaseConfig) *Config {
	return &Config{
		Host:            db.Host,
		Port:            db.Port,
		Username:        db.Username,
		Password:        db.Password,
		Database:        db.Database,
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
		LogLevel:        db.LogLevel,
		SlowQuery:       db.SlowQuery,
	}
}

// DSN stores and reads times in UTC; reservation expiry compares against
// time.Now() on every instance.
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4&collation=utf8mb4_unicode_ci&readTimeout=10s&writeTimeout=10s",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = DefaultMaxOpenConns
	}
	if out.MaxIdleConns <= 0 {
		out.MaxIdleConns = DefaultMaxIdleConns
	}
	out.MaxIdleConns = min(out.MaxIdleConns, out.MaxOpenConns)
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = DefaultConnMaxLifetime
	}
	if out.ConnMaxIdleTime <= 0 {
		out.ConnMaxIdleTime = DefaultConnMaxIdleTime
	}
	return out
}

// Connect opens the gorm pool with statements logged through pkg/logger.
func (c *Config) Connect() (*gorm.DB, error) {
	cfg := c.withDefaults()

	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.NewGormLogger(logger.GormConfig{
			Level:         cfg.LogLevel,
			SlowThreshold: cfg.SlowQuery,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("Connected to MySQL",
		zap.String("addr", cfg.Host+":"+cfg.Port),
		zap.String("database", cfg.Database),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Duration("slow_query", cfg.SlowQuery))
	return db, nil
}
