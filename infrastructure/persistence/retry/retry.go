// Package retry re-runs a unit of work after transient MySQL failures.
package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"bookstore/config"
	"bookstore/domain/customerorder"
	"bookstore/domain/order"
	"bookstore/domain/promotion"
	"bookstore/pkg/logger"
	"bookstore/pkg/metrics"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQL server error numbers worth another attempt.
const (
	erLockDeadlock    = 1213
	erLockWaitTimeout = 1205
)

type Config struct {
	Enabled                       bool
	MaxAttempts                   int
	InitialDelay                  time.Duration
	MaxDelay                      time.Duration
	BackoffFactor                 float64
	JitterEnabled                 bool
	RetryOnConcurrentModification bool
	RetryOnDeadlock               bool
	RetryOnLockTimeout            bool
}

var DefaultConfig = Config{
	Enabled:            true,
	MaxAttempts:        3,
	InitialDelay:       100 * time.Millisecond,
	MaxDelay:           2 * time.Second,
	BackoffFactor:      2.0,
	JitterEnabled:      true,
	RetryOnDeadlock:    true,
	RetryOnLockTimeout: true,
}

func FromAppConfig(appConfig *config.Config) Config {
	rc := appConfig.Database.Retry
	return Config{
		Enabled:                       rc.Enabled,
		MaxAttempts:                   rc.MaxAttempts,
		InitialDelay:                  rc.InitialDelay,
		MaxDelay:                      rc.MaxDelay,
		BackoffFactor:                 rc.BackoffFactor,
		JitterEnabled:                 rc.JitterEnabled,
		RetryOnConcurrentModification: rc.RetryOnConcurrentModification,
		RetryOnDeadlock:               rc.RetryOnDeadlock,
		RetryOnLockTimeout:            rc.RetryOnLockTimeout,
	}
}

// Reason says why a failed attempt may be repeated. The zero value means
// it may not.
type Reason string

const (
	ReasonDeadlock   Reason = "deadlock"
	ReasonLockWait   Reason = "lock_wait_timeout"
	ReasonConflict   Reason = "conflict"
	ReasonConnection Reason = "bad_connection"
)

// Classify decides whether err is worth another attempt under cfg.
//
// Duplicate keys, failed conditional transitions and every other domain
// error are final. So is mysql.ErrInvalidConn: the statement may have run.
// driver.ErrBadConn is only returned before anything reached the server.
func Classify(err error, cfg Config) Reason {
	if err == nil {
		return ""
	}

	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch {
		case mysqlErr.Number == erLockDeadlock && cfg.RetryOnDeadlock:
			return ReasonDeadlock
		case mysqlErr.Number == erLockWaitTimeout && cfg.RetryOnLockTimeout:
			return ReasonLockWait
		}
		return ""
	}

	if errors.Is(err, driver.ErrBadConn) {
		return ReasonConnection
	}

	if cfg.RetryOnConcurrentModification &&
		(errors.Is(err, customerorder.ErrConcurrentModification) ||
			errors.Is(err, order.ErrConcurrentModification) ||
			errors.Is(err, promotion.ErrConcurrentModification)) {
		return ReasonConflict
	}
	return ""
}

// Backoff is the wait before attempt+1, growing by BackoffFactor from
// InitialDelay up to MaxDelay. Jitter spreads it by ±20%.
func Backoff(attempt int, cfg Config) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.JitterEnabled {
		delay *= 0.8 + rand.Float64()*0.4
	}
	if delay < 0 {
		return 0
	}
	return time.Duration(delay)
}

// Do runs fn until it succeeds, fails for good, or MaxAttempts is spent.
// The last error is returned unwrapped.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if !cfg.Enabled || cfg.MaxAttempts <= 1 {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err = fn(ctx); err == nil {
			return nil
		}

		reason := Classify(err, cfg)
		if reason == "" || attempt == cfg.MaxAttempts {
			return err
		}

		delay := Backoff(attempt, cfg)
		metrics.TransactionRetries.WithLabelValues(string(reason)).Inc()
		logger.FromContext(ctx).Warn("Retrying transaction",
			zap.String("reason", string(reason)),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
	}
	return err
}
