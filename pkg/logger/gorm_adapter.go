package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// GormConfig tunes the gorm bridge.
type GormConfig struct {
	// Level is one of silent, error, warn, info; debug is treated as info.
	Level string
	// SlowThreshold marks statements to log at warn. Zero disables it.
	SlowThreshold time.Duration
}

// GormLogger sends gorm's statement log to the global zap logger, tagged
// with the request id of the calling context. It resolves the global
// logger on every call, so it can be built before Init.
type GormLogger struct {
	level gormlogger.LogLevel
	slow  time.Duration
}

func NewGormLogger(cfg GormConfig) *GormLogger {
	return &GormLogger{level: ParseGormLevel(cfg.Level), slow: cfg.SlowThreshold}
}

// ParseGormLevel maps a config level onto gorm's. Unknown values give warn.
func ParseGormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &GormLogger{level: level, slow: l.slow}
}

func (l *GormLogger) log(ctx context.Context) *zap.Logger {
	return FromContext(ctx).With(zap.String("component", "gorm"))
}

func (l *GormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log(ctx).Info(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log(ctx).Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log(ctx).Error(fmt.Sprintf(msg, args...))
	}
}

// Trace logs one statement. Record-not-found is never logged: repositories
// turn it into the domain's not-found errors, and lookups of unknown txn
// refs or owners are routine.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		l.log(ctx).Error("SQL statement failed", statementFields(sql, rows, elapsed, zap.Error(err))...)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log(ctx).Warn("Slow SQL statement", statementFields(sql, rows, elapsed, zap.Duration("threshold", l.slow))...)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.log(ctx).Info("SQL statement", statementFields(sql, rows, elapsed)...)
	}
}

func statementFields(sql string, rows int64, elapsed time.Duration, extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}, extra...)
}

var _ gormlogger.Interface = (*GormLogger)(nil)
