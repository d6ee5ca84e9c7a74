/*
Package logger 提供项目统一日志能力。

One process-wide zap logger tagged with the application identity. The
helpers in fields.go fix the keys of the checkout identifiers.
*/
package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bookstore/config"
	"bookstore/infrastructure/persistence"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var log *zap.Logger

// Init builds the global logger from the log section and tags it with the
// application identity.
func Init(cfg *config.LogConfig, app *config.AppConfig) error {
	core, err := newCore(cfg, app.Env)
	if err != nil {
		return err
	}
	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("app", app.Name), zap.String("version", app.Version), zap.String("env", app.Env))
	return nil
}

func newCore(cfg *config.LogConfig, env string) (zapcore.Core, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	switch {
	case cfg.Format == "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case cfg.Format == "console", env == "dev", env == "development":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var sink zapcore.WriteSyncer
	switch cfg.Output {
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 5),
			MaxAge:     orDefault(cfg.MaxAgeDays, 7),
			Compress:   cfg.Compress,
		})
	default:
		sink = zapcore.AddSync(os.Stdout)
	}

	return zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(parseLevel(cfg.Level))), nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func parseLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// Sync flushes buffered entries. Errors from syncing a terminal are
// expected and swallowed.
func Sync() error {
	if log == nil {
		return nil
	}
	if err := log.Sync(); err != nil {
		errStr := err.Error()
		if !strings.Contains(errStr, "inappropriate ioctl for device") &&
			!strings.Contains(errStr, "invalid argument") &&
			!strings.Contains(errStr, "bad file descriptor") {
			return err
		}
	}
	return nil
}

// Replace swaps the global logger and returns a func restoring the old one.
// Tests use it with zaptest/observer.
func Replace(l *zap.Logger) (restore func()) {
	prev := log
	log = l
	return func() { log = prev }
}

func current() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// With returns a child logger carrying fields.
func With(fields ...zap.Field) *zap.Logger {
	return current().WithOptions(zap.AddCallerSkip(-1)).With(fields...)
}

// FromContext returns a child logger tagged with the request id carried
// by ctx, if any.
func FromContext(ctx context.Context) *zap.Logger {
	l := current().WithOptions(zap.AddCallerSkip(-1))
	if id := persistence.RequestIDFromContext(ctx); id != "" {
		l = l.With(RequestID(id))
	}
	return l
}

func Debug(msg string, fields ...zap.Field) {
	current().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	current().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	current().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	current().Error(msg, fields...)
}
