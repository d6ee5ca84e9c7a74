package logger_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"bookstore/config"
	"bookstore/infrastructure/persistence"
	"bookstore/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutIdentifiersUseStableKeys(t *testing.T) {
	logs := observe(t)

	logger.Info("Payment settled",
		logger.TxnRef("TXN1729000000000ABCD1234"),
		logger.ReservationID("res-1"),
		logger.CustomerOrderID("co-1"),
		logger.BuyerID("buyer-1"))

	entries := logs.FilterMessage("Payment settled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, map[string]interface{}{
		"txn_ref":           "TXN1729000000000ABCD1234",
		"reservation_id":    "res-1",
		"customer_order_id": "co-1",
		"buyer_id":          "buyer-1",
	}, entries[0].ContextMap())
}

func TestFromContext(t *testing.T) {
	logs := observe(t)

	ctx := persistence.ContextWithRequestID(context.Background(), "req-7")
	logger.FromContext(ctx).Warn("Confirming unknown inventory reservation", logger.OwnerID("co-1"))
	logger.FromContext(context.Background()).Warn("Sweep tick")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-7", entries[0].ContextMap()["request_id"])
	assert.Equal(t, "co-1", entries[0].ContextMap()["owner_id"])
	assert.NotContains(t, entries[1].ContextMap(), "request_id")
}

func TestWithoutInitNothingPanics(t *testing.T) {
	t.Cleanup(logger.Replace(nil))

	assert.NotPanics(t, func() {
		logger.Debug("debug")
		logger.Info("info", logger.TxnRef("TXN1"))
		logger.Warn("warn")
		logger.Error("error")
		logger.With(logger.BuyerID("buyer-1")).Info("with")
		logger.FromContext(context.Background()).Info("from context")
		logger.NewGormLogger(logger.GormConfig{Level: "info"}).Info(context.Background(), "gorm")
	})
	assert.NoError(t, logger.Sync())
}

func TestInit_JSONFileCarriesAppIdentity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	t.Cleanup(logger.Replace(nil))

	err := logger.Init(&config.LogConfig{
		Level:     "info",
		Format:    "json",
		Output:    "file",
		FilePath:  path,
		MaxSizeMB: 1,
	}, &config.AppConfig{Name: "bookstore", Version: "1.2.3", Env: "production"})
	require.NoError(t, err)

	logger.Debug("below the configured level")
	logger.Info("Checkout finalized", logger.CustomerOrderID("co-9"))
	require.NoError(t, logger.Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, "Checkout finalized", line["msg"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "bookstore", line["app"])
	assert.Equal(t, "1.2.3", line["version"])
	assert.Equal(t, "production", line["env"])
	assert.Equal(t, "co-9", line["customer_order_id"])
	assert.Contains(t, line["caller"], "logger_test.go")
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	t.Cleanup(logger.Replace(nil))

	require.NoError(t, logger.Init(&config.LogConfig{Level: "verbose", Format: "json", Output: "file", FilePath: path},
		&config.AppConfig{Name: "bookstore", Env: "test"}))

	logger.Debug("dropped")
	logger.Info("kept")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"kept"`)
	assert.NotContains(t, string(data), "dropped")
}
