package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "pos_db", cfg.Database.Name)
	assert.Equal(t, 24, cfg.JWT.ExpirationHours)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 2*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, 50, cfg.Outbox.BatchSize)
	assert.Equal(t, "IN", cfg.Business.PhoneRegion)
	assert.False(t, cfg.RazorpayEnabled())
	assert.False(t, cfg.StorageEnabled())
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := []byte(`
server:
  port: 9090
database:
  host: db.internal
  name: shop
jwt:
  secret: from-file
outbox:
  poll_interval: 5s
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	t.Setenv("DB_HOST", "override.local")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test")
	t.Setenv("RAZORPAY_KEY_SECRET", "secret")

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "override.local", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "shop", cfg.Database.Name)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.Equal(t, 5*time.Second, cfg.Outbox.PollInterval)
	assert.True(t, cfg.RazorpayEnabled())
	assert.Equal(t, "postgres://postgres:@override.local:6543/shop", cfg.DSN())
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{}
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"

	logger := NewLogger(cfg)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	cfg.Log.Level = "nonsense"
	cfg.Log.Format = "text"
	logger = NewLogger(cfg)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	LogError(logger, "SaleService", "Checkout", "insert sale", map[string]string{"sale": "x"}, errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, `"module":"SaleService"`)
	assert.Contains(t, out, `"funcName":"Checkout"`)
	assert.Contains(t, out, `"msg":"boom"`)

	buf.Reset()
	LogError(logger, "m", "f", "c", nil, nil)
	assert.Empty(t, buf.String())
}
