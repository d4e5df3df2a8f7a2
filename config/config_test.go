package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Order.TimeoutWindow)
	assert.Equal(t, 10, cfg.Order.ActiveOrderCap)
	assert.Equal(t, 2, cfg.Order.RefundEscalationThreshold)
	assert.Equal(t, 200, cfg.Reconciler.BatchSize)
	assert.Equal(t, 60*time.Second, cfg.Reconciler.Interval)
	assert.Equal(t, "log", cfg.Worker.Publisher)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MARKET_ORDER_ACTIVE_ORDER_CAP", "3")
	t.Setenv("MARKET_RECONCILER_BATCH_SIZE", "50")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Order.ActiveOrderCap)
	assert.Equal(t, 50, cfg.Reconciler.BatchSize)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  env: staging
order:
  timeout_window: 30m
  refund_escalation_threshold: 3
worker:
  publisher: redis
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, cfg.Order.TimeoutWindow)
	assert.Equal(t, 3, cfg.Order.RefundEscalationThreshold)
	assert.Equal(t, "redis", cfg.Worker.Publisher)
	assert.False(t, cfg.IsDevelopment())
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.Worker.Publisher = "carrier-pigeon"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Order.ActiveOrderCap = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Order.MachineID = 4096
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.App.Env = "production"
	assert.Error(t, bad.Validate(), "default secret must be rejected in production")
}
