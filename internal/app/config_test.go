package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "America/Mexico_City", cfg.Location().String())
	assert.Equal(t, 10, cfg.LowStockThreshold)
	assert.Equal(t, 10*time.Minute, cfg.AnalyticsCacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.EqualValues(t, 10, cfg.PGMaxConns)
}

func TestLoadConfigRejectsBadTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Mars/Olympus")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfigRejectsThreshold(t *testing.T) {
	t.Setenv("LOW_STOCK_THRESHOLD", "0")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestZeroConfigFallsBackToUTC(t *testing.T) {
	var cfg *Config
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, time.UTC, (&Config{}).Location())
}
