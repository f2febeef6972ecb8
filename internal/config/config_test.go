package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestNewDefaults(t *testing.T) {
	cfg := New(viper.New())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.AdminPort)
	assert.Equal(t, "stockrisk", cfg.Database.DBName)
	assert.Equal(t, 86400, cfg.Cache.ForecastTTLSeconds)
	assert.Equal(t, 60, cfg.Forecast.HistoryDays)
	assert.Equal(t, 30, cfg.Forecast.DefaultHorizon)
	assert.Equal(t, 365, cfg.Forecast.MaxHorizon)
	assert.Equal(t, int64(0), cfg.Forecast.Seed)
	assert.True(t, cfg.Forecast.Jitter)
	assert.Equal(t, "local", cfg.Models.Source)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, 3, cfg.Pipeline.RetryAttempts)
	assert.Equal(t, 0, cfg.Pipeline.RefreshIntervalHours)
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("FORECAST_SEED", "42")
	t.Setenv("FORECAST_JITTER", "false")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("MODELS_SOURCE", "s3")

	cfg := New(viper.New())

	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, int64(42), cfg.Forecast.Seed)
	assert.False(t, cfg.Forecast.Jitter)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "s3", cfg.Models.Source)
}
