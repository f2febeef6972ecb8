package app

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.New(viper.New())
	cfg.Models.Dir = t.TempDir()
	cfg.Forecast.Seed = 3
	return cfg
}

func TestNewWithoutDatabase(t *testing.T) {
	a := New(context.Background(), testConfig(t), nil)

	assert.Nil(t, a.Storage)
	assert.Nil(t, a.Refresher)
	assert.Len(t, a.Models, 4)
	assert.False(t, a.Supplier.ModelsLoaded())

	out, err := a.Forecast.ForecastAndAlert(domain.ForecastRequest{
		CurrentStock: 50, DailyDemandRate: 5, WeeklyDemandRate: 35, LeadTimeDays: 7,
		HorizonDays: 30,
	})
	require.NoError(t, err)
	assert.Len(t, out.Forecast.Points, 30)

	_, err = a.Forecast.GetForecastBySKU(context.Background(), "SKU-1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPipelineConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.Workers = 8
	cfg.Pipeline.RefreshIntervalHours = 6

	pc := PipelineConfig(cfg)
	assert.Equal(t, 8, pc.Workers)
	assert.Equal(t, 3, pc.RetryAttempts)
	assert.Equal(t, 30, pc.HorizonDays)
	assert.Equal(t, 6*time.Hour, pc.Interval)
}

func TestNewStorageNeedsEndpoint(t *testing.T) {
	assert.Nil(t, NewStorage(config.StorageConfig{}))
	assert.Nil(t, NewStorage(config.StorageConfig{Endpoint: "http://minio:9000"}))
}
