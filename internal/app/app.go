// Package app assembles the services shared by the HTTP server and the CLI.
package app

import (
	"context"
	"time"

	"github.com/andresuchdata/stockrisk/internal/alert"
	"github.com/andresuchdata/stockrisk/internal/cache"
	"github.com/andresuchdata/stockrisk/internal/classifier"
	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/forecast"
	"github.com/andresuchdata/stockrisk/internal/model"
	"github.com/andresuchdata/stockrisk/internal/pipeline"
	"github.com/andresuchdata/stockrisk/internal/repository/postgres"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/andresuchdata/stockrisk/internal/storage"
	"github.com/andresuchdata/stockrisk/internal/supplier"
	"github.com/rs/zerolog/log"
)

const reportPrefix = "reports/"

type App struct {
	Config   *config.Config
	DB       *postgres.DB
	Storage  storage.ObjectStorage
	Registry *model.Registry
	Models   []model.ModelStatus

	Forecast  *service.ForecastService
	Supplier  *service.SupplierService
	Refresher *pipeline.Refresher
	Runs      *pipeline.Repository
}

// New wires every component. db may be nil, in which case persistence,
// supplier history and the refresher are left out.
func New(ctx context.Context, cfg *config.Config, db *postgres.DB) *App {
	a := &App{Config: cfg, DB: db}

	a.Storage = NewStorage(cfg.Storage)
	loader := model.NewLoader(cfg.Models.Dir, a.Storage, cfg.Models.Prefix)
	a.Registry, a.Models = model.LoadRegistry(ctx, loader, cfg.Models.Source == "s3" && a.Storage != nil)

	fc, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("forecast cache unavailable, continuing without it")
		fc = cache.NewNoopForecastCache()
	}

	deps := service.ForecastDeps{
		Forecaster:     NewForecaster(cfg.Forecast),
		Evaluator:      alert.NewEngine(),
		Classifier:     classifier.New(a.Registry.StockStatus),
		Cache:          fc,
		DefaultHorizon: cfg.Forecast.DefaultHorizon,
		Freshness:      time.Duration(cfg.Cache.ForecastTTLSeconds) * time.Second,
		ReportPrefix:   reportPrefix,
	}
	if a.Registry.StockStatus != nil {
		deps.Encoders = a.Registry.StockStatus.Encoders
	}
	if a.Storage != nil {
		deps.Storage = a.Storage
	}

	scorer := supplier.NewScorer(a.Registry)
	if db == nil {
		a.Forecast = service.NewForecastService(deps)
		a.Supplier = service.NewSupplierService(scorer, nil)
		return a
	}

	products := postgres.NewProductRepository(db)
	deps.Forecasts = postgres.NewForecastRepository(db)
	deps.Products = products
	a.Forecast = service.NewForecastService(deps)
	a.Supplier = service.NewSupplierService(scorer, postgres.NewSupplierRepository(db))

	a.Runs = pipeline.NewRepository(db.DB)
	a.Refresher = pipeline.NewRefresher(a.Forecast, products, a.Runs, PipelineConfig(cfg))
	return a
}

// NewForecaster builds the demand forecaster from configuration.
func NewForecaster(cfg config.ForecastConfig) *forecast.Forecaster {
	return forecast.NewForecaster(
		forecast.WithHistoryDays(cfg.HistoryDays),
		forecast.WithMaxHorizon(cfg.MaxHorizon),
		forecast.WithSeed(cfg.Seed),
		forecast.WithJitter(cfg.Jitter),
	)
}

// NewStorage returns the object store, or nil when none is configured or it
// cannot be reached.
func NewStorage(cfg config.StorageConfig) storage.ObjectStorage {
	if cfg.Endpoint == "" {
		return nil
	}
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("object storage disabled")
		return nil
	}
	return client
}

// PipelineConfig maps configuration onto refresh settings.
func PipelineConfig(cfg *config.Config) pipeline.Config {
	pc := pipeline.DefaultConfig()
	if cfg.Pipeline.Workers > 0 {
		pc.Workers = cfg.Pipeline.Workers
	}
	if cfg.Pipeline.RetryAttempts > 0 {
		pc.RetryAttempts = cfg.Pipeline.RetryAttempts
	}
	if cfg.Forecast.DefaultHorizon > 0 {
		pc.HorizonDays = cfg.Forecast.DefaultHorizon
	}
	pc.Interval = time.Duration(cfg.Pipeline.RefreshIntervalHours) * time.Hour
	return pc
}
