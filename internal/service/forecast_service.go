package service

import (
	"context"
	"time"

	"github.com/andresuchdata/stockrisk/internal/cache"
	"github.com/andresuchdata/stockrisk/internal/classifier"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/model"
	"github.com/andresuchdata/stockrisk/internal/report"
	"github.com/andresuchdata/stockrisk/internal/repository"
	"github.com/andresuchdata/stockrisk/internal/scenario"
	"github.com/andresuchdata/stockrisk/internal/storage"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	SourceCache     = "cache"
	SourceStored    = "stored"
	SourceGenerated = "generated"

	defaultHorizon   = 30
	defaultFreshness = 24 * time.Hour
)

// ForecastDeps are the collaborators of ForecastService. Forecasts, Products,
// Cache and Storage are optional; the pure contracts work without them.
type ForecastDeps struct {
	Forecaster scenario.Forecaster
	Evaluator  scenario.Evaluator
	Classifier classifier.Predictor
	Encoders   model.EncoderSet

	Forecasts repository.ForecastRepository
	Products  repository.ProductRepository
	Cache     cache.ForecastCache
	Storage   storage.ObjectStorage

	DefaultHorizon int
	Freshness      time.Duration
	ReportPrefix   string
	Now            func() time.Time
}

// ForecastService implements forecastAndAlert, planScenario and classifyStock
// and the persistence around them.
type ForecastService struct {
	deps    ForecastDeps
	planner *scenario.Planner
}

func NewForecastService(deps ForecastDeps) *ForecastService {
	if deps.Classifier == nil {
		deps.Classifier = classifier.RuleBasedPredictor{}
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopForecastCache()
	}
	if deps.DefaultHorizon <= 0 {
		deps.DefaultHorizon = defaultHorizon
	}
	if deps.Freshness <= 0 {
		deps.Freshness = defaultFreshness
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &ForecastService{
		deps:    deps,
		planner: scenario.NewPlanner(deps.Forecaster, deps.Evaluator),
	}
}

// ForecastAndAlert forecasts demand and derives the alert for it. The horizon
// is taken as given; a zero horizon is invalid input.
func (s *ForecastService) ForecastAndAlert(req domain.ForecastRequest) (*domain.ForecastOutcome, error) {
	res, err := s.deps.Forecaster.Forecast(req)
	if err != nil {
		return nil, err
	}
	insight := s.deps.Evaluator.Evaluate(req.CurrentStock, req.LeadTimeDays, res)
	return &domain.ForecastOutcome{
		Forecast:     res,
		Insight:      insight,
		ModelMeta:    res.ModelFit,
		UsedFallback: res.UsedFallback,
	}, nil
}

// ClassifyStock encodes the input and runs the stock-status classifier.
func (s *ForecastService) ClassifyStock(in domain.StockInput) domain.StockClassification {
	return s.deps.Classifier.Predict(classifier.BuildFeatures(in, s.deps.Encoders))
}

// CustomPrediction is the result of PredictCustom.
type CustomPrediction struct {
	Record       *domain.ForecastRecord `json:"forecast"`
	Message      string                 `json:"message"`
	Verification Verification           `json:"verification"`
}

// Verification tells the caller how the forecast was produced.
type Verification struct {
	ARIMAUsed    bool             `json:"arima_used"`
	Method       string           `json:"method"`
	ModelDetails *domain.ModelFit `json:"model_details"`
}

// WithDefaultHorizon fills an omitted ForecastDays with the configured default
// horizon. Request handlers call it before forecasting.
func (s *ForecastService) WithDefaultHorizon(in domain.StockInput) domain.StockInput {
	if in.ForecastDays == 0 {
		in.ForecastDays = s.deps.DefaultHorizon
	}
	return in
}

// PredictCustom classifies, forecasts and alerts a caller-supplied snapshot and
// stores the result as the SKU's current forecast.
func (s *ForecastService) PredictCustom(ctx context.Context, in domain.StockInput) (*CustomPrediction, error) {
	if in.SKU == "" {
		return nil, domain.InvalidInputf("sku is required")
	}

	rec, err := s.generate(in)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, rec); err != nil {
		return nil, err
	}

	name := in.ProductName
	if name == "" {
		name = in.SKU
	}
	return &CustomPrediction{
		Record:  rec,
		Message: "Forecast generated successfully for " + name,
		Verification: Verification{
			ARIMAUsed:    !rec.UsedFallback,
			Method:       rec.Method,
			ModelDetails: rec.ModelFit,
		},
	}, nil
}

// ForecastLookup is a forecast record plus where it came from.
type ForecastLookup struct {
	Record *domain.ForecastRecord `json:"forecast"`
	Source string                 `json:"source"`
}

// GetForecastBySKU serves the cached forecast, then a stored one younger than
// the freshness window, and otherwise generates one from the product snapshot.
func (s *ForecastService) GetForecastBySKU(ctx context.Context, sku string) (*ForecastLookup, error) {
	if rec, ok, err := s.deps.Cache.Get(ctx, sku); err == nil && ok {
		return &ForecastLookup{Record: rec, Source: SourceCache}, nil
	} else if err != nil {
		log.Warn().Err(err).Str("sku", sku).Msg("forecast: cache get failed")
	}

	if s.deps.Forecasts != nil {
		rec, err := s.deps.Forecasts.GetBySKU(ctx, sku)
		switch {
		case err == nil && s.deps.Now().Sub(rec.UpdatedAt) < s.deps.Freshness:
			s.cache(ctx, rec)
			return &ForecastLookup{Record: rec, Source: SourceStored}, nil
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	if s.deps.Products == nil {
		return nil, domain.NotFoundf("no forecast for sku %s", sku)
	}
	product, err := s.deps.Products.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	req := product.ForecastRequest(s.deps.DefaultHorizon)
	rec, err := s.generate(domain.StockInput{
		SKU:          product.SKU,
		ProductName:  product.Name,
		CurrentStock: req.CurrentStock,
		DailySales:   req.DailyDemandRate,
		WeeklySales:  req.WeeklyDemandRate,
		ReorderLevel: product.ReorderLevel,
		LeadTime:     req.LeadTimeDays,
		Brand:        product.Brand,
		Category:     product.Category,
		Location:     product.Location,
		SupplierName: product.SupplierName,
		ForecastDays: req.HorizonDays,
	})
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, rec); err != nil {
		return nil, err
	}
	return &ForecastLookup{Record: rec, Source: SourceGenerated}, nil
}

// PlanScenario parses the raw adjustments and compares the scenario with the
// baseline snapshot.
func (s *ForecastService) PlanScenario(ctx context.Context, in domain.StockInput, raw map[string]float64) (*domain.ScenarioComparison, error) {
	adj, err := domain.ParseAdjustments(raw)
	if err != nil {
		return nil, err
	}
	return s.planner.Compare(ctx, in.ForecastRequest(), adj)
}

// ExportForecast renders the SKU's forecast as XLSX. With upload set the
// workbook is also stored and its key returned.
func (s *ForecastService) ExportForecast(ctx context.Context, sku string, upload bool) ([]byte, string, error) {
	lookup, err := s.GetForecastBySKU(ctx, sku)
	if err != nil {
		return nil, "", err
	}
	wb, err := report.ForecastWorkbook(lookup.Record)
	if err != nil {
		return nil, "", err
	}
	data, err := report.Bytes(wb)
	if err != nil {
		return nil, "", err
	}
	if !upload {
		return data, "", nil
	}
	if s.deps.Storage == nil {
		return nil, "", errors.New("object storage is not configured")
	}
	key := report.ObjectKey(s.deps.ReportPrefix, sku)
	if err := s.deps.Storage.UploadObject(ctx, key, data); err != nil {
		return nil, "", err
	}
	log.Info().Str("sku", sku).Str("key", key).Msg("forecast export uploaded")
	return data, key, nil
}

// ExportScenario runs a scenario comparison and renders it as XLSX.
func (s *ForecastService) ExportScenario(ctx context.Context, in domain.StockInput, raw map[string]float64) ([]byte, error) {
	cmp, err := s.PlanScenario(ctx, in, raw)
	if err != nil {
		return nil, err
	}
	wb, err := report.ScenarioWorkbook(in.SKU, cmp)
	if err != nil {
		return nil, err
	}
	return report.Bytes(wb)
}

// InvalidateCached drops every cached forecast so the next lookup reads the
// store or regenerates.
func (s *ForecastService) InvalidateCached(ctx context.Context) error {
	if err := s.deps.Cache.InvalidateAll(ctx); err != nil {
		return errors.Wrap(err, "failed to invalidate forecast cache")
	}
	return nil
}

func (s *ForecastService) generate(in domain.StockInput) (*domain.ForecastRecord, error) {
	outcome, err := s.ForecastAndAlert(in.ForecastRequest())
	if err != nil {
		return nil, err
	}
	cls := s.ClassifyStock(in)

	now := s.deps.Now()
	return &domain.ForecastRecord{
		SKU:          in.SKU,
		ProductName:  in.ProductName,
		CurrentStock: in.CurrentStock,
		StockStatus:  cls.Status,
		Priority:     cls.Priority,
		Alert:        outcome.Insight.Message,
		Insight:      outcome.Insight,
		Points:       outcome.Forecast.Points,
		Historical:   outcome.Forecast.HistoricalSeries,
		InputParams:  in,
		Method:       outcome.Forecast.Method,
		UsedFallback: outcome.UsedFallback,
		ModelFit:     outcome.ModelMeta,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *ForecastService) persist(ctx context.Context, rec *domain.ForecastRecord) error {
	if s.deps.Forecasts != nil {
		if err := s.deps.Forecasts.Upsert(ctx, rec); err != nil {
			return err
		}
	}
	s.cache(ctx, rec)
	return nil
}

func (s *ForecastService) cache(ctx context.Context, rec *domain.ForecastRecord) {
	if err := s.deps.Cache.Set(ctx, rec); err != nil {
		log.Warn().Err(err).Str("sku", rec.SKU).Msg("forecast: cache set failed")
	}
}
