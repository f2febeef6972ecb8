package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andresuchdata/stockrisk/internal/alert"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/forecast"
	"github.com/andresuchdata/stockrisk/internal/model"
	"github.com/andresuchdata/stockrisk/internal/pipeline"
	"github.com/andresuchdata/stockrisk/internal/report"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/andresuchdata/stockrisk/internal/supplier"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type constPredictor float64

func (p constPredictor) Predict(x []float64) (float64, error) { return float64(p), nil }

type suppliersRepo struct {
	txns []domain.SupplierTransaction
}

func (s suppliersRepo) ListTransactions(ctx context.Context) ([]domain.SupplierTransaction, error) {
	return s.txns, nil
}

func (s suppliersRepo) RecentTransactions(ctx context.Context, name string, limit int) ([]domain.SupplierTransaction, error) {
	var out []domain.SupplierTransaction
	for _, t := range s.txns {
		if t.Supplier == name {
			out = append(out, t)
		}
	}
	return out, nil
}

type storedForecasts map[string]*domain.ForecastRecord

func (s storedForecasts) Upsert(ctx context.Context, rec *domain.ForecastRecord) error {
	s[rec.SKU] = rec
	return nil
}

func (s storedForecasts) GetBySKU(ctx context.Context, sku string) (*domain.ForecastRecord, error) {
	if rec, ok := s[sku]; ok {
		return rec, nil
	}
	return nil, domain.NotFoundf("forecast for sku %s", sku)
}

func newTestRouter(scorer *supplier.Scorer) *gin.Engine {
	fc := service.NewForecastService(service.ForecastDeps{
		Forecaster: forecast.NewForecaster(forecast.WithSeed(7)),
		Evaluator:  alert.NewEngine(),
		Forecasts:  storedForecasts{},
	})
	txns := []domain.SupplierTransaction{
		{ID: 1, Supplier: "Apex", Category: "Electronics", OrderDate: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), DelayDays: 2, FulfillmentRatio: 0.95},
	}
	return NewRouter(&Services{
		Forecast: fc,
		Supplier: service.NewSupplierService(scorer, suppliersRepo{txns: txns}),
	}, []string{"*"})
}

func loadedScorer() *supplier.Scorer {
	return supplier.NewScorerWithPredictors(constPredictor(3), constPredictor(0.05), constPredictor(0.9), nil)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

var snapshot = map[string]interface{}{
	"sku":          "SKU-1",
	"productName":  "Widget",
	"currentStock": 120,
	"dailySales":   8,
	"weeklySales":  56,
	"reorderLevel": 40,
	"leadTime":     7,
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(loadedScorer()), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestPredictCustomThenGetForecast(t *testing.T) {
	r := newTestRouter(loadedScorer())

	rec := do(t, r, http.MethodPost, "/api/v1/ml/predict/custom", snapshot)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body, "verification")

	rec = do(t, r, http.MethodGet, "/api/v1/ml/forecast/SKU-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.SourceStored, decode(t, rec)["source"])

	rec = do(t, r, http.MethodGet, "/api/v1/ml/forecast/SKU-1/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))
	assert.NotZero(t, rec.Body.Len())
}

func TestPredictCustomHorizon(t *testing.T) {
	r := newTestRouter(loadedScorer())
	points := func(body map[string]interface{}) []interface{} {
		forecast, ok := body["forecast"].(map[string]interface{})
		require.True(t, ok)
		data, ok := forecast["forecastData"].([]interface{})
		require.True(t, ok)
		return data
	}

	rec := do(t, r, http.MethodPost, "/api/v1/ml/predict/custom", snapshot)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, points(decode(t, rec)), 30)

	req := map[string]interface{}{"forecastDays": 7}
	for k, v := range snapshot {
		req[k] = v
	}
	rec = do(t, r, http.MethodPost, "/api/v1/ml/predict/custom", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, points(decode(t, rec)), 7)
}

func TestGetForecastUnknownSKU(t *testing.T) {
	rec := do(t, newTestRouter(loadedScorer()), http.MethodGet, "/api/v1/ml/forecast/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode(t, rec), "details")
}

func TestPredictCustomInvalid(t *testing.T) {
	bad := map[string]interface{}{"sku": "SKU-1", "currentStock": 10, "dailySales": 0, "weeklySales": 0, "leadTime": 3}
	rec := do(t, newTestRouter(loadedScorer()), http.MethodPost, "/api/v1/ml/predict/custom", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassify(t *testing.T) {
	rec := do(t, newTestRouter(loadedScorer()), http.MethodPost, "/api/v1/ml/classify", snapshot)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "In Stock", body["stock_status"])
	assert.Equal(t, domain.ClassificationSourceRules, body["source"])
}

func TestScenarioPlanning(t *testing.T) {
	r := newTestRouter(loadedScorer())
	req := map[string]interface{}{}
	for k, v := range snapshot {
		req[k] = v
	}
	req["adjustments"] = map[string]float64{"demandMultiplier": 1.5}

	rec := do(t, r, http.MethodPost, "/api/v1/ml/scenario-planning", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decode(t, rec), "comparison")

	rec = do(t, r, http.MethodPost, "/api/v1/ml/scenario-planning/export", req)
	require.Equal(t, http.StatusOK, rec.Code)

	req["adjustments"] = map[string]float64{"priceChange": 2}
	rec = do(t, r, http.MethodPost, "/api/v1/ml/scenario-planning", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSupplierEndpoints(t *testing.T) {
	r := newTestRouter(loadedScorer())

	rec := do(t, r, http.MethodPost, "/api/v1/supplier/predict-risk", map[string]interface{}{"supplier": "Apex"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Electronics", decode(t, rec)["category"])

	rec = do(t, r, http.MethodPost, "/api/v1/supplier/predict-risk", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/supplier/risk-overview", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/supplier/history/Apex", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/v1/supplier/history/Nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type recordingPredictor struct {
	last []float64
}

func (p *recordingPredictor) Predict(x []float64) (float64, error) {
	p.last = x
	return 1, nil
}

func TestPredictRiskKeepsExplicitZeros(t *testing.T) {
	delay := &recordingPredictor{}
	r := newTestRouter(supplier.NewScorerWithPredictors(delay, constPredictor(0.05), constPredictor(0.9), nil))

	rec := do(t, r, http.MethodPost, "/api/v1/supplier/predict-risk", map[string]interface{}{"supplier": "Apex", "qty": 0, "price": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Electronics", decode(t, rec)["category"])
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, delay.last)

	rec = do(t, r, http.MethodPost, "/api/v1/supplier/predict-risk", map[string]interface{}{"supplier": "Apex"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{0, 0, 100, 50, 0}, delay.last)
}

func TestSupplierModelsUnavailable(t *testing.T) {
	r := newTestRouter(supplier.NewScorer(&model.Registry{}))
	rec := do(t, r, http.MethodPost, "/api/v1/supplier/predict-risk", map[string]interface{}{"supplier": "Apex"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}

type runsStub struct {
	err error
}

func (s runsStub) RecentRuns(ctx context.Context, limit int) ([]pipeline.RefreshRun, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []pipeline.RefreshRun{{ID: "run-1", Status: pipeline.StatusCompleted}}, nil
}

func (s runsStub) GetRun(ctx context.Context, id string) (*pipeline.RefreshRun, error) {
	if s.err != nil {
		return nil, s.err
	}
	if id != "run-1" {
		return nil, domain.NotFoundf("refresh run %s", id)
	}
	return &pipeline.RefreshRun{ID: id, Status: pipeline.StatusCompleted, Processed: 4}, nil
}

func TestAdminRouter(t *testing.T) {
	admin := NewAdminRouter(&Admin{
		Models: []model.ModelStatus{{Name: "delay_risk", Loaded: true}, {Name: "quality_risk"}},
		Runs:   runsStub{},
	})

	rec := do(t, admin, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, admin, http.MethodGet, "/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 1.0, body["loaded"])
	assert.Equal(t, 2.0, body["total"])

	rec = do(t, admin, http.MethodGet, "/runs?limit=5", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, admin, http.MethodGet, "/runs/run-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "run-1", body["id"])
	assert.Equal(t, 4.0, body["processed"])

	rec = do(t, admin, http.MethodGet, "/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, admin, http.MethodPost, "/models", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAdminHealthzNotReady(t *testing.T) {
	admin := NewAdminRouter(&Admin{
		Ready: func(ctx context.Context) error { return errors.New("db down") },
		Runs:  runsStub{err: errors.New("boom")},
	})

	assert.Equal(t, http.StatusServiceUnavailable, do(t, admin, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, admin, http.MethodGet, "/runs", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, do(t, admin, http.MethodGet, "/runs/run-1", nil).Code)
}
