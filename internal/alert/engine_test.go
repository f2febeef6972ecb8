package alert

import (
	"testing"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func flatForecast(demand float64, horizon int) *domain.ForecastResult {
	points := make([]domain.ForecastPoint, horizon)
	for i := range points {
		points[i] = domain.ForecastPoint{DayOffset: i + 1, PredictedDemand: demand}
	}
	return &domain.ForecastResult{Points: points}
}

func TestEvaluateOutOfStock(t *testing.T) {
	e := NewEngineWithClock(func() time.Time { return fixedNow })

	for _, stock := range []float64{0, -3} {
		got := e.Evaluate(stock, 7, flatForecast(10, 30))

		assert.Equal(t, domain.StatusOutOfStock, got.Status)
		assert.Equal(t, domain.RiskCritical, got.RiskLevel)
		assert.Equal(t, 360, got.RecommendedReorderQty)
		assert.Equal(t, "Immediate restock required. Recommended: 360 units.", got.Message)
	}
}

func TestEvaluateAtRisk(t *testing.T) {
	e := NewEngineWithClock(func() time.Time { return fixedNow })
	got := e.Evaluate(40, 7, flatForecast(10, 30))

	require.NotNil(t, got.ETADays)
	assert.Equal(t, 4.0, *got.ETADays)
	assert.Equal(t, domain.StatusAtRisk, got.Status)
	assert.Equal(t, domain.RiskHigh, got.RiskLevel)
	assert.Equal(t, 286, got.RecommendedReorderQty)
	assert.Equal(t, "Stock-out predicted in 4 days. Reorder 286 units now.", got.Message)
	require.NotNil(t, got.PredictedStockOutDate)
	assert.Equal(t, "2025-03-07", *got.PredictedStockOutDate)
}

func TestEvaluateWarningAtTenDays(t *testing.T) {
	e := NewEngineWithClock(func() time.Time { return fixedNow })
	got := e.Evaluate(100, 7, flatForecast(10, 30))

	assert.Equal(t, 10.0, got.ETA(-1))
	assert.Equal(t, domain.StatusWarning, got.Status)
	assert.Equal(t, domain.RiskMedium, got.RiskLevel)
	assert.Equal(t, 240, got.RecommendedReorderQty)
	assert.Equal(t, 10.0, got.AvgDailyDemand)
	assert.Equal(t, 105.0, got.ReorderPoint)
	assert.Equal(t, "Inventory sufficient for 10 days. Plan reorder soon.", got.Message)
}

func TestEvaluateHealthyExtrapolatesETA(t *testing.T) {
	e := NewEngineWithClock(func() time.Time { return fixedNow })
	got := e.Evaluate(1000, 7, flatForecast(3, 30))

	assert.Equal(t, domain.StatusHealthy, got.Status)
	assert.Equal(t, domain.RiskLow, got.RiskLevel)
	assert.Equal(t, 0, got.RecommendedReorderQty)
	assert.InDelta(t, 333.3, got.ETA(0), 1e-9)
	require.NotNil(t, got.PredictedStockOutDate)
	assert.Equal(t, "Stock levels are optimal.", got.Message)
}

func TestEvaluateNoDemand(t *testing.T) {
	got := NewEngine().Evaluate(50, 7, flatForecast(0, 14))

	assert.Equal(t, NoDemandETA, got.ETA(0))
	assert.Equal(t, domain.StatusHealthy, got.Status)
	assert.Nil(t, got.PredictedStockOutDate)
	assert.Equal(t, 0.0, got.AvgDailyDemand)
}

func TestEvaluateAtRiskNeverRecommendsNegativeQuantity(t *testing.T) {
	// Lead time longer than the horizon: stock outlasts total demand but not the lead time.
	got := NewEngine().Evaluate(400, 60, flatForecast(10, 30))

	assert.Equal(t, domain.StatusAtRisk, got.Status)
	assert.Equal(t, 0, got.RecommendedReorderQty)
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		stock  float64
		eta    float64
		lead   float64
		status domain.StockStatus
		risk   domain.RiskLevel
	}{
		{"zero stock beats everything", 0, 500, 7, domain.StatusOutOfStock, domain.RiskCritical},
		{"eta equal to lead time", 50, 7, 7, domain.StatusWarning, domain.RiskMedium},
		{"eta just below lead time", 50, 6.9, 7, domain.StatusAtRisk, domain.RiskHigh},
		{"eta at warning horizon", 50, WarningHorizonDays, 7, domain.StatusHealthy, domain.RiskLow},
		{"eta below warning horizon", 50, WarningHorizonDays - 0.1, 7, domain.StatusWarning, domain.RiskMedium},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, risk := Classify(tc.stock, tc.eta, tc.lead)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.risk, risk)
		})
	}
}

func TestRoundIsHalfEven(t *testing.T) {
	assert.Equal(t, 2.0, Round(2.5, 0))
	assert.Equal(t, 4.0, Round(3.5, 0))
	assert.Equal(t, 0.12, Round(0.123, 2))
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "10", FormatDays(10))
	assert.Equal(t, "12.5", FormatDays(12.5))
}
