package domain

import "fmt"

// ForecastRequest is the demand/stock snapshot a forecast is computed from.
type ForecastRequest struct {
	SKU              string  `json:"sku,omitempty"`
	CurrentStock     float64 `json:"current_stock"`
	DailyDemandRate  float64 `json:"daily_demand_rate"`
	WeeklyDemandRate float64 `json:"weekly_demand_rate"`
	LeadTimeDays     float64 `json:"lead_time_days"`
	HorizonDays      int     `json:"horizon_days"`
}

// Validate rejects non-positive rates and horizons. Rates are never clamped.
func (r ForecastRequest) Validate() error {
	if r.DailyDemandRate <= 0 {
		return InvalidInputf("daily demand rate must be greater than 0, got %v", r.DailyDemandRate)
	}
	if r.WeeklyDemandRate <= 0 {
		return InvalidInputf("weekly demand rate must be greater than 0, got %v", r.WeeklyDemandRate)
	}
	if r.HorizonDays <= 0 {
		return InvalidInputf("horizon days must be greater than 0, got %d", r.HorizonDays)
	}
	if r.LeadTimeDays < 0 {
		return InvalidInputf("lead time must not be negative, got %v", r.LeadTimeDays)
	}
	return nil
}

// ARIMAOrder is the (p,d,q) order of a candidate time-series model.
type ARIMAOrder struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

func (o ARIMAOrder) String() string {
	return fmt.Sprintf("(%d,%d,%d)", o.P, o.D, o.Q)
}

// ModelFit is the metadata of the winning candidate, kept for auditability.
type ModelFit struct {
	Order            ARIMAOrder `json:"order"`
	AIC              float64    `json:"aic"`
	BIC              float64    `json:"bic"`
	Params           []float64  `json:"params"`
	HistoricalPoints int        `json:"historical_points"`
	ForecastMean     float64    `json:"forecast_mean"`
	ForecastStd      float64    `json:"forecast_std"`
}

// ForecastPoint is one projected day.
type ForecastPoint struct {
	DayOffset       int     `json:"day_offset"`
	Date            string  `json:"date"`
	PredictedDemand float64 `json:"predicted"`
	ProjectedStock  float64 `json:"projected_stock"`
	Confidence      float64 `json:"confidence"`
}

const (
	ForecastMethodARIMA    = "ARIMA"
	ForecastMethodFallback = "Fallback"
)

// ForecastResult is a finite day-by-day projection. Each forecast call builds a
// fresh one; nothing is shared between results.
type ForecastResult struct {
	Points           []ForecastPoint `json:"points"`
	Method           string          `json:"method"`
	UsedFallback     bool            `json:"used_fallback"`
	ModelFit         *ModelFit       `json:"model_fit"`
	HistoricalSeries []float64       `json:"historical_series,omitempty"`
}

// Demand returns the raw predicted demand sequence.
func (r *ForecastResult) Demand() []float64 {
	if r == nil {
		return nil
	}
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.PredictedDemand
	}
	return out
}

// TotalDemand sums predicted demand over the horizon.
func (r *ForecastResult) TotalDemand() float64 {
	if r == nil {
		return 0
	}
	var total float64
	for _, p := range r.Points {
		total += p.PredictedDemand
	}
	return total
}

// ForecastOutcome is the forecastAndAlert result.
type ForecastOutcome struct {
	Forecast     *ForecastResult `json:"forecast"`
	Insight      AlertInsight    `json:"insight"`
	ModelMeta    *ModelFit       `json:"model_meta"`
	UsedFallback bool            `json:"used_fallback"`
}
