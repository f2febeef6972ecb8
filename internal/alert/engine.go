package alert

import (
	"fmt"
	"strconv"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// Engine turns a forecast and a stock position into an AlertInsight. It is
// stateless apart from its clock.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineWithClock pins the clock used for the predicted stock-out date.
func NewEngineWithClock(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Evaluate walks the forecast against currentStock to find the depletion day
// and classifies the result.
func (e *Engine) Evaluate(currentStock, leadTimeDays float64, result *domain.ForecastResult) domain.AlertInsight {
	var points []domain.ForecastPoint
	if result != nil {
		points = result.Points
	}
	total := result.TotalDemand()

	eta := DepletionETA(currentStock, points)

	var avg float64
	if len(points) > 0 {
		avg = total / float64(len(points))
	}

	status, risk := Classify(currentStock, eta, leadTimeDays)
	insight := domain.AlertInsight{
		Status:                status,
		RiskLevel:             risk,
		ETADays:               &eta,
		RecommendedReorderQty: ReorderQuantity(status, total, currentStock),
		AvgDailyDemand:        Round(avg, 2),
	}
	insight.ReorderPoint = Round(insight.AvgDailyDemand*leadTimeDays*ReorderPointSafetyFactor, 0)
	insight.Message = message(status, eta, insight.RecommendedReorderQty)

	if eta > 0 && eta < StockOutDateHorizon {
		date := e.now().Add(time.Duration(eta * float64(24*time.Hour))).Format("2006-01-02")
		insight.PredictedStockOutDate = &date
	}
	return insight
}

// DepletionETA returns the first day offset at which the running stock reaches
// zero. When the horizon ends first, the ETA is extrapolated from the average
// daily demand, or NoDemandETA when there is none.
func DepletionETA(currentStock float64, points []domain.ForecastPoint) float64 {
	running := currentStock
	var total float64
	for i, p := range points {
		running -= p.PredictedDemand
		total += p.PredictedDemand
		if running <= 0 {
			return float64(i + 1)
		}
	}
	if len(points) == 0 || total <= 0 {
		return NoDemandETA
	}
	return Round(currentStock/(total/float64(len(points))), 1)
}

func message(status domain.StockStatus, eta float64, reorder int) string {
	days := FormatDays(eta)
	switch status {
	case domain.StatusOutOfStock:
		return fmt.Sprintf("Immediate restock required. Recommended: %d units.", reorder)
	case domain.StatusAtRisk:
		return fmt.Sprintf("Stock-out predicted in %s days. Reorder %d units now.", days, reorder)
	case domain.StatusWarning:
		return fmt.Sprintf("Inventory sufficient for %s days. Plan reorder soon.", days)
	default:
		return "Stock levels are optimal."
	}
}

// FormatDays prints a day count without a trailing ".0".
func FormatDays(days float64) string {
	return strconv.FormatFloat(days, 'f', -1, 64)
}
