package alert

import (
	"math"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// Decision thresholds shared by the alert engine, the scenario narrative and
// their tests.
const (
	// WarningHorizonDays is the ETA below which a healthy item becomes a warning.
	WarningHorizonDays = 30.0

	// NoDemandETA is reported when the forecast carries no demand at all.
	NoDemandETA = 999.0

	// StockOutDateHorizon bounds the ETA for which a stock-out date is predicted.
	StockOutDateHorizon = 365.0

	OutOfStockReorderFactor = 1.2
	AtRiskReorderFactor     = 1.1
	WarningReorderFactor    = 0.8

	// ReorderPointSafetyFactor scales lead-time demand into the reorder point.
	ReorderPointSafetyFactor = 1.5
)

// Classify returns the status and risk level for a stock position. Branches
// are checked in order and the first match wins.
func Classify(currentStock, etaDays, leadTimeDays float64) (domain.StockStatus, domain.RiskLevel) {
	switch {
	case currentStock <= 0:
		return domain.StatusOutOfStock, domain.RiskCritical
	case etaDays < leadTimeDays:
		return domain.StatusAtRisk, domain.RiskHigh
	case etaDays < WarningHorizonDays:
		return domain.StatusWarning, domain.RiskMedium
	default:
		return domain.StatusHealthy, domain.RiskLow
	}
}

// ReorderQuantity is the recommended order size for a classified position.
func ReorderQuantity(status domain.StockStatus, totalDemand, currentStock float64) int {
	var qty float64
	switch status {
	case domain.StatusOutOfStock:
		qty = totalDemand * OutOfStockReorderFactor
	case domain.StatusAtRisk:
		qty = (totalDemand - currentStock) * AtRiskReorderFactor
	case domain.StatusWarning:
		qty = totalDemand * WarningReorderFactor
	}
	if qty < 0 {
		return 0
	}
	return int(math.RoundToEven(qty))
}

// Round rounds half to even at the given number of decimals.
func Round(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.RoundToEven(v*scale) / scale
}
