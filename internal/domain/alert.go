package domain

// AlertInsight is the decision derived from a forecast and the current stock.
// RiskLevel is Critical exactly when Status is OUT OF STOCK, which happens
// exactly when the current stock is zero or below.
type AlertInsight struct {
	Status                StockStatus `json:"status"`
	RiskLevel             RiskLevel   `json:"risk_level"`
	ETADays               *float64    `json:"eta_days"`
	RecommendedReorderQty int         `json:"recommended_reorder"`
	AvgDailyDemand        float64     `json:"avg_daily_demand"`
	ReorderPoint          float64     `json:"reorder_point"`
	PredictedStockOutDate *string     `json:"predicted_stock_out_date"`
	Message               string      `json:"message"`
}

// ETA returns the ETA in days, or def when none was computed.
func (a AlertInsight) ETA(def float64) float64 {
	if a.ETADays == nil {
		return def
	}
	return *a.ETADays
}
