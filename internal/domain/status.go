package domain

import "strings"

// StockStatus is the alert status of an item against its forecast.
type StockStatus string

const (
	StatusHealthy    StockStatus = "Healthy"
	StatusWarning    StockStatus = "Warning"
	StatusAtRisk     StockStatus = "At Risk"
	StatusOutOfStock StockStatus = "OUT OF STOCK"
)

// RiskLevel is the stock-out risk label paired with a StockStatus.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

var riskRanks = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

var riskLevels = map[string]RiskLevel{
	"low":      RiskLow,
	"medium":   RiskMedium,
	"high":     RiskHigh,
	"critical": RiskCritical,
}

// Rank orders risk levels from Low (0) to Critical (3); unknown levels rank -1.
func (r RiskLevel) Rank() int {
	if rank, ok := riskRanks[r]; ok {
		return rank
	}

	return -1
}

// ParseRiskLevel returns the risk level for a given label (case-insensitive).
func ParseRiskLevel(label string) (RiskLevel, bool) {
	level, ok := riskLevels[strings.ToLower(strings.TrimSpace(label))]

	return level, ok
}

// SupplierRiskLabel is the composite supplier risk bucket.
type SupplierRiskLabel string

const (
	SupplierRiskLow    SupplierRiskLabel = "Low"
	SupplierRiskMedium SupplierRiskLabel = "Medium"
	SupplierRiskHigh   SupplierRiskLabel = "High"
)
