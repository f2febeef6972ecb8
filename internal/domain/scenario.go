package domain

import (
	"sort"
	"strings"
)

// ScenarioAdjustments are the counterfactual knobs applied to a baseline request.
type ScenarioAdjustments struct {
	DemandMultiplier float64 `json:"demandMultiplier"`
	SalesSpike       float64 `json:"salesSpike"`
	LeadTimeDelta    float64 `json:"leadTimeDelta"`
	StockDelta       float64 `json:"stockDelta"`
}

// DefaultAdjustments returns the identity adjustments.
func DefaultAdjustments() ScenarioAdjustments {
	return ScenarioAdjustments{DemandMultiplier: 1, SalesSpike: 1}
}

// IsIdentity reports whether applying a leaves a request unchanged.
func (a ScenarioAdjustments) IsIdentity() bool {
	return a.DemandMultiplier == 1 && a.SalesSpike == 1 && a.LeadTimeDelta == 0 && a.StockDelta == 0
}

// Validate rejects multipliers that would make the scenario rates non-positive.
func (a ScenarioAdjustments) Validate() error {
	if a.DemandMultiplier <= 0 {
		return InvalidInputf("demandMultiplier must be greater than 0, got %v", a.DemandMultiplier)
	}
	if a.SalesSpike <= 0 {
		return InvalidInputf("salesSpike must be greater than 0, got %v", a.SalesSpike)
	}
	return nil
}

// ParseAdjustments builds adjustments from loosely typed options. Missing keys
// keep their identity value; unrecognized keys are an InvalidInput error.
func ParseAdjustments(raw map[string]float64) (ScenarioAdjustments, error) {
	adj := DefaultAdjustments()

	var unknown []string
	for key, value := range raw {
		switch key {
		case "demandMultiplier":
			adj.DemandMultiplier = value
		case "salesSpike":
			adj.SalesSpike = value
		case "leadTimeDelta":
			adj.LeadTimeDelta = value
		case "stockDelta":
			adj.StockDelta = value
		default:
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return adj, InvalidInputf("unsupported scenario adjustment keys: %s", strings.Join(unknown, ", "))
	}

	return adj, adj.Validate()
}

// Apply returns the scenario request derived from baseline.
func (a ScenarioAdjustments) Apply(baseline ForecastRequest) ForecastRequest {
	scenario := baseline
	scenario.DailyDemandRate = baseline.DailyDemandRate * a.DemandMultiplier * a.SalesSpike
	scenario.WeeklyDemandRate = baseline.WeeklyDemandRate * a.DemandMultiplier * a.SalesSpike
	scenario.CurrentStock = baseline.CurrentStock + a.StockDelta
	scenario.LeadTimeDays = baseline.LeadTimeDays + a.LeadTimeDelta
	return scenario
}

// ScenarioRun is one pass of forecast + alert.
type ScenarioRun struct {
	Request      ForecastRequest `json:"parameters"`
	Forecast     *ForecastResult `json:"forecast"`
	Insight      AlertInsight    `json:"insights"`
	TotalDemand  float64         `json:"totalDemand"`
	StockoutRisk RiskLevel       `json:"stockoutRisk"`
}

// ScenarioNarrative is the situation / risk / action explanation of a scenario.
type ScenarioNarrative struct {
	Situation string `json:"situation"`
	Risk      string `json:"risk"`
	Action    string `json:"action"`
}

// ScenarioComparison holds the baseline and scenario runs plus their deltas.
type ScenarioComparison struct {
	Baseline            ScenarioRun         `json:"baseline"`
	Scenario            ScenarioRun         `json:"scenario"`
	Adjustments         ScenarioAdjustments `json:"adjustments"`
	DemandChangePercent float64             `json:"demandChangePercent"`
	DemandChangeDelta   float64             `json:"demandChangeDelta"`
	ETADaysChange       *float64            `json:"etaDaysChange"`
	StockoutRiskChange  string              `json:"stockoutRiskChange"`
	RecommendedAction   string              `json:"recommendedAction"`
	Narrative           ScenarioNarrative   `json:"analysis"`
}
