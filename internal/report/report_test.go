package report

import (
	"bytes"
	"testing"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRecord() *domain.ForecastRecord {
	eta := 9.0
	return &domain.ForecastRecord{
		SKU:         "SKU-7",
		ProductName: "Oat Milk",
		Insight: domain.AlertInsight{
			Status:                domain.StatusWarning,
			RiskLevel:             domain.RiskMedium,
			ETADays:               &eta,
			RecommendedReorderQty: 120,
		},
		Points: []domain.ForecastPoint{
			{DayOffset: 1, Date: "2025-03-04", PredictedDemand: 10.5, ProjectedStock: 89.5, Confidence: 0.95},
			{DayOffset: 2, Date: "2025-03-05", PredictedDemand: 9.5, ProjectedStock: 80, Confidence: 0.946},
		},
		Method:   domain.ForecastMethodARIMA,
		ModelFit: &domain.ModelFit{Order: domain.ARIMAOrder{P: 1, D: 1, Q: 1}, AIC: 210.4},
	}
}

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	data, err := Bytes(f)
	require.NoError(t, err)
	out, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	return out
}

func TestForecastWorkbook(t *testing.T) {
	f, err := ForecastWorkbook(sampleRecord())
	require.NoError(t, err)

	wb := reopen(t, f)
	assert.Equal(t, []string{SummarySheet, ForecastSheet}, wb.GetSheetList())

	v, err := wb.GetCellValue(SummarySheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "SKU-7", v)

	rows, err := wb.GetRows(ForecastSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Predicted Demand", rows[0][2])
	assert.Equal(t, "2025-03-05", rows[2][1])

	summary, err := wb.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, "(1,1,1)", summary[len(summary)-3][1])
}

func TestScenarioWorkbook(t *testing.T) {
	rec := sampleRecord()
	change := -4.5
	cmp := &domain.ScenarioComparison{
		Baseline:            domain.ScenarioRun{Forecast: &domain.ForecastResult{Points: rec.Points}, TotalDemand: 20},
		Scenario:            domain.ScenarioRun{Forecast: &domain.ForecastResult{Points: rec.Points}, TotalDemand: 30},
		Adjustments:         domain.ScenarioAdjustments{DemandMultiplier: 1.5, SalesSpike: 1},
		DemandChangePercent: 50,
		ETADaysChange:       &change,
		StockoutRiskChange:  "Low → Medium",
	}

	f, err := ScenarioWorkbook("SKU-7", cmp)
	require.NoError(t, err)

	wb := reopen(t, f)
	rows, err := wb.GetRows(ScenarioSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Scenario Stock", rows[0][5])

	v, err := wb.GetCellValue(SummarySheet, "B10")
	require.NoError(t, err)
	assert.Equal(t, "Low → Medium", v)
}

func TestWorkbookRejectsNil(t *testing.T) {
	_, err := ForecastWorkbook(nil)
	assert.Error(t, err)
	_, err = ScenarioWorkbook("x", nil)
	assert.Error(t, err)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "reports/forecast_SKU-1.xlsx", ObjectKey("reports/", "SKU-1"))
}
