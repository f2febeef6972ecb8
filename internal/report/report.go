// Package report renders forecasts and scenario comparisons as XLSX workbooks.
package report

import (
	"bytes"
	"fmt"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet  = "Summary"
	ForecastSheet = "Forecast"
	ScenarioSheet = "Scenario"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var forecastHeader = []interface{}{"Day", "Date", "Predicted Demand", "Projected Stock", "Confidence"}

// ForecastWorkbook renders a stored forecast: a key/value summary sheet and a
// day-by-day forecast sheet.
func ForecastWorkbook(rec *domain.ForecastRecord) (*excelize.File, error) {
	if rec == nil {
		return nil, fmt.Errorf("nil forecast record")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}

	summary := [][]interface{}{
		{"SKU", rec.SKU},
		{"Product", rec.ProductName},
		{"Current Stock", rec.CurrentStock},
		{"Stock Status", rec.StockStatus},
		{"Priority", rec.Priority},
		{"Alert Status", string(rec.Insight.Status)},
		{"Risk Level", string(rec.Insight.RiskLevel)},
		{"ETA (days)", etaCell(rec.Insight)},
		{"Recommended Reorder", rec.Insight.RecommendedReorderQty},
		{"Reorder Point", rec.Insight.ReorderPoint},
		{"Avg Daily Demand", rec.Insight.AvgDailyDemand},
		{"Predicted Stock-out", stockOutCell(rec.Insight)},
		{"Message", rec.Insight.Message},
		{"Method", rec.Method},
		{"Used Fallback", rec.UsedFallback},
		{"Generated At", rec.UpdatedAt.Format("2006-01-02 15:04:05")},
	}
	if rec.ModelFit != nil {
		summary = append(summary,
			[]interface{}{"Model Order", rec.ModelFit.Order.String()},
			[]interface{}{"AIC", rec.ModelFit.AIC},
			[]interface{}{"BIC", rec.ModelFit.BIC},
		)
	}
	if err := writeRows(f, SummarySheet, summary); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(ForecastSheet); err != nil {
		return nil, err
	}
	if err := writePoints(f, ForecastSheet, 1, rec.Points); err != nil {
		return nil, err
	}

	if err := boldRow(f, ForecastSheet, 1, len(forecastHeader)); err != nil {
		return nil, err
	}
	return f, nil
}

// ScenarioWorkbook renders a comparison: deltas and narrative on the summary
// sheet, both projections side by side on the scenario sheet.
func ScenarioWorkbook(sku string, cmp *domain.ScenarioComparison) (*excelize.File, error) {
	if cmp == nil {
		return nil, fmt.Errorf("nil scenario comparison")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}

	eta := interface{}("N/A")
	if cmp.ETADaysChange != nil {
		eta = *cmp.ETADaysChange
	}
	summary := [][]interface{}{
		{"SKU", sku},
		{"Demand Multiplier", cmp.Adjustments.DemandMultiplier},
		{"Sales Spike", cmp.Adjustments.SalesSpike},
		{"Lead Time Delta", cmp.Adjustments.LeadTimeDelta},
		{"Stock Delta", cmp.Adjustments.StockDelta},
		{"Baseline Total Demand", cmp.Baseline.TotalDemand},
		{"Scenario Total Demand", cmp.Scenario.TotalDemand},
		{"Demand Change %", cmp.DemandChangePercent},
		{"ETA Change (days)", eta},
		{"Stock-out Risk", cmp.StockoutRiskChange},
		{"Recommended Action", cmp.RecommendedAction},
		{"Situation", cmp.Narrative.Situation},
		{"Risk", cmp.Narrative.Risk},
		{"Action", cmp.Narrative.Action},
	}
	if err := writeRows(f, SummarySheet, summary); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(ScenarioSheet); err != nil {
		return nil, err
	}
	header := []interface{}{"Day", "Date", "Baseline Demand", "Baseline Stock", "Scenario Demand", "Scenario Stock"}
	if err := f.SetSheetRow(ScenarioSheet, "A1", &header); err != nil {
		return nil, err
	}
	base, scen := points(cmp.Baseline.Forecast), points(cmp.Scenario.Forecast)
	for i := 0; i < len(base) && i < len(scen); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{base[i].DayOffset, base[i].Date, base[i].PredictedDemand, base[i].ProjectedStock,
			scen[i].PredictedDemand, scen[i].ProjectedStock}
		if err := f.SetSheetRow(ScenarioSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := boldRow(f, ScenarioSheet, 1, len(header)); err != nil {
		return nil, err
	}
	return f, nil
}

// Bytes serializes a workbook.
func Bytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

// ObjectKey is the storage key of an exported forecast.
func ObjectKey(prefix, sku string) string {
	return fmt.Sprintf("%sforecast_%s.xlsx", prefix, sku)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func writePoints(f *excelize.File, sheet string, startRow int, pts []domain.ForecastPoint) error {
	header := forecastHeader
	if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", startRow), &header); err != nil {
		return err
	}
	for i, p := range pts {
		row := []interface{}{p.DayOffset, p.Date, p.PredictedDemand, p.ProjectedStock, p.Confidence}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", startRow+i+1), &row); err != nil {
			return err
		}
	}
	return nil
}

func boldRow(f *excelize.File, sheet string, row, cols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), last, style)
}

func points(r *domain.ForecastResult) []domain.ForecastPoint {
	if r == nil {
		return nil
	}
	return r.Points
}

func etaCell(in domain.AlertInsight) interface{} {
	if in.ETADays == nil {
		return "N/A"
	}
	return *in.ETADays
}

func stockOutCell(in domain.AlertInsight) string {
	if in.PredictedStockOutDate == nil {
		return "N/A"
	}
	return *in.PredictedStockOutDate
}
