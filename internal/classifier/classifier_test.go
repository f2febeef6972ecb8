package classifier

import (
	"strings"
	"testing"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The status head picks class 1 (Understock) when stock < 50, else class 0.
// The priority head always lands on index 5, which the encoder cannot decode.
const stockStatusJSON = `{
  "name": "stock_status",
  "features": ["current_stock","daily_sales","weekly_sales","reorder_level","lead_time","days_to_empty","brand","category","location","supplier_name"],
  "encoders": {
    "brand": ["Acme", "Globex"],
    "category": ["Dairy"],
    "location": ["North"],
    "supplier_name": ["Initech"],
    "stock_status": ["In Stock", "Understock"],
    "priority": ["Low", "High"]
  },
  "status_model": {"num_class": 2, "trees": [
    {"nodes": [{"feature": 0, "threshold": 50, "left": 1, "right": 2}, {"leaf": 0}, {"leaf": 1}]},
    {"nodes": [{"feature": 0, "threshold": 50, "left": 1, "right": 2}, {"leaf": 1}, {"leaf": 0}]}
  ]},
  "priority_model": {"num_class": 6, "trees": [
    {"nodes": [{"leaf": 0}]}, {"nodes": [{"leaf": 0}]}, {"nodes": [{"leaf": 0}]},
    {"nodes": [{"leaf": 0}]}, {"nodes": [{"leaf": 0}]}, {"nodes": [{"leaf": 1}]}
  ]}
}`

func TestRuleBasedPredictor(t *testing.T) {
	tests := []struct {
		name     string
		f        domain.StockFeatures
		status   string
		priority string
	}{
		{"empty", domain.StockFeatures{CurrentStock: 0, ReorderLevel: 10}, StatusOutOfStock, PriorityVeryHigh},
		{"negative", domain.StockFeatures{CurrentStock: -2, ReorderLevel: 10}, StatusOutOfStock, PriorityVeryHigh},
		{"understock urgent", domain.StockFeatures{CurrentStock: 5, ReorderLevel: 10, DaysToEmpty: 2}, StatusUnderstock, PriorityHigh},
		{"understock", domain.StockFeatures{CurrentStock: 5, ReorderLevel: 10, DaysToEmpty: 7}, StatusUnderstock, PriorityMedium},
		{"overstock", domain.StockFeatures{CurrentStock: 31, ReorderLevel: 10}, StatusOverstock, PriorityLow},
		{"at three times reorder", domain.StockFeatures{CurrentStock: 30, ReorderLevel: 10}, StatusInStock, PriorityMedium},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := RuleBasedPredictor{}.Predict(tc.f)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.priority, got.Priority)
			assert.Equal(t, domain.ClassificationSourceRules, got.Source)
		})
	}
}

func TestNewFallsBackToRules(t *testing.T) {
	_, ok := New(nil).(RuleBasedPredictor)
	assert.True(t, ok)

	_, ok = New(&model.Bundle{Name: "regressor", Model: &model.Ensemble{}}).(RuleBasedPredictor)
	assert.True(t, ok)
}

func TestTrainedPredictor(t *testing.T) {
	b, err := model.DecodeBundle(strings.NewReader(stockStatusJSON))
	require.NoError(t, err)

	p := New(b)
	_, ok := p.(*TrainedPredictor)
	require.True(t, ok)

	got := p.Predict(domain.StockFeatures{CurrentStock: 20})
	assert.Equal(t, "Understock", got.Status)
	assert.Equal(t, model.UnknownClass, got.Priority)
	assert.Equal(t, domain.ClassificationSourceModel, got.Source)

	got = p.Predict(domain.StockFeatures{CurrentStock: 200})
	assert.Equal(t, "In Stock", got.Status)
}

func TestBuildFeatures(t *testing.T) {
	b, err := model.DecodeBundle(strings.NewReader(stockStatusJSON))
	require.NoError(t, err)

	f := BuildFeatures(domain.StockInput{
		CurrentStock: 40,
		DailySales:   8,
		WeeklySales:  56,
		ReorderLevel: 20,
		LeadTime:     5,
		Brand:        "Globex",
		Category:     "Frozen",
		Location:     "North",
		SupplierName: "Initech",
	}, b.Encoders)

	assert.Equal(t, 5.0, f.DaysToEmpty)
	assert.Equal(t, 1, f.Brand)
	assert.Equal(t, 1, f.Category) // Unknown bucket appended after "Dairy"
	assert.Equal(t, 0, f.Location)
	assert.Equal(t, 0, f.SupplierName)
	assert.Len(t, f.Vector(), 10)

	f = BuildFeatures(domain.StockInput{CurrentStock: 40}, nil)
	assert.Equal(t, NoDemandDaysToEmpty, f.DaysToEmpty)
	assert.Equal(t, 0, f.Brand)
}
