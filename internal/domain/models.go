package domain

import "time"

// Product is the stored stock snapshot of a SKU.
type Product struct {
	SKU          string    `json:"sku" db:"sku"`
	Name         string    `json:"name" db:"name"`
	Brand        string    `json:"brand" db:"brand"`
	Category     string    `json:"category" db:"category"`
	Location     string    `json:"location" db:"location"`
	SupplierName string    `json:"supplier_name" db:"supplier_name"`
	Stock        float64   `json:"stock" db:"stock"`
	DailySales   float64   `json:"daily_sales" db:"daily_sales"`
	WeeklySales  float64   `json:"weekly_sales" db:"weekly_sales"`
	LeadTime     float64   `json:"lead_time" db:"lead_time"`
	ReorderLevel float64   `json:"reorder_level" db:"reorder_level"`
	StockStatus  string    `json:"stock_status" db:"stock_status"`
	RiskLevel    string    `json:"risk_level" db:"risk_level"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

const (
	defaultProductDailySales  = 5
	defaultProductWeeklySales = 35
	defaultProductLeadTime    = 7
)

// ForecastRequest builds a request from the stored snapshot, substituting
// defaults for missing demand and lead-time data.
func (p Product) ForecastRequest(horizonDays int) ForecastRequest {
	daily := p.DailySales
	if daily <= 0 {
		daily = defaultProductDailySales
	}
	weekly := p.WeeklySales
	if weekly <= 0 {
		weekly = defaultProductWeeklySales
	}
	lead := p.LeadTime
	if lead <= 0 {
		lead = defaultProductLeadTime
	}
	return ForecastRequest{
		SKU:              p.SKU,
		CurrentStock:     p.Stock,
		DailyDemandRate:  daily,
		WeeklyDemandRate: weekly,
		LeadTimeDays:     lead,
		HorizonDays:      horizonDays,
	}
}

// StockInput is a custom prediction request: numeric snapshot plus the textual
// fields the classifier encodes.
type StockInput struct {
	SKU          string  `json:"sku"`
	ProductName  string  `json:"productName"`
	CurrentStock float64 `json:"currentStock"`
	DailySales   float64 `json:"dailySales"`
	WeeklySales  float64 `json:"weeklySales"`
	ReorderLevel float64 `json:"reorderLevel"`
	LeadTime     float64 `json:"leadTime"`
	Brand        string  `json:"brand"`
	Category     string  `json:"category"`
	Location     string  `json:"location"`
	SupplierName string  `json:"supplierName"`
	ForecastDays int     `json:"forecastDays"`
}

// ForecastRequest projects the input onto the forecaster contract.
func (in StockInput) ForecastRequest() ForecastRequest {
	return ForecastRequest{
		SKU:              in.SKU,
		CurrentStock:     in.CurrentStock,
		DailyDemandRate:  in.DailySales,
		WeeklyDemandRate: in.WeeklySales,
		LeadTimeDays:     in.LeadTime,
		HorizonDays:      in.ForecastDays,
	}
}

// StockFeatures is the encoded feature vector of the stock-status classifier.
type StockFeatures struct {
	CurrentStock float64 `json:"current_stock"`
	DailySales   float64 `json:"daily_sales"`
	WeeklySales  float64 `json:"weekly_sales"`
	ReorderLevel float64 `json:"reorder_level"`
	LeadTime     float64 `json:"lead_time"`
	DaysToEmpty  float64 `json:"days_to_empty"`
	Brand        int     `json:"brand"`
	Category     int     `json:"category"`
	Location     int     `json:"location"`
	SupplierName int     `json:"supplier_name"`
}

// Vector returns the features in training column order.
func (f StockFeatures) Vector() []float64 {
	return []float64{
		f.CurrentStock,
		f.DailySales,
		f.WeeklySales,
		f.ReorderLevel,
		f.LeadTime,
		f.DaysToEmpty,
		float64(f.Brand),
		float64(f.Category),
		float64(f.Location),
		float64(f.SupplierName),
	}
}

const (
	ClassificationSourceModel = "model"
	ClassificationSourceRules = "rules"
)

// StockClassification is the coarse (status, priority) pair.
type StockClassification struct {
	Status   string `json:"stock_status"`
	Priority string `json:"priority"`
	Source   string `json:"source"`
}

// ForecastRecord is a persisted forecast for a SKU.
type ForecastRecord struct {
	ID           string          `json:"id"`
	SKU          string          `json:"sku"`
	ProductName  string          `json:"productName"`
	CurrentStock float64         `json:"currentStock"`
	StockStatus  string          `json:"stockStatusPred"`
	Priority     string          `json:"priorityPred"`
	Alert        string          `json:"alert"`
	Insight      AlertInsight    `json:"aiInsights"`
	Points       []ForecastPoint `json:"forecastData"`
	Historical   []float64       `json:"historicalData,omitempty"`
	InputParams  StockInput      `json:"inputParams"`
	Method       string          `json:"forecastMethod"`
	UsedFallback bool            `json:"usedFallback"`
	ModelFit     *ModelFit       `json:"modelDetails"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
