package domain

import "time"

// SupplierRiskWeights are the fixed weights of the composite score.
type SupplierRiskWeights struct {
	Delay       float64 `json:"delay"`
	Quality     float64 `json:"quality"`
	Fulfillment float64 `json:"fulfillment"`
}

// DefaultSupplierRiskWeights sums to 1.0.
var DefaultSupplierRiskWeights = SupplierRiskWeights{Delay: 0.4, Quality: 0.3, Fulfillment: 0.3}

// SupplierScoreInput is the context a supplier is scored in. Values are fed to
// the predictors as given.
type SupplierScoreInput struct {
	SupplierID  string  `json:"supplier"`
	Category    string  `json:"category"`
	OrderedQty  float64 `json:"qty"`
	BasePrice   float64 `json:"price"`
	PaymentRisk float64 `json:"payment_risk"`
}

// Order context assumed when a scoring request leaves a field out.
const (
	DefaultSupplierCategory = "Electronics"
	DefaultSupplierQty      = 100.0
	DefaultSupplierPrice    = 50.0
)

// SupplierScoreRequest is a scoring request as received from a caller. Nil
// fields were absent and take the defaults; an explicit zero is kept.
type SupplierScoreRequest struct {
	SupplierID  string   `json:"supplier" binding:"required"`
	Category    *string  `json:"category"`
	OrderedQty  *float64 `json:"qty"`
	BasePrice   *float64 `json:"price"`
	PaymentRisk float64  `json:"payment_risk"`
}

// Input resolves absent fields to their defaults.
func (r SupplierScoreRequest) Input() SupplierScoreInput {
	in := SupplierScoreInput{
		SupplierID:  r.SupplierID,
		Category:    DefaultSupplierCategory,
		OrderedQty:  DefaultSupplierQty,
		BasePrice:   DefaultSupplierPrice,
		PaymentRisk: r.PaymentRisk,
	}
	if r.Category != nil {
		in.Category = *r.Category
	}
	if r.OrderedQty != nil {
		in.OrderedQty = *r.OrderedQty
	}
	if r.BasePrice != nil {
		in.BasePrice = *r.BasePrice
	}
	return in
}

// SupplierRiskProfile is an immutable scoring result.
type SupplierRiskProfile struct {
	SupplierID       string              `json:"supplier"`
	Category         string              `json:"category"`
	DelayScore       float64             `json:"delay"`
	QualityScore     float64             `json:"quality"`
	FulfillmentScore float64             `json:"fulfillment"`
	Weights          SupplierRiskWeights `json:"weights"`
	CompositeScore   float64             `json:"risk_score"`
	Label            SupplierRiskLabel   `json:"label"`
}

// SupplierTransaction is one historical purchase from a supplier.
type SupplierTransaction struct {
	ID               int64     `json:"id" db:"id"`
	Supplier         string    `json:"supplier" db:"supplier"`
	Category         string    `json:"category" db:"category"`
	OrderDate        time.Time `json:"order_date" db:"order_date"`
	OrderedQty       float64   `json:"ordered_qty" db:"ordered_qty"`
	BasePrice        float64   `json:"base_price" db:"base_price"`
	PaymentRisk      float64   `json:"payment_risk" db:"payment_risk"`
	DelayDays        float64   `json:"delay_days" db:"delay_days"`
	FulfillmentRatio float64   `json:"fulfillment_ratio" db:"fulfillment_ratio"`
	RejectionRatio   float64   `json:"rejection_ratio" db:"rejection_ratio"`
}

// SupplierOverview is one row of the supplier risk radar.
type SupplierOverview struct {
	Supplier       string            `json:"supplier"`
	Category       string            `json:"category"`
	AvgDelay       float64           `json:"avg_delay"`
	AvgFulfillment float64           `json:"avg_fulfillment"`
	AvgRejection   float64           `json:"avg_rejection"`
	RiskScore      float64           `json:"risk_score"`
	RiskLevel      SupplierRiskLabel `json:"risk_level"`
}

// SupplierHistoryPoint is one entry of a supplier's recent trend.
type SupplierHistoryPoint struct {
	Date        string  `json:"date"`
	Delay       float64 `json:"delay"`
	Rejection   float64 `json:"rejection"`
	Fulfillment float64 `json:"fulfillment"`
}
