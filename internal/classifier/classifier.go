package classifier

import (
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/model"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Stock status and priority labels produced by the rule table. A trained
// predictor returns whatever labels its target encoders carry.
const (
	StatusOutOfStock = "Out of Stock"
	StatusUnderstock = "Understock"
	StatusOverstock  = "Overstock"
	StatusInStock    = "In Stock"

	PriorityVeryHigh = "Very High"
	PriorityHigh     = "High"
	PriorityMedium   = "Medium"
	PriorityLow      = "Low"

	// NoDemandDaysToEmpty stands in for days-to-empty when there are no sales.
	NoDemandDaysToEmpty = 999.0

	urgentDaysToEmpty = 7.0
	overstockFactor   = 3.0
)

// Predictor maps an encoded feature vector to a (status, priority) pair.
type Predictor interface {
	Predict(f domain.StockFeatures) domain.StockClassification
}

// New picks the trained predictor when the bundle carries both heads, else the
// rule table. It is called once at startup.
func New(bundle *model.Bundle) Predictor {
	p, err := NewTrainedPredictor(bundle)
	if err != nil {
		log.Warn().Err(err).Msg("stock status model unavailable, using rule-based classifier")
		return RuleBasedPredictor{}
	}
	return p
}

// RuleBasedPredictor is the deterministic fallback classifier.
type RuleBasedPredictor struct{}

func (RuleBasedPredictor) Predict(f domain.StockFeatures) domain.StockClassification {
	c := domain.StockClassification{Source: domain.ClassificationSourceRules}
	switch {
	case f.CurrentStock <= 0:
		c.Status, c.Priority = StatusOutOfStock, PriorityVeryHigh
	case f.CurrentStock < f.ReorderLevel:
		c.Status, c.Priority = StatusUnderstock, PriorityMedium
		if f.DaysToEmpty < urgentDaysToEmpty {
			c.Priority = PriorityHigh
		}
	case f.CurrentStock > overstockFactor*f.ReorderLevel:
		c.Status, c.Priority = StatusOverstock, PriorityLow
	default:
		c.Status, c.Priority = StatusInStock, PriorityMedium
	}
	return c
}

// TrainedPredictor evaluates the two classification heads of the stock-status
// bundle and decodes them through the bundle's target encoders.
type TrainedPredictor struct {
	bundle *model.Bundle
}

func NewTrainedPredictor(bundle *model.Bundle) (*TrainedPredictor, error) {
	if bundle == nil || bundle.StatusModel == nil || bundle.PriorityModel == nil {
		return nil, errors.Wrap(domain.ErrModelUnavailable, "stock status bundle needs status and priority heads")
	}
	return &TrainedPredictor{bundle: bundle}, nil
}

func (p *TrainedPredictor) Predict(f domain.StockFeatures) domain.StockClassification {
	x := f.Vector()
	return domain.StockClassification{
		Status:   p.head(p.bundle.StatusModel, "stock_status", x),
		Priority: p.head(p.bundle.PriorityModel, "priority", x),
		Source:   domain.ClassificationSourceModel,
	}
}

func (p *TrainedPredictor) head(m *model.Ensemble, target string, x []float64) string {
	idx, err := m.Predict(x)
	if err != nil {
		log.Debug().Err(err).Str("target", target).Msg("classifier: prediction failed")
		return model.UnknownClass
	}
	enc, ok := p.bundle.Encoders.Get(target)
	if !ok {
		return model.UnknownClass
	}
	label, ok := enc.Decode(int(idx))
	if !ok {
		return model.UnknownClass
	}
	return label
}

// BuildFeatures encodes a stock input. Unseen categorical values land in the
// Unknown bucket of their encoder.
func BuildFeatures(in domain.StockInput, encoders model.EncoderSet) domain.StockFeatures {
	dte := NoDemandDaysToEmpty
	if in.DailySales > 0 {
		dte = in.CurrentStock / in.DailySales
	}
	return domain.StockFeatures{
		CurrentStock: in.CurrentStock,
		DailySales:   in.DailySales,
		WeeklySales:  in.WeeklySales,
		ReorderLevel: in.ReorderLevel,
		LeadTime:     in.LeadTime,
		DaysToEmpty:  dte,
		Brand:        encoders.Encode("brand", in.Brand),
		Category:     encoders.Encode("category", in.Category),
		Location:     encoders.Encode("location", in.Location),
		SupplierName: encoders.Encode("supplier_name", in.SupplierName),
	}
}
