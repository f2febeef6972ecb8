package supplier

import (
	"math"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/model"
	"github.com/pkg/errors"
)

// Sub-score scales. Each maps a raw prediction onto 0..100.
const (
	delayScale       = 6.6  // ~15 days of delay saturates
	rejectionScale   = 1000 // 10% rejections saturate
	fulfillmentScale = 500  // 80% fulfilment saturates

	highRiskAbove   = 70.0
	mediumRiskAbove = 40.0
)

// Predictor is one trained sub-model over the five-feature supplier vector.
type Predictor interface {
	Predict(x []float64) (float64, error)
}

// head is one sub-model together with the encoders it was trained with.
type head struct {
	predictor Predictor
	encoders  model.EncoderSet
}

// Scorer combines the delay, quality and fulfilment predictors into a
// composite supplier risk. It holds only read-only state.
type Scorer struct {
	delay       head
	quality     head
	fulfillment head
	weights     domain.SupplierRiskWeights
}

// NewScorer wires the supplier bundles of a registry, each with its own
// encoders. Missing bundles leave the scorer unable to score; every call then
// fails with ErrModelUnavailable.
func NewScorer(reg *model.Registry) *Scorer {
	s := &Scorer{weights: domain.DefaultSupplierRiskWeights}
	if reg == nil {
		return s
	}
	s.delay = bundleHead(reg.Delay)
	s.quality = bundleHead(reg.Quality)
	s.fulfillment = bundleHead(reg.Fulfillment)
	return s
}

// bundleHead keeps a missing bundle as a nil interface.
func bundleHead(b *model.Bundle) head {
	if b == nil {
		return head{}
	}
	return head{predictor: b, encoders: b.Encoders}
}

// NewScorerWithPredictors builds a scorer from explicit predictors sharing one
// encoder set.
func NewScorerWithPredictors(delay, quality, fulfillment Predictor, encoders model.EncoderSet) *Scorer {
	return &Scorer{
		delay:       head{predictor: delay, encoders: encoders},
		quality:     head{predictor: quality, encoders: encoders},
		fulfillment: head{predictor: fulfillment, encoders: encoders},
		weights:     domain.DefaultSupplierRiskWeights,
	}
}

// Available reports whether all three predictors are loaded.
func (s *Scorer) Available() bool {
	return s.delay.predictor != nil && s.quality.predictor != nil && s.fulfillment.predictor != nil
}

// Score evaluates all three predictors for the input. Any failure fails the
// whole call; no partial profile is returned.
func (s *Scorer) Score(in domain.SupplierScoreInput) (*domain.SupplierRiskProfile, error) {
	if in.SupplierID == "" {
		return nil, domain.InvalidInputf("supplier is required")
	}
	if !s.Available() {
		return nil, errors.Wrap(domain.ErrModelUnavailable, "supplier risk models are not loaded")
	}

	delayDays, err := s.delay.predict(in)
	if err != nil {
		return nil, errors.Wrap(err, "delay predictor")
	}
	rejection, err := s.quality.predict(in)
	if err != nil {
		return nil, errors.Wrap(err, "quality predictor")
	}
	fulfillment, err := s.fulfillment.predict(in)
	if err != nil {
		return nil, errors.Wrap(err, "fulfillment predictor")
	}

	delay := clamp(delayDays * delayScale)
	quality := clamp(rejection * rejectionScale)
	fulfil := clamp((1 - fulfillment) * fulfillmentScale)
	composite := clamp(s.weights.Delay*delay + s.weights.Quality*quality + s.weights.Fulfillment*fulfil)

	return &domain.SupplierRiskProfile{
		SupplierID:       in.SupplierID,
		Category:         in.Category,
		DelayScore:       round2(delay),
		QualityScore:     round2(quality),
		FulfillmentScore: round2(fulfil),
		Weights:          s.weights,
		CompositeScore:   round2(composite),
		Label:            Label(composite),
	}, nil
}

func (h head) predict(in domain.SupplierScoreInput) (float64, error) {
	return h.predictor.Predict(h.features(in))
}

// features builds [supplier, category, qty, price, payment risk]. Unseen
// supplier or category strings encode to index 0.
func (h head) features(in domain.SupplierScoreInput) []float64 {
	return []float64{
		float64(h.lookup("supplier", in.SupplierID)),
		float64(h.lookup("category", in.Category)),
		in.OrderedQty,
		in.BasePrice,
		in.PaymentRisk,
	}
}

func (h head) lookup(field, value string) int {
	enc, ok := h.encoders.Get(field)
	if !ok {
		return 0
	}
	idx, ok := enc.Lookup(value)
	if !ok {
		return 0
	}
	return idx
}

// Label buckets a composite score: above 70 is High, above 40 Medium.
func Label(composite float64) domain.SupplierRiskLabel {
	switch {
	case composite > highRiskAbove:
		return domain.SupplierRiskHigh
	case composite > mediumRiskAbove:
		return domain.SupplierRiskMedium
	default:
		return domain.SupplierRiskLow
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(100, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
