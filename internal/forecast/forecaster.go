package forecast

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
)

const (
	DefaultHistoryDays = 60
	DefaultMaxHorizon  = 365

	confidenceStart = 0.95
	confidenceDecay = 0.004
	confidenceFloor = 0.75
)

// CandidateOrders are tried in priority order; the lowest AIC wins.
var CandidateOrders = []domain.ARIMAOrder{
	{P: 1, D: 1, Q: 1},
	{P: 2, D: 1, Q: 1},
	{P: 1, D: 1, Q: 2},
	{P: 2, D: 1, Q: 2},
	{P: 0, D: 1, Q: 1},
}

// Forecaster projects daily demand from two scalar rates. It holds no mutable
// state; every call draws from its own pseudo-random source.
type Forecaster struct {
	fitter      Fitter
	orders      []domain.ARIMAOrder
	historyDays int
	maxHorizon  int
	jitter      bool
	seed        int64
	now         func() time.Time
}

type Option func(*Forecaster)

// WithFitter replaces the candidate fitter.
func WithFitter(f Fitter) Option {
	return func(fc *Forecaster) { fc.fitter = f }
}

// WithSeed pins the pseudo-random source. Zero keeps a fresh seed per call.
func WithSeed(seed int64) Option {
	return func(fc *Forecaster) { fc.seed = seed }
}

// WithJitter toggles the ±5% multiplicative jitter applied to model forecasts.
func WithJitter(enabled bool) Option {
	return func(fc *Forecaster) { fc.jitter = enabled }
}

func WithHistoryDays(n int) Option {
	return func(fc *Forecaster) {
		if n > 0 {
			fc.historyDays = n
		}
	}
}

func WithMaxHorizon(n int) Option {
	return func(fc *Forecaster) {
		if n > 0 {
			fc.maxHorizon = n
		}
	}
}

func WithOrders(orders []domain.ARIMAOrder) Option {
	return func(fc *Forecaster) { fc.orders = orders }
}

func WithClock(now func() time.Time) Option {
	return func(fc *Forecaster) { fc.now = now }
}

func NewForecaster(opts ...Option) *Forecaster {
	f := &Forecaster{
		fitter:      NewCSSFitter(),
		orders:      CandidateOrders,
		historyDays: DefaultHistoryDays,
		maxHorizon:  DefaultMaxHorizon,
		jitter:      true,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Forecaster) newRand() *rand.Rand {
	seed := f.seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return rand.New(rand.NewSource(seed))
}

// Forecast synthesizes a history from the request rates, selects the candidate
// model with the lowest AIC and projects HorizonDays ahead. When no candidate
// fits, the smoothing fallback is used and UsedFallback is set.
func (f *Forecaster) Forecast(req domain.ForecastRequest) (*domain.ForecastResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.HorizonDays > f.maxHorizon {
		return nil, domain.InvalidInputf("horizon days must be at most %d, got %d", f.maxHorizon, req.HorizonDays)
	}

	rng := f.newRand()
	history := SynthesizeHistory(req.DailyDemandRate, req.WeeklyDemandRate, f.historyDays, rng)

	result := &domain.ForecastResult{HistoricalSeries: history}

	best := f.selectModel(history)
	var demand []float64
	if best != nil {
		demand = best.Forecast(req.HorizonDays)
		for i, v := range demand {
			if v < 0 || math.IsNaN(v) {
				v = 0
			}
			if f.jitter {
				v *= uniform(rng, jitterLow, jitterHigh)
			}
			demand[i] = v
		}
		if !allFinite(demand) {
			log.Debug().Str("order", best.Order.String()).Msg("forecast: model projection not finite, using fallback")
			best = nil
		}
	}

	if best == nil {
		demand = FallbackForecast(req.DailyDemandRate, req.WeeklyDemandRate, req.HorizonDays, rng)
		result.Method = domain.ForecastMethodFallback
		result.UsedFallback = true
	} else {
		mean, std := stat.MeanStdDev(demand, nil)
		result.Method = domain.ForecastMethodARIMA
		result.ModelFit = &domain.ModelFit{
			Order:            best.Order,
			AIC:              best.AIC,
			BIC:              best.BIC,
			Params:           best.Params(),
			HistoricalPoints: len(history),
			ForecastMean:     mean,
			ForecastStd:      std,
		}
	}

	result.Points = BuildPoints(demand, req.CurrentStock, f.now())
	return result, nil
}

func (f *Forecaster) selectModel(history []float64) *FittedModel {
	var best *FittedModel
	for _, order := range f.orders {
		m, err := f.fitCandidate(history, order)
		if err != nil {
			log.Debug().Err(err).Str("order", order.String()).Msg("forecast: candidate skipped")
			continue
		}
		if best == nil || m.AIC < best.AIC {
			best = m
		}
	}
	return best
}

// fitCandidate isolates a single candidate so that neither an error nor a
// panic inside the fitter aborts the forecast.
func (f *Forecaster) fitCandidate(history []float64, order domain.ARIMAOrder) (m *FittedModel, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("fit %s panicked: %v", order, r)
		}
	}()
	m, err = f.fitter.Fit(history, order)
	if err == nil && (m == nil || math.IsNaN(m.AIC)) {
		err = errNotConverged
	}
	return m, err
}

// BuildPoints turns raw demand into forecast points: dated from the day after
// start, with stock drawn down from currentStock (floored at zero) and a
// confidence that decays from 0.95 to 0.75.
func BuildPoints(demand []float64, currentStock float64, start time.Time) []domain.ForecastPoint {
	running := math.Max(0, currentStock)
	points := make([]domain.ForecastPoint, len(demand))
	for i, d := range demand {
		running = math.Max(0, running-d)
		points[i] = domain.ForecastPoint{
			DayOffset:       i + 1,
			Date:            start.AddDate(0, 0, i+1).Format("2006-01-02"),
			PredictedDemand: d,
			ProjectedStock:  running,
			Confidence:      Confidence(i),
		}
	}
	return points
}

// Confidence is the confidence assigned to the zero-based forecast day i.
func Confidence(i int) float64 {
	return math.Max(confidenceFloor, confidenceStart-confidenceDecay*float64(i))
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
