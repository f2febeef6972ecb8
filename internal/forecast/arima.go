package forecast

import (
	"math"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/optimize"
)

// MinFitPoints is the shortest series a candidate model is fitted on.
const MinFitPoints = 10

var (
	errTooFewPoints = errors.New("not enough data points")
	errNotConverged = errors.New("fit did not converge")
	errDegenerate   = errors.New("degenerate series")
)

// Fitter fits one ARIMA candidate to a series.
type Fitter interface {
	Fit(series []float64, order domain.ARIMAOrder) (*FittedModel, error)
}

// FittedModel is an ARIMA(p,d,q) fitted by conditional sum of squares.
type FittedModel struct {
	Order  domain.ARIMAOrder
	AR     []float64
	MA     []float64
	Sigma2 float64
	LogLik float64
	AIC    float64
	BIC    float64
	NObs   int

	w     []float64 // d-times differenced series
	resid []float64 // in-sample residuals aligned with w
	tails []float64 // last value of each differencing level 0..d-1
}

// Params returns AR coefficients, MA coefficients and the innovation variance.
func (m *FittedModel) Params() []float64 {
	params := make([]float64, 0, len(m.AR)+len(m.MA)+1)
	params = append(params, m.AR...)
	params = append(params, m.MA...)
	return append(params, m.Sigma2)
}

// Forecast projects steps values ahead, setting future innovations to zero and
// integrating back through the differencing levels.
func (m *FittedModel) Forecast(steps int) []float64 {
	p, q := len(m.AR), len(m.MA)
	w := append(make([]float64, 0, len(m.w)+steps), m.w...)
	e := append(make([]float64, 0, len(m.resid)+steps), m.resid...)
	tails := append([]float64(nil), m.tails...)

	out := make([]float64, steps)
	for h := 0; h < steps; h++ {
		t := len(w)
		var next float64
		for i := 0; i < p; i++ {
			if t-1-i >= 0 {
				next += m.AR[i] * w[t-1-i]
			}
		}
		for j := 0; j < q; j++ {
			if t-1-j >= 0 {
				next += m.MA[j] * e[t-1-j]
			}
		}
		w = append(w, next)
		e = append(e, 0)

		level := next
		for k := len(tails) - 1; k >= 0; k-- {
			tails[k] += level
			level = tails[k]
		}
		out[h] = level
	}
	return out
}

// CSSFitter estimates ARMA coefficients on the differenced series by
// minimising the conditional sum of squares with Nelder-Mead. Coefficients are
// searched through a partial-autocorrelation transform, so every candidate is
// stationary and invertible.
type CSSFitter struct {
	MaxIterations int
}

// NewCSSFitter returns a fitter with a bounded iteration budget.
func NewCSSFitter() *CSSFitter {
	return &CSSFitter{MaxIterations: 2000}
}

func (f *CSSFitter) Fit(series []float64, order domain.ARIMAOrder) (*FittedModel, error) {
	if len(series) < MinFitPoints {
		return nil, errTooFewPoints
	}
	if order.P < 0 || order.D < 0 || order.Q < 0 {
		return nil, errors.Errorf("invalid order %s", order)
	}

	w, tails := difference(series, order.D)
	p, q := order.P, order.Q
	if len(w) <= p+q+1 {
		return nil, errTooFewPoints
	}

	sse := func(x []float64) float64 {
		ar, ma := unpack(x, p, q)
		s, _ := conditionalSSE(w, ar, ma)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return math.MaxFloat64
		}
		return s
	}

	x := make([]float64, p+q)
	if p+q > 0 {
		settings := &optimize.Settings{
			MajorIterations: f.MaxIterations,
			FuncEvaluations: f.MaxIterations * 4,
		}
		result, err := optimize.Minimize(optimize.Problem{Func: sse}, x, settings, &optimize.NelderMead{})
		if err != nil {
			return nil, errors.Wrap(errNotConverged, err.Error())
		}
		switch result.Status {
		case optimize.Failure, optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit:
			return nil, errors.Wrapf(errNotConverged, "status %s", result.Status)
		}
		x = result.X
	}

	ar, ma := unpack(x, p, q)
	ss, resid := conditionalSSE(w, ar, ma)
	nobs := len(w) - p
	sigma2 := ss / float64(nobs)
	if math.IsNaN(sigma2) || math.IsInf(sigma2, 0) || sigma2 < 1e-12 {
		return nil, errDegenerate
	}

	k := float64(p + q + 1)
	n := float64(nobs)
	llf := -n / 2 * (math.Log(2*math.Pi*sigma2) + 1)

	return &FittedModel{
		Order:  order,
		AR:     ar,
		MA:     ma,
		Sigma2: sigma2,
		LogLik: llf,
		AIC:    2*k - 2*llf,
		BIC:    k*math.Log(n) - 2*llf,
		NObs:   nobs,
		w:      w,
		resid:  resid,
		tails:  tails,
	}, nil
}

// difference applies d first differences and records the last value of every
// level so forecasts can be integrated back.
func difference(series []float64, d int) ([]float64, []float64) {
	cur := append([]float64(nil), series...)
	tails := make([]float64, d)
	for k := 0; k < d; k++ {
		tails[k] = cur[len(cur)-1]
		next := make([]float64, len(cur)-1)
		for i := 1; i < len(cur); i++ {
			next[i-1] = cur[i] - cur[i-1]
		}
		cur = next
	}
	return cur, tails
}

// conditionalSSE computes residuals conditioning on the first p observations
// and zero pre-sample innovations.
func conditionalSSE(w, ar, ma []float64) (float64, []float64) {
	p, q := len(ar), len(ma)
	resid := make([]float64, len(w))
	var sum float64
	for t := p; t < len(w); t++ {
		pred := 0.0
		for i := 0; i < p; i++ {
			pred += ar[i] * w[t-1-i]
		}
		for j := 0; j < q; j++ {
			if t-1-j >= 0 {
				pred += ma[j] * resid[t-1-j]
			}
		}
		resid[t] = w[t] - pred
		sum += resid[t] * resid[t]
	}
	return sum, resid
}

// unpack maps unconstrained optimiser coordinates to AR and MA coefficients.
func unpack(x []float64, p, q int) ([]float64, []float64) {
	ar := constrain(x[:p])
	ma := constrain(x[p : p+q])
	for i := range ma {
		ma[i] = -ma[i]
	}
	return ar, ma
}

// constrain turns partial autocorrelations tanh(x) in (-1,1) into the
// coefficients of a polynomial with all roots outside the unit circle.
func constrain(x []float64) []float64 {
	phi := make([]float64, len(x))
	for k := range x {
		r := math.Tanh(x[k])
		prev := append([]float64(nil), phi[:k]...)
		phi[k] = r
		for j := 0; j < k; j++ {
			phi[j] = prev[j] - r*prev[k-1-j]
		}
	}
	return phi
}
