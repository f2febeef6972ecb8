package forecast

import (
	"math"
	"math/rand"
	"testing"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifferenceRecordsTails(t *testing.T) {
	w, tails := difference([]float64{1, 3, 6, 10}, 1)
	assert.Equal(t, []float64{2, 3, 4}, w)
	assert.Equal(t, []float64{10}, tails)

	w, tails = difference([]float64{1, 3, 6, 10}, 2)
	assert.Equal(t, []float64{1, 1}, w)
	assert.Equal(t, []float64{10, 4}, tails)
}

func TestConstrainKeepsCoefficientsStationary(t *testing.T) {
	for _, x := range [][]float64{{5}, {-5}, {3, -3}, {0.2, 0.9}} {
		phi := constrain(x)
		switch len(phi) {
		case 1:
			assert.Less(t, math.Abs(phi[0]), 1.0)
		case 2:
			// AR(2) stationarity triangle.
			assert.Less(t, phi[0]+phi[1], 1.0)
			assert.Less(t, phi[1]-phi[0], 1.0)
			assert.Less(t, math.Abs(phi[1]), 1.0)
		}
	}
}

func TestCSSFitterRejectsShortSeries(t *testing.T) {
	_, err := NewCSSFitter().Fit(make([]float64, MinFitPoints-1), domain.ARIMAOrder{P: 1, D: 1, Q: 1})
	assert.ErrorIs(t, err, errTooFewPoints)
}

func TestCSSFitterRejectsConstantSeries(t *testing.T) {
	series := make([]float64, 40)
	for i := range series {
		series[i] = 5
	}
	_, err := NewCSSFitter().Fit(series, domain.ARIMAOrder{P: 1, D: 1, Q: 1})
	assert.Error(t, err)
}

func TestCSSFitterRecoversAR1(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	const phi = 0.6

	series := make([]float64, 400)
	level, w := 100.0, 0.0
	for i := range series {
		w = phi*w + rng.NormFloat64()
		level += w
		series[i] = level
	}

	m, err := NewCSSFitter().Fit(series, domain.ARIMAOrder{P: 1, D: 1, Q: 0})
	require.NoError(t, err)
	require.Len(t, m.AR, 1)
	assert.InDelta(t, phi, m.AR[0], 0.1)
	assert.InDelta(t, 1.0, m.Sigma2, 0.25)
	assert.Len(t, m.Params(), 2)
	assert.Less(t, m.AIC, m.BIC)

	out := m.Forecast(5)
	assert.Len(t, out, 5)
	for _, v := range out {
		assert.False(t, math.IsNaN(v))
	}
}

func TestFittedModelForecastIntegrates(t *testing.T) {
	// ARIMA(0,1,0) with a constant drift of 2 in the differenced series.
	m := &FittedModel{
		Order: domain.ARIMAOrder{P: 1, D: 1, Q: 0},
		AR:    []float64{1},
		w:     []float64{2, 2},
		resid: []float64{0, 0},
		tails: []float64{10},
	}
	assert.Equal(t, []float64{12, 14, 16}, m.Forecast(3))
}
