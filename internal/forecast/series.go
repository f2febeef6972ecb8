package forecast

import "math/rand"

const (
	dailyRateWeight  = 0.4
	weeklyRateWeight = 0.6

	historyWeekdayFactor = 1.15
	historyWeekendFactor = 0.75
	historyTrendGrowth   = 0.10
	historyNoiseLow      = 0.8
	historyNoiseHigh     = 1.2

	fallbackWeekdayFactor = 1.1
	fallbackWeekendFactor = 0.85
	fallbackTrendGrowth   = 0.05
	fallbackNoiseLow      = 0.9
	fallbackNoiseHigh     = 1.1

	jitterLow  = 0.95
	jitterHigh = 1.05
)

// BaseRate blends the daily rate with the per-day weekly rate.
func BaseRate(dailyRate, weeklyRate float64) float64 {
	return dailyRateWeight*dailyRate + weeklyRateWeight*(weeklyRate/7)
}

// isWeekday treats the first five days of every seven-day cycle as weekdays.
func isWeekday(i int) bool {
	return i%7 < 5
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// SynthesizeHistory builds n days of plausible demand from the two rates:
// weekday/weekend seasonality, a linear trend reaching +10% at the end of the
// series and ±20% multiplicative noise, floored at zero.
func SynthesizeHistory(dailyRate, weeklyRate float64, n int, rng *rand.Rand) []float64 {
	base := BaseRate(dailyRate, weeklyRate)
	history := make([]float64, n)
	for i := 0; i < n; i++ {
		seasonality := historyWeekendFactor
		if isWeekday(i) {
			seasonality = historyWeekdayFactor
		}
		trend := 1 + (float64(i)/float64(n))*historyTrendGrowth
		noise := uniform(rng, historyNoiseLow, historyNoiseHigh)

		v := base * seasonality * trend * noise
		if v < 0 {
			v = 0
		}
		history[i] = v
	}
	return history
}

// FallbackForecast is the smoothing heuristic used when no candidate model fits.
func FallbackForecast(dailyRate, weeklyRate float64, horizon int, rng *rand.Rand) []float64 {
	base := BaseRate(dailyRate, weeklyRate)
	out := make([]float64, horizon)
	for i := 0; i < horizon; i++ {
		trend := 1 + (float64(i)/float64(horizon))*fallbackTrendGrowth
		seasonality := fallbackWeekendFactor
		if isWeekday(i) {
			seasonality = fallbackWeekdayFactor
		}
		noise := uniform(rng, fallbackNoiseLow, fallbackNoiseHigh)

		v := base * trend * seasonality * noise
		if v < 0 {
			v = 0
		}
		out[i] = v
	}
	return out
}
