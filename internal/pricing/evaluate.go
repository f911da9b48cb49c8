// Package pricing replays product designs against historical weather series:
// per-year trigger evaluation, payout capping, and the aggregate metrics the
// optimizer scores against.
package pricing

import (
	"github.com/agrisure/weatherindex/internal/product"
	"github.com/agrisure/weatherindex/internal/weather"
)

// PerilOutcome is the result of evaluating one peril over one year's window.
type PerilOutcome struct {
	Triggered   bool
	Payout      float64
	ActualValue float64 // extreme windowed value observed; valid when Evaluated
	Evaluated   bool    // false when the window held fewer days than Duration
}

// Evaluate computes whether a peril fires for one year's window of daily
// observations and the resulting payout.
//
// Rainfall perils reduce the window with a rolling sum, temperature perils
// with a rolling mean. Deficit perils compare the minimum windowed value
// against the trigger from below; excess perils the maximum from above.
// Fewer observations than the peril duration is not an error: the peril
// simply cannot fire that year.
func Evaluate(obs []float64, p product.Peril) PerilOutcome {
	if !p.Type.IsRainfall() {
		obs = dropMissing(obs)
	}
	if len(obs) < p.Duration || p.Duration < 1 {
		return PerilOutcome{}
	}

	var extreme float64
	if p.Type.IsRainfall() {
		extreme = rollingSumExtreme(obs, p.Duration, p.Type.IsDeficit())
	} else {
		extreme = rollingMeanExtreme(obs, p.Duration, p.Type.IsDeficit())
	}

	out := PerilOutcome{ActualValue: extreme, Evaluated: true}
	var distance float64
	if p.Type.IsDeficit() {
		distance = p.Trigger - extreme
	} else {
		distance = extreme - p.Trigger
	}
	if distance <= 0 {
		return out
	}
	out.Triggered = true
	out.Payout = min3(distance*p.UnitPayout, p.MaxPayout, p.AllocatedSI)
	if out.Payout < 0 {
		out.Payout = 0
	}
	return out
}

// rollingSumExtreme returns the min (deficit) or max (excess) rolling sum of
// length n over obs. Maintained incrementally rather than recomputed per
// window.
func rollingSumExtreme(obs []float64, n int, wantMin bool) float64 {
	sum := 0.0
	for _, v := range obs[:n] {
		sum += v
	}
	extreme := sum
	for i := n; i < len(obs); i++ {
		sum += obs[i] - obs[i-n]
		if wantMin == (sum < extreme) {
			extreme = sum
		}
	}
	return extreme
}

func rollingMeanExtreme(obs []float64, n int, wantMin bool) float64 {
	return rollingSumExtreme(obs, n, wantMin) / float64(n)
}

func dropMissing(obs []float64) []float64 {
	clean := obs[:0:0]
	for _, v := range obs {
		if v != weather.MissingValue {
			clean = append(clean, v)
		}
	}
	return clean
}

func min3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
