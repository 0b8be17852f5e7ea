// Package numeric holds small float-rounding and scaling helpers shared by
// the planner, optimizer, and orderbook packages. Raw token amounts use
// internal/domain.RawAmount (uint256-backed); these helpers operate on the
// float64 space the optimizer converts to only at its final step.
package numeric

import "math"

// BPD is basis points in a whole (100% = 10_000 bps).
const BPD = 10_000.0

// RoundTo rounds f to the given number of decimal places.
func RoundTo(f float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(f*scale) / scale
}

// RoundBps rounds a basis-point value to 2 decimal places, matching the
// optimizer's percentage/price-impact rounding.
func RoundBps(f float64) float64 {
	return RoundTo(f, 2)
}

// PriceImpactBps returns the negative-only price impact of average versus
// spot, expressed in basis points. Positive slippage (average better than
// spot) is clipped to zero impact.
func PriceImpactBps(average, spot float64) float64 {
	if spot == 0 {
		return 0
	}
	delta := math.Min(0, average-spot)
	return RoundBps(math.Abs(delta/spot) * BPD)
}

// WeightedAverage returns sum(values[i]*weights[i]) / sum(weights), or 0 if
// the weights sum to zero.
func WeightedAverage(values, weights []float64) float64 {
	var num, den float64
	for i := range values {
		num += values[i] * weights[i]
		den += weights[i]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// NormalizeToPercent rescales values so they sum to 100, rounded to 2
// decimals each — the same "distributed" normalization opti.rs applies to
// per-pool net outputs.
func NormalizeToPercent(values []float64) []float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	out := make([]float64, len(values))
	if sum == 0 {
		return out
	}
	for i, v := range values {
		out[i] = RoundTo(v*100/sum, 2)
	}
	return out
}

// Clamp0 clamps a value to be non-negative.
func Clamp0(f float64) float64 {
	return math.Max(0, f)
}
