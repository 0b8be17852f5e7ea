// Package planner implements the Step Planner: generation of the ladder of
// input sizes the Allocation Optimizer is run against, grounded 1:1 on the
// original source's maths/steps.rs (exponential, gsteps) and
// core/solver.rs's exponential(liquidity) wrapper.
package planner

import "math"

// Config mirrors internal/config.OptimizerConfig's planner fields.
type Config struct {
	Count           int     // number of points to request (N)
	StartMultiplier float64 // a
	EndMultiplier   float64 // b-ish scale, named for parity with the original's END_MULTIPLIER
	MinDeltaPct     float64 // epsilon as a fraction of end, e.g. 1e-4
}

// DefaultConfig returns the contract defaults: N=50, start multiplier 1,
// end multiplier 2_500_000, min delta 1e-4 of the end value.
func DefaultConfig() Config {
	return Config{
		Count:           50,
		StartMultiplier: 1,
		EndMultiplier:   2_500_000,
		MinDeltaPct:     0.0001,
	}
}

// exponentialLambda is the ease-in curve's growth-rate constant, fixed in
// the original for the start==0 case.
const exponentialLambda = 2.0

// Exponential generates n points between start and end (inclusive of both
// endpoints), dropping any intermediate point that would land closer than
// minDelta to the previously kept point. When start is 0, an ease-in
// exponential curve is used instead of a true geometric one (a geometric
// sequence cannot start at 0); otherwise a standard geometric sequence
// start*(end/start)^t is used.
func Exponential(n int, start, end, minDelta float64) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{end}
	}

	points := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		var v float64
		if start == 0 {
			v = (math.Exp(exponentialLambda*t) - 1) / (math.Exp(exponentialLambda) - 1) * end
		} else {
			v = start * math.Pow(end/start, t)
		}
		points = append(points, v)
	}
	// Always keep the first and last point unconditionally; drop any
	// intermediate point too close to the last kept point.
	out := make([]float64, 0, n)
	out = append(out, points[0])
	for i := 1; i < len(points)-1; i++ {
		if points[i]-out[len(out)-1] >= minDelta {
			out = append(out, points[i])
		}
	}
	if len(points) > 1 {
		out = append(out, points[len(points)-1])
	}
	return out
}

// GenerateSteps builds the input-size ladder for a pair whose aggregate
// depth (liquidity) is depthUSD, matching core/solver.rs's
// exponential(liquidity): start = depth/10_000_000, end = start *
// EndMultiplier, min delta = end * MinDeltaPct.
func (c Config) GenerateSteps(depthUSD float64) []float64 {
	start := depthUSD / 10_000_000 * c.StartMultiplier
	end := start * c.EndMultiplier
	minDelta := end * c.MinDeltaPct
	return Exponential(c.Count, start, end, minDelta)
}

// IncrementationSegment is a strictly-increasing run of points from start
// to end in steps of step, matching the original's segment-based
// generator (kept for callers that want a linear ladder rather than an
// exponential one, e.g. for small/shallow pairs).
type IncrementationSegment struct {
	Start, End, Step float64
}

// GenerateSegmentPoints concatenates the strictly-increasing points of
// each segment, skipping a segment's start value if it duplicates the
// previous segment's last emitted point.
func GenerateSegmentPoints(segments []IncrementationSegment) []float64 {
	var out []float64
	for _, seg := range segments {
		for v := seg.Start; v <= seg.End+1e-9; v += seg.Step {
			if len(out) > 0 && v-out[len(out)-1] < 1e-9 {
				continue
			}
			out = append(out, v)
		}
	}
	return out
}
