package planner

import "testing"

func TestExponentialStrictlyIncreasing(t *testing.T) {
	points := Exponential(50, 0, 2_500_000, 2_500_000*0.0001)
	if len(points) < 2 {
		t.Fatalf("expected at least 2 points, got %d", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i] <= points[i-1] {
			t.Fatalf("expected strictly increasing points, got %v <= %v at index %d", points[i], points[i-1], i)
		}
	}
	if points[0] != 0 {
		t.Fatalf("expected first point to be 0 (ease-in start), got %v", points[0])
	}
	if points[len(points)-1] != 2_500_000 {
		t.Fatalf("expected last point to be the end value, got %v", points[len(points)-1])
	}
}

func TestExponentialGeometricWhenStartNonZero(t *testing.T) {
	points := Exponential(10, 100, 1000, 1)
	if points[0] != 100 {
		t.Fatalf("expected first point to equal start, got %v", points[0])
	}
	if points[len(points)-1] != 1000 {
		t.Fatalf("expected last point to equal end, got %v", points[len(points)-1])
	}
}

func TestExponentialDropsPointsCloserThanMinDelta(t *testing.T) {
	// A huge minDelta should collapse everything down to first+last only.
	points := Exponential(50, 0, 100, 1000)
	if len(points) != 2 {
		t.Fatalf("expected exactly 2 points (first+last) with huge min delta, got %d: %v", len(points), points)
	}
}

func TestGenerateStepsRatio(t *testing.T) {
	cfg := DefaultConfig()
	steps := cfg.GenerateSteps(20_000_000) // depth scaled so start=2
	if len(steps) < 2 {
		t.Fatalf("expected multiple steps, got %d", len(steps))
	}
	wantStart := 20_000_000.0 / 10_000_000 * cfg.StartMultiplier
	if steps[0] != wantStart {
		t.Fatalf("expected geometric start L*a=%v, got %v", wantStart, steps[0])
	}
	wantEnd := wantStart * cfg.EndMultiplier
	if steps[len(steps)-1] != wantEnd {
		t.Fatalf("expected last step %v, got %v", wantEnd, steps[len(steps)-1])
	}
}

func TestGenerateSegmentPoints(t *testing.T) {
	segs := []IncrementationSegment{
		{Start: 0, End: 10, Step: 5},
		{Start: 10, End: 20, Step: 10},
	}
	points := GenerateSegmentPoints(segs)
	want := []float64{0, 5, 10, 20}
	if len(points) != len(want) {
		t.Fatalf("got %v, want %v", points, want)
	}
	for i := range want {
		if points[i] != want[i] {
			t.Fatalf("got %v, want %v", points, want)
		}
	}
}
