package numeric

import "testing"

func TestRoundTo(t *testing.T) {
	cases := []struct {
		in       float64
		decimals int
		want     float64
	}{
		{1.23456, 2, 1.23},
		{1.016, 2, 1.02},
		{0, 2, 0},
		{-1.239, 1, -1.2},
	}
	for _, c := range cases {
		got := RoundTo(c.in, c.decimals)
		if got != c.want {
			t.Errorf("RoundTo(%v, %d) = %v, want %v", c.in, c.decimals, got, c.want)
		}
	}
}

func TestPriceImpactBps(t *testing.T) {
	if got := PriceImpactBps(99, 100); got != RoundBps(100) {
		t.Errorf("PriceImpactBps(99,100) = %v, want %v", got, RoundBps(100))
	}
	if got := PriceImpactBps(101, 100); got != 0 {
		t.Errorf("positive slippage should clip to 0, got %v", got)
	}
	if got := PriceImpactBps(100, 0); got != 0 {
		t.Errorf("zero spot should not panic/divide, got %v", got)
	}
}

func TestNormalizeToPercent(t *testing.T) {
	got := NormalizeToPercent([]float64{1, 1, 2})
	want := []float64{25, 25, 50}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeToPercent()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	zero := NormalizeToPercent([]float64{0, 0})
	for _, v := range zero {
		if v != 0 {
			t.Errorf("all-zero input should normalize to zeros, got %v", zero)
		}
	}
}

func TestWeightedAverage(t *testing.T) {
	got := WeightedAverage([]float64{1, 2, 3}, []float64{1, 1, 1})
	if got != 2 {
		t.Errorf("WeightedAverage equal weights = %v, want 2", got)
	}
	if got := WeightedAverage(nil, nil); got != 0 {
		t.Errorf("empty input should be 0, got %v", got)
	}
}
