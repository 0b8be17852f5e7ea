package simulator

import (
	"math"
	"testing"

	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/domain"
)

func cpPool(t *testing.T) Simulator {
	t.Helper()
	weth := domain.Token{Address: "0xWETH", Decimals: 18}
	usdc := domain.Token{Address: "0xUSDC", Decimals: 6}
	c := domain.PoolComponent{ID: "p1", Family: domain.FamilyConstantProductV2, Tokens: []domain.Token{weth, usdc}}
	reserves := Reserves{
		"0xweth": domain.RawAmountFromFloat(100, 18),
		"0xusdc": domain.RawAmountFromFloat(200_000, 6),
	}
	sim, err := New(c, reserves, 30) // 30 bps fee
	if err != nil {
		t.Fatalf("unexpected error building simulator: %v", err)
	}
	return sim
}

func TestConstantProductSpotPrice(t *testing.T) {
	sim := cpPool(t)
	price, err := sim.SpotPrice("0xWETH", "0xUSDC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(price-2000) > 1e-3 {
		t.Fatalf("expected spot price ~2000, got %v", price)
	}

	inv, err := sim.SpotPrice("0xUSDC", "0xWETH")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(inv-0.0005) > 1e-7 {
		t.Fatalf("expected inverse spot price 0.0005, got %v", inv)
	}
}

func TestConstantProductQuoteMatchesXYK(t *testing.T) {
	sim := cpPool(t)
	amountIn := domain.RawAmountFromFloat(1, 18) // 1 WETH in
	out, gasUnits, err := sim.Quote("0xWETH", "0xUSDC", amountIn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.ToFloat(6)
	// reserve0=100, reserve1=200000, fee 30bps: amountInAfterFee=0.997
	// amountOut = 200000*0.997/(100+0.997)
	want := 200_000 * 0.997 / (100 + 0.997)
	if math.Abs(got-want) > 0.5 {
		t.Fatalf("expected quote ~%v, got %v", want, got)
	}
	if gasUnits == 0 {
		t.Fatalf("expected a non-zero gas unit estimate for constant-product-v2")
	}
}

func TestConstantProductWrongPairErrors(t *testing.T) {
	sim := cpPool(t)
	if _, err := sim.SpotPrice("0xDAI", "0xUSDC"); !apperr.Is(err, apperr.CodeSimError) {
		t.Fatalf("expected SIM_ERROR, got %v", err)
	}
}

func TestUnimplementedFamilyReturnsSimError(t *testing.T) {
	c := domain.PoolComponent{ID: "p2", Family: domain.FamilyEkuboV2, Tokens: []domain.Token{{Address: "0xa"}, {Address: "0xb"}}}
	sim, err := New(c, Reserves{}, 0)
	if err != nil {
		t.Fatalf("factory itself should not error for known-but-unimplemented families: %v", err)
	}
	if _, err := sim.SpotPrice("0xa", "0xb"); !apperr.Is(err, apperr.CodeSimError) {
		t.Fatalf("expected SIM_ERROR from unimplemented family, got %v", err)
	}
}

func TestUnknownFamilyErrors(t *testing.T) {
	c := domain.PoolComponent{ID: "p3", Family: "not-a-real-family"}
	if _, err := New(c, Reserves{}, 0); !apperr.Is(err, apperr.CodeSimError) {
		t.Fatalf("expected SIM_ERROR for unknown family, got %v", err)
	}
}
