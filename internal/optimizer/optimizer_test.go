package optimizer

import (
	"math"
	"testing"

	"tychoorderbook/internal/domain"
)

// linearPool simulates a pool with diminishing returns: output = rate*amount
// - impact*amount^2, clamped to >=0, reporting a fixed gas-unit cost per
// quote. This is enough to exercise concentration + reallocation behavior
// without a real AMM curve.
func linearPool(id string, rate, impact float64, gasUnits uint64) Pool {
	return Pool{
		ComponentID: id,
		Family:      domain.FamilyConstantProductV2,
		Quote: func(amountIn float64) (float64, uint64, error) {
			out := rate*amountIn - impact*amountIn*amountIn
			if out < 0 {
				out = 0
			}
			return out, gasUnits, nil
		},
	}
}

func TestGradientSplitsAcrossTwoPools(t *testing.T) {
	cfg := DefaultConfig()
	gas := GasParams{PriceNative: 1e-7, NativeUSD: 2000, OutputNativeValue: 1}
	pools := []Pool{
		linearPool("p1", 1.0, 0.001, 100_000),
		linearPool("p2", 1.0, 0.001, 100_000),
	}
	in := domain.Token{Address: "0xin", Decimals: 18}
	out := domain.Token{Address: "0xout", Decimals: 18}

	result, err := cfg.Gradient(in, out, 100, 1.0, gas, pools)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.PerPool) != 2 {
		t.Fatalf("expected 2 pool allocations, got %d", len(result.PerPool))
	}

	var totalPct float64
	for _, p := range result.PerPool {
		totalPct += p.DistributionPct
		if p.GasUnits != 100_000 {
			t.Fatalf("expected gas units to be carried through to the result, got %+v", p)
		}
	}
	if math.Abs(totalPct-100) > 0.5 {
		t.Fatalf("expected distribution percentages to sum near 100, got %v", totalPct)
	}

	// Two identical pools with convex cost should split roughly evenly.
	if math.Abs(result.PerPool[0].DistributionPct-result.PerPool[1].DistributionPct) > 10 {
		t.Fatalf("expected roughly even split across identical pools, got %+v", result.PerPool)
	}

	if result.TotalOutput <= 0 {
		t.Fatalf("expected positive total output, got %v", result.TotalOutput)
	}
}

func TestGradientConcentratesOnDominantPool(t *testing.T) {
	cfg := DefaultConfig()
	gas := GasParams{PriceNative: 1e-7, NativeUSD: 2000, OutputNativeValue: 1}
	pools := []Pool{
		linearPool("good", 2.0, 0.0001, 100_000),
		linearPool("bad", 0.5, 0.01, 100_000),
	}
	in := domain.Token{Address: "0xin", Decimals: 18}
	out := domain.Token{Address: "0xout", Decimals: 18}

	result, err := cfg.Gradient(in, out, 50, 2.0, gas, pools)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var goodPct, badPct float64
	for _, p := range result.PerPool {
		if p.ComponentID == "good" {
			goodPct = p.DistributionPct
		} else {
			badPct = p.DistributionPct
		}
	}
	if goodPct <= badPct {
		t.Fatalf("expected the dominant pool to receive more allocation, good=%v bad=%v", goodPct, badPct)
	}
}

func TestGradientNoPoolsErrors(t *testing.T) {
	cfg := DefaultConfig()
	gas := GasParams{PriceNative: 1e-7, NativeUSD: 2000, OutputNativeValue: 1}
	in := domain.Token{Address: "0xin"}
	out := domain.Token{Address: "0xout"}
	if _, err := cfg.Gradient(in, out, 10, 1, gas, nil); err == nil {
		t.Fatal("expected error for empty pool list")
	}
}

// TestGradientActivationPenaltyBlocksHighGasPool exercises spec Scenario 2:
// a deep, zero-gas pool versus a trivial-liquidity pool whose gas cost
// exceeds any output it could ever produce. The activation penalty must
// keep the optimizer from ever routing flow into the trivial pool.
func TestGradientActivationPenaltyBlocksHighGasPool(t *testing.T) {
	cfg := DefaultConfig()
	gas := GasParams{PriceNative: 1e-7, NativeUSD: 2000, OutputNativeValue: 1}

	deep := linearPool("deep", 1.0, 0.0000001, 0)
	trivial := Pool{
		ComponentID: "trivial",
		Family:      domain.FamilyConcentratedV3,
		Quote: func(amountIn float64) (float64, uint64, error) {
			// Saturates at a tiny output regardless of size: its gas cost
			// in output units (5_000_000 * 1e-7 / 1 = 0.5) dwarfs the 0.05
			// it could ever return.
			out := math.Min(amountIn, 0.05)
			return out, 5_000_000, nil
		},
	}

	in := domain.Token{Address: "0xin", Decimals: 18}
	out := domain.Token{Address: "0xout", Decimals: 18}
	result, err := cfg.Gradient(in, out, 100, 1.0, gas, []Pool{deep, trivial})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, p := range result.PerPool {
		switch p.ComponentID {
		case "trivial":
			if p.DistributionPct != 0 {
				t.Fatalf("expected the high-gas trivial pool to receive zero allocation, got %+v", p)
			}
		case "deep":
			if math.Abs(p.DistributionPct-100) > 0.5 {
				t.Fatalf("expected the deep pool to receive ~100%% allocation, got %+v", p)
			}
		}
	}
}
