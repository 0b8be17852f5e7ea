package valuation

import (
	"context"
	"errors"
	"testing"

	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/state"
)

type fakeSim struct {
	prices map[[2]string]float64
}

func (f *fakeSim) Component() domain.PoolComponent { return domain.PoolComponent{} }

func (f *fakeSim) SpotPrice(tokenIn, tokenOut string) (float64, error) {
	p, ok := f.prices[[2]string{tokenIn, tokenOut}]
	if !ok {
		return 0, errors.New("no quote")
	}
	return p, nil
}

func (f *fakeSim) Quote(tokenIn, tokenOut string, amountIn domain.RawAmount) (domain.RawAmount, uint64, error) {
	return domain.RawAmount{}, 0, nil
}

const weth = "0xweth"
const usdc = "0xusdc"
const dai = "0xdai"
const orphan = "0xorphan"

func buildSnapshot() state.Snapshot {
	wethUSDC := &fakeSim{prices: map[[2]string]float64{
		{usdc, weth}: 0.0005, // 1 USDC = 0.0005 WETH
		{weth, usdc}: 2000,
	}}
	usdcDAI := &fakeSim{prices: map[[2]string]float64{
		{dai, usdc}: 1.0,
		{usdc, dai}: 1.0,
	}}
	return state.Snapshot{
		Components: map[string]domain.PoolComponent{
			"p1": {ID: "p1", Tokens: []domain.Token{{Address: weth}, {Address: usdc}}},
			"p2": {ID: "p2", Tokens: []domain.Token{{Address: usdc}, {Address: dai}}},
		},
		Simulators: map[string]state.Simulator{
			"p1": wethUSDC,
			"p2": usdcDAI,
		},
	}
}

func TestValueInReferenceDirect(t *testing.T) {
	r := New(weth, 4)
	snap := buildSnapshot()
	price, err := r.ValueInReference(context.Background(), snap, usdc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 0.0005 {
		t.Fatalf("expected direct price 0.0005, got %v", price)
	}
}

func TestValueInReferenceMultiHop(t *testing.T) {
	r := New(weth, 4)
	snap := buildSnapshot()
	price, err := r.ValueInReference(context.Background(), snap, dai)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 0.0005 {
		t.Fatalf("expected DAI to value the same as USDC via the 2-hop path, got %v", price)
	}
}

func TestValueInReferenceSelf(t *testing.T) {
	r := New(weth, 4)
	snap := buildSnapshot()
	price, err := r.ValueInReference(context.Background(), snap, weth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if price != 1 {
		t.Fatalf("expected reference token to value at 1, got %v", price)
	}
}

func TestValueInReferenceUnquotable(t *testing.T) {
	r := New(weth, 4)
	snap := buildSnapshot()
	snap.Components["p3"] = domain.PoolComponent{ID: "p3", Tokens: []domain.Token{{Address: orphan}, {Address: "0xnowhere"}}}
	if _, err := r.ValueInReference(context.Background(), snap, orphan); !apperr.Is(err, apperr.CodeUnquotable) {
		t.Fatalf("expected UNQUOTABLE, got %v", err)
	}
}
