package orderbook

import (
	"context"
	"testing"

	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/optimizer"
	"tychoorderbook/internal/planner"
	"tychoorderbook/internal/state"
	"tychoorderbook/internal/valuation"
)

type fakeRPC struct{}

func (fakeRPC) GetGasPrice(ctx context.Context) (float64, error)      { return 20, nil }
func (fakeRPC) GetNativeUSDPrice(ctx context.Context) (float64, error) { return 3000, nil }
func (fakeRPC) GetLatestBlock(ctx context.Context) (uint64, error)    { return 123, nil }

type fakeSim struct {
	priceOf map[[2]string]float64
}

func (f *fakeSim) Component() domain.PoolComponent { return domain.PoolComponent{} }

func (f *fakeSim) SpotPrice(tokenIn, tokenOut string) (float64, error) {
	return f.priceOf[[2]string{tokenIn, tokenOut}], nil
}

func (f *fakeSim) Quote(tokenIn, tokenOut string, amountIn domain.RawAmount) (domain.RawAmount, uint64, error) {
	price := f.priceOf[[2]string{tokenIn, tokenOut}]
	out := amountIn.ToFloat(18) * price * 0.997 // 30bps fee
	return domain.RawAmountFromFloat(out, 18), 120_000, nil
}

func buildTestStore() *state.Store {
	weth := domain.Token{Address: "0xweth", Decimals: 18, Symbol: "WETH"}
	usdc := domain.Token{Address: "0xusdc", Decimals: 18, Symbol: "USDC"}

	sim := &fakeSim{priceOf: map[[2]string]float64{
		{"0xweth", "0xusdc"}: 2000,
		{"0xusdc", "0xweth"}: 0.0005,
	}}

	store := state.New()
	store.ApplySnapshot(
		map[string]domain.PoolComponent{
			"p1": {ID: "p1", Family: domain.FamilyConstantProductV2, Tokens: []domain.Token{weth, usdc}, TVLUSD: 5_000_000},
		},
		map[string]state.Simulator{"p1": sim},
		100,
	)
	return store
}

func TestBuildProducesOrderbook(t *testing.T) {
	store := buildTestStore()
	router := valuation.New("0xweth", 4)
	builder := New(store, router, fakeRPC{}, planner.DefaultConfig(), optimizer.DefaultConfig(), 10, nil)

	weth := domain.Token{Address: "0xweth", Decimals: 18, Symbol: "WETH"}
	usdc := domain.Token{Address: "0xusdc", Decimals: 18, Symbol: "USDC"}

	ob, err := builder.Build(context.Background(), Request{Base: weth, Quote: usdc})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ob.BlockHeight != 123 {
		t.Fatalf("expected block height from rpc, got %d", ob.BlockHeight)
	}
	if ob.MidPrice.Mid <= 0 {
		t.Fatalf("expected positive mid price, got %+v", ob.MidPrice)
	}
	if len(ob.Asks) == 0 {
		t.Fatal("expected at least one ask point")
	}
}

func TestBuildProbeOnly(t *testing.T) {
	store := buildTestStore()
	router := valuation.New("0xweth", 4)
	builder := New(store, router, fakeRPC{}, planner.DefaultConfig(), optimizer.DefaultConfig(), 10, nil)

	weth := domain.Token{Address: "0xweth", Decimals: 18, Symbol: "WETH"}
	usdc := domain.Token{Address: "0xusdc", Decimals: 18, Symbol: "USDC"}

	ob, err := builder.Build(context.Background(), Request{
		Base: weth, Quote: usdc, ProbeOnly: true, ProbeAmount: 1, ProbeBaseToQuote: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ob.Asks) != 1 {
		t.Fatalf("expected exactly one probe ask, got %d", len(ob.Asks))
	}
	if len(ob.Bids) != 0 {
		t.Fatalf("expected no bids for a base-to-quote probe, got %d", len(ob.Bids))
	}
}

func TestBuildUnquotablePairErrors(t *testing.T) {
	store := buildTestStore()
	router := valuation.New("0xweth", 4)
	builder := New(store, router, fakeRPC{}, planner.DefaultConfig(), optimizer.DefaultConfig(), 10, nil)

	dai := domain.Token{Address: "0xdai", Decimals: 18, Symbol: "DAI"}
	unrelated := domain.Token{Address: "0xnope", Decimals: 18, Symbol: "NOPE"}

	if _, err := builder.Build(context.Background(), Request{Base: dai, Quote: unrelated}); err == nil {
		t.Fatal("expected error for a pair with no matching pools")
	}
}
