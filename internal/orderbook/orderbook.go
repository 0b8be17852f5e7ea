// Package orderbook implements the Orderbook Builder: the component that
// ties the Shared State Store, Valuation Router, Step Planner, and
// Allocation Optimizer together into one assembled Orderbook. Grounded on
// the original source's core/book.rs (build/simulate/best/midprice/
// matchcp) and spec.md §4.6's step list; the non-monotone-tail trim is
// grounded on core/solver.rs's remove_decreasing_price. Per-step
// optimizer calls fan out in parallel via golang.org/x/sync/errgroup,
// mirroring core/solver.rs's rayon par_iter and the teacher's
// "worker pool sized to hardware concurrency" idiom.
package orderbook

import (
	"context"
	"errors"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/metrics"
	"tychoorderbook/internal/optimizer"
	"tychoorderbook/internal/planner"
	"tychoorderbook/internal/state"
	"tychoorderbook/internal/valuation"
	"tychoorderbook/pkg/numeric"
)

// ChainRPC is the subset of internal/chainrpc.Client the builder needs.
type ChainRPC interface {
	GetGasPrice(ctx context.Context) (float64, error)
	GetNativeUSDPrice(ctx context.Context) (float64, error)
	GetLatestBlock(ctx context.Context) (uint64, error)
}

// Builder assembles Orderbooks from a Shared State Store snapshot.
type Builder struct {
	store       *state.Store
	router      *valuation.Router
	rpc         ChainRPC
	plannerCfg  planner.Config
	optimizerCfg optimizer.Config
	bestBidAskBps float64
	log         *zap.Logger
}

// New builds an Orderbook Builder.
func New(store *state.Store, router *valuation.Router, rpc ChainRPC, plannerCfg planner.Config, optimizerCfg optimizer.Config, bestBidAskBps float64, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		store: store, router: router, rpc: rpc,
		plannerCfg: plannerCfg, optimizerCfg: optimizerCfg,
		bestBidAskBps: bestBidAskBps, log: log,
	}
}

// Request parameterizes one Build call.
type Request struct {
	Base  domain.Token
	Quote domain.Token
	// ProbeOnly, when set, skips the full ladder and runs a single
	// gradient() call in ProbeDirection for ProbeAmount, matching the
	// original's single-point-probe query path.
	ProbeOnly     bool
	ProbeAmount   float64
	ProbeBaseToQuote bool
}

// Build runs the full pipeline: gather matching pools, fetch balances/gas
// /native price/latest block, compute mid-price via a tiny probe trade,
// then — unless this is a probe-only request — generate and optimize the
// full bid/ask ladder.
func (b *Builder) Build(ctx context.Context, req Request) (ob domain.Orderbook, err error) {
	started := time.Now()
	tag := domain.Tag(req.Base, req.Quote)
	defer func() {
		result := "ok"
		switch {
		case err != nil:
			result = "error"
			var ae *apperr.Error
			if errors.As(err, &ae) {
				metrics.RecordDegradation(string(ae.Code))
			}
		case ob.Degraded:
			result = "degraded"
			metrics.RecordDegradation(string(apperr.CodeRPCUnavailable))
		}
		metrics.RecordBuild(tag, result, float64(time.Since(started).Microseconds())/1000)
	}()

	snap, err := b.store.Read()
	if err != nil {
		return domain.Orderbook{}, err
	}

	components := snap.ComponentsWithTokens(req.Base.Address, req.Quote.Address)
	if len(components) == 0 {
		return domain.Orderbook{}, apperr.New(apperr.CodeUnquotable, "no pools found for pair "+domain.Tag(req.Base, req.Quote))
	}

	pools := make([]optimizer.Pool, 0, len(components))
	for _, c := range components {
		sim, ok := snap.Simulators[c.ID]
		if !ok {
			continue
		}
		pools = append(pools, toOptimizerPool(c, sim, req.Base.Address, req.Quote.Address))
	}
	reversePools := make([]optimizer.Pool, 0, len(components))
	for _, c := range components {
		sim, ok := snap.Simulators[c.ID]
		if !ok {
			continue
		}
		reversePools = append(reversePools, toOptimizerPool(c, sim, req.Quote.Address, req.Base.Address))
	}

	degraded := false
	var degradedReason string

	gasPrice, err := b.rpc.GetGasPrice(ctx)
	if err != nil {
		degraded = true
		degradedReason = "gas price unavailable: " + err.Error()
	}
	nativeUSD, err := b.rpc.GetNativeUSDPrice(ctx)
	if err != nil {
		degraded = true
		degradedReason = "native usd price unavailable: " + err.Error()
	}
	blockHeight, err := b.rpc.GetLatestBlock(ctx)
	if err != nil {
		degraded = true
		degradedReason = "latest block unavailable: " + err.Error()
	}

	// Both legs of the pair must resolve to a native-terms valuation: the
	// pair spot price is derived from their ratio (not assumed to be the
	// chain reference token), and each leg's worth doubles as v_O for the
	// gas-aware optimizer call whose output is that token.
	baseWorthNative, err := b.router.ValueInReference(ctx, snap, req.Base.Address)
	if err != nil {
		return domain.Orderbook{}, apperr.Wrap(apperr.CodeUnquotable, "base token has no native valuation path", err)
	}
	quoteWorthNative, err := b.router.ValueInReference(ctx, snap, req.Quote.Address)
	if err != nil {
		return domain.Orderbook{}, apperr.Wrap(apperr.CodeUnquotable, "quote token has no native valuation path", err)
	}
	if quoteWorthNative == 0 {
		return domain.Orderbook{}, apperr.New(apperr.CodeUnquotable, "quote token resolved to zero native value")
	}
	spotPrice := baseWorthNative / quoteWorthNative

	gasPriceNative := gasPrice * 1e-9 // gwei -> native units per gas unit
	askGas := optimizer.GasParams{PriceNative: gasPriceNative, NativeUSD: nativeUSD, OutputNativeValue: quoteWorthNative}
	bidGas := optimizer.GasParams{PriceNative: gasPriceNative, NativeUSD: nativeUSD, OutputNativeValue: baseWorthNative}

	probeAmount := b.bestBidAskBps / numeric.BPD
	askProbe, err := b.optimizerCfg.Gradient(req.Base, req.Quote, probeAmount, spotPrice, askGas, pools)
	if err != nil {
		return domain.Orderbook{}, apperr.Wrap(apperr.CodeSimError, "mid-price probe failed", err)
	}
	bidProbe, err := b.optimizerCfg.Gradient(req.Quote, req.Base, probeAmount, 1/spotPrice, bidGas, reversePools)
	if err != nil {
		return domain.Orderbook{}, apperr.Wrap(apperr.CodeSimError, "mid-price probe failed", err)
	}
	mid := midPrice(askProbe, bidProbe)

	ob = domain.Orderbook{
		Tag:              domain.Tag(req.Base, req.Quote),
		Base:             req.Base,
		Quote:            req.Quote,
		BlockHeight:      blockHeight,
		BalanceFetchedAt: time.Now().UnixMilli(),
		GasPriceGwei:     gasPrice,
		NativeUSDPrice:   nativeUSD,
		MidPrice:         mid,
		Degraded:         degraded,
		DegradedReason:   degradedReason,
	}

	if req.ProbeOnly {
		if req.ProbeBaseToQuote {
			single, err := b.optimizerCfg.Gradient(req.Base, req.Quote, req.ProbeAmount, spotPrice, askGas, pools)
			if err != nil {
				return domain.Orderbook{}, err
			}
			ob.Asks = []domain.TradeResult{single}
		} else {
			single, err := b.optimizerCfg.Gradient(req.Quote, req.Base, req.ProbeAmount, 1/spotPrice, bidGas, reversePools)
			if err != nil {
				return domain.Orderbook{}, err
			}
			ob.Bids = []domain.TradeResult{single}
		}
		b.log.Debug("built probe-only orderbook", zap.String("tag", ob.Tag), zap.Duration("elapsed", time.Since(started)))
		return ob, nil
	}

	depth := snap.Depth(req.Base.Address, req.Quote.Address)
	steps := b.plannerCfg.GenerateSteps(depth)

	asks, err := b.runLadder(ctx, req.Base, req.Quote, steps, spotPrice, askGas, pools)
	if err != nil {
		return domain.Orderbook{}, err
	}
	bids, err := b.runLadder(ctx, req.Quote, req.Base, steps, 1/spotPrice, bidGas, reversePools)
	if err != nil {
		return domain.Orderbook{}, err
	}

	ob.Asks = removeDecreasingPrice(asks)
	ob.Bids = removeDecreasingPrice(bids)

	b.log.Info("built orderbook",
		zap.String("tag", ob.Tag),
		zap.Int("ask_points", len(ob.Asks)),
		zap.Int("bid_points", len(ob.Bids)),
		zap.Bool("degraded", ob.Degraded),
		zap.Duration("elapsed", time.Since(started)),
	)
	return ob, nil
}

// runLadder computes a TradeResult for every step in parallel, bounded by
// GOMAXPROCS workers via errgroup, matching core/solver.rs's
// steps.par_iter().map(gradient).collect().
func (b *Builder) runLadder(ctx context.Context, in, out domain.Token, steps []float64, spotPrice float64, gas optimizer.GasParams, pools []optimizer.Pool) ([]domain.TradeResult, error) {
	results := make([]domain.TradeResult, len(steps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, amount := range steps {
		i, amount := i, amount
		g.Go(func() error {
			if amount <= 0 {
				return nil
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			tr, err := b.optimizerCfg.Gradient(in, out, amount, spotPrice, gas, pools)
			if err != nil {
				return nil // a single unquotable step degrades, doesn't fail the ladder
			}
			results[i] = tr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Drop zero-value entries left by skipped/failed steps.
	out2 := results[:0]
	for _, r := range results {
		if r.InputAmount > 0 {
			out2 = append(out2, r)
		}
	}
	return out2, nil
}

// removeDecreasingPrice strips the non-monotone tail of a size-ordered
// ladder: once average sell price starts dropping (worse execution at
// larger size, as expected) any subsequent *increase* signals a
// numerically unstable region and is trimmed, matching core/solver.rs's
// remove_decreasing_price.
func removeDecreasingPrice(trades []domain.TradeResult) []domain.TradeResult {
	if len(trades) < 2 {
		return trades
	}
	out := make([]domain.TradeResult, 1, len(trades))
	out[0] = trades[0]
	for i := 1; i < len(trades); i++ {
		if trades[i].AverageSellPrice <= out[len(out)-1].AverageSellPrice {
			out = append(out, trades[i])
		} else {
			break
		}
	}
	return out
}

func midPrice(askProbe, bidProbe domain.TradeResult) domain.MidPriceSummary {
	ask := askProbe.AverageSellPrice
	var bid float64
	if bidProbe.AverageSellPrice != 0 {
		bid = 1 / bidProbe.AverageSellPrice
	}
	mid := (ask + bid) / 2
	spread := ask - bid
	if spread < 0 {
		spread = -spread
	}
	var spreadPct float64
	if mid != 0 {
		spreadPct = spread / mid * 100
	}
	return domain.MidPriceSummary{Bid: bid, Ask: ask, Mid: mid, Spread: spread, SpreadPct: spreadPct}
}

func toOptimizerPool(c domain.PoolComponent, sim state.Simulator, tokenIn, tokenOut string) optimizer.Pool {
	return optimizer.Pool{
		ComponentID: c.ID,
		Family:      c.Family,
		Quote: func(amountIn float64) (float64, uint64, error) {
			decimals := decimalsOf(c, tokenIn)
			raw := domain.RawAmountFromFloat(amountIn, decimals)
			out, gasUnits, err := sim.Quote(tokenIn, tokenOut, raw)
			if err != nil {
				return 0, 0, err
			}
			return out.ToFloat(decimalsOf(c, tokenOut)), gasUnits, nil
		},
	}
}

func decimalsOf(c domain.PoolComponent, address string) uint8 {
	for _, t := range c.Tokens {
		if equalFold(t.Address, address) {
			return t.Decimals
		}
	}
	return 18
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
