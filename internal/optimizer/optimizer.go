// Package optimizer implements the Allocation Optimizer: given an input
// amount and the set of pools quotable for it, finds the gas-aware
// net-output-maximizing split across those pools. Grounded 1:1 on the
// original source's maths/opti.rs gradient() function.
package optimizer

import (
	"math"

	"tychoorderbook/internal/domain"
	"tychoorderbook/pkg/numeric"
)

// Config mirrors internal/config.OptimizerConfig.
type Config struct {
	MaxIterations       int
	ReallocationDivisor float64
	ConvergenceEpsilon  float64
}

// DefaultConfig returns the contract defaults: 50 iterations, 1/10
// reallocation fraction, 1e-12 convergence epsilon.
func DefaultConfig() Config {
	return Config{MaxIterations: 50, ReallocationDivisor: 10, ConvergenceEpsilon: 1e-12}
}

// Pool is one candidate AMM the optimizer may allocate input to. Quote
// must return the gross decimal-unit output for sending amountIn (already
// net of the pool's own fee, before gas-equivalent cost) together with the
// gas units the underlying simulator reports for that call, mirroring
// spec.md's quote(amount_in_raw,a,b) -> {amount_out_raw, gas_units}.
type Pool struct {
	ComponentID string
	Family      domain.ProtocolFamily
	Quote       func(amountIn float64) (grossOut float64, gasUnits uint64, err error)
}

// GasParams is the gas-price context the gas-aware net-output formula
// needs: netᵢ(x) = gross_outᵢ(x) − gas_unitsᵢ(x)·PriceNative/OutputNativeValue,
// matching opti.rs's gas_price/out_eth_worth parameters.
type GasParams struct {
	PriceNative       float64 // g: gas price in native-asset units per gas unit
	NativeUSD         float64 // USD value of one native-asset unit
	OutputNativeValue float64 // v_O: native value of one unit of the output token
}

// costInOutput converts a gas-unit quantity to output-token decimal units
// via gas.PriceNative/gas.OutputNativeValue. A non-positive
// OutputNativeValue means the output token has no resolvable native
// valuation, in which case the gas-equivalent deduction is skipped rather
// than dividing by zero.
func costInOutput(gasUnits uint64, gas GasParams) float64 {
	if gas.OutputNativeValue <= 0 {
		return 0
	}
	return float64(gasUnits) * gas.PriceNative / gas.OutputNativeValue
}

// costUSD converts a gas-unit quantity to USD via gas.PriceNative*gas.NativeUSD.
func costUSD(gasUnits uint64, gas GasParams) float64 {
	return float64(gasUnits) * gas.PriceNative * gas.NativeUSD
}

// Gradient runs the forward-difference gradient-ascent allocator over
// pools for a total input amount, mirroring opti.rs's gradient(): a
// concentration start (100% into the single best pool), then up to
// MaxIterations rounds reallocating 1/ReallocationDivisor of the worst
// active pool's allocation into the pool with the highest marginal net
// output, subtracting an activation penalty (the full-size gas cost) from
// pools not yet active.
func (c Config) Gradient(input domain.Token, output domain.Token, totalInput float64, spotPrice float64, gas GasParams, pools []Pool) (domain.TradeResult, error) {
	n := len(pools)
	if n == 0 {
		return domain.TradeResult{}, errNoPools
	}

	// Step 1: concentration start. Evaluate full-size output at every
	// pool and allocate 100% to the best net output. The full-size gas
	// units captured here double as each pool's activation penalty.
	bestIdx := -1
	bestNet := math.Inf(-1)
	fullGasUnits := make([]uint64, n)
	for i, p := range pools {
		gross, gasUnits, err := p.Quote(totalInput)
		if err != nil {
			continue
		}
		fullGasUnits[i] = gasUnits
		net := gross - costInOutput(gasUnits, gas)
		if net > bestNet {
			bestNet = net
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return domain.TradeResult{}, errNoQuotablePool
	}

	allocations := make([]float64, n)
	allocations[bestIdx] = totalInput

	// epsilon is fixed per spec.md §4.5(2a)/§9: X/10^4, computed once from
	// the total input, the same for every pool on every iteration — not a
	// per-pool, allocation-scaled step.
	epsilon := totalInput / 10_000

	// Step 2: gradient-ascent reallocation.
	for iter := 0; iter < c.MaxIterations; iter++ {
		marginals := make([]float64, n)
		for i, p := range pools {
			alloc := allocations[i]
			baseGross, baseGas, err := p.Quote(alloc)
			if err != nil {
				marginals[i] = math.Inf(-1)
				continue
			}
			baseNet := baseGross - costInOutput(baseGas, gas)

			plusGross, plusGas, err := p.Quote(alloc + epsilon)
			if err != nil {
				marginals[i] = math.Inf(-1)
				continue
			}
			plusNet := plusGross - costInOutput(plusGas, gas)

			marginal := plusNet - baseNet
			if alloc == 0 {
				// Activation penalty: the full-size gas cost, since
				// opening this pool at all incurs it once.
				marginal -= costInOutput(fullGasUnits[i], gas)
			}
			marginals[i] = marginal
		}

		maxIdx, maxMarginal := -1, math.Inf(-1)
		minActiveIdx, minActiveMarginal := -1, math.Inf(1)
		for i, m := range marginals {
			if m > maxMarginal {
				maxMarginal = m
				maxIdx = i
			}
			if allocations[i] > 0 && m < minActiveMarginal {
				minActiveMarginal = m
				minActiveIdx = i
			}
		}
		if maxIdx < 0 || minActiveIdx < 0 {
			break
		}
		if math.Abs(maxMarginal-minActiveMarginal) < c.ConvergenceEpsilon {
			break
		}

		moved := allocations[minActiveIdx] / c.ReallocationDivisor
		allocations[minActiveIdx] -= moved
		allocations[maxIdx] += moved
	}

	// Step 3: final per-pool net outputs and derived metrics.
	perPool := make([]domain.PoolAllocation, n)
	netOutputs := make([]float64, n)
	var totalNetOutput float64
	for i, p := range pools {
		var net, gasOut, gasUSDValue float64
		var gasUnits uint64
		if allocations[i] > 0 {
			gross, gu, err := p.Quote(allocations[i])
			if err == nil {
				gasUnits = gu
				gasOut = costInOutput(gu, gas)
				gasUSDValue = costUSD(gu, gas)
				net = numeric.Clamp0(gross - gasOut)
			}
		}
		netOutputs[i] = net
		totalNetOutput += net
		perPool[i] = domain.PoolAllocation{
			ComponentID:          p.ComponentID,
			Family:               p.Family,
			GasFamily:            p.Family,
			DistributionPct:      numeric.RoundTo(allocations[i]*100/totalInput, 2),
			NetOutput:            net,
			GasUnits:             gasUnits,
			GasUSD:               gasUSDValue,
			GasCostInOutputUnits: gasOut,
		}
	}

	distributed := numeric.NormalizeToPercent(netOutputs)
	for i := range perPool {
		perPool[i].DistributedPct = distributed[i]
	}

	averageSellPrice := totalNetOutput / totalInput
	priceImpact := numeric.PriceImpactBps(averageSellPrice, spotPrice)

	return domain.TradeResult{
		InputToken:       input,
		OutputToken:      output,
		InputAmount:      totalInput,
		TotalOutput:      totalNetOutput,
		AverageSellPrice: averageSellPrice,
		PriceImpactBps:   priceImpact,
		PerPool:          perPool,
	}, nil
}
