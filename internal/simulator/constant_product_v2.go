package simulator

import (
	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/domain"
)

// constantProductV2 implements x*y=k pricing for a two-token pool, the
// simplest AMM family and the only one with a full math implementation in
// this build.
type constantProductV2 struct {
	component domain.PoolComponent
	token0    domain.Token
	token1    domain.Token
	reserve0  float64 // decimal units
	reserve1  float64
	feeBps    float64
}

func newConstantProductV2(c domain.PoolComponent, reserves Reserves, feeBps float64) (*constantProductV2, error) {
	if len(c.Tokens) != 2 {
		return nil, apperr.New(apperr.CodeSimError, "constant-product-v2 requires exactly two tokens")
	}
	t0, t1 := c.Tokens[0], c.Tokens[1]
	r0, ok0 := reserves[lower(t0.Address)]
	r1, ok1 := reserves[lower(t1.Address)]
	if !ok0 || !ok1 {
		return nil, apperr.New(apperr.CodeSimError, "missing reserves for constant-product-v2 pool "+c.ID)
	}
	return &constantProductV2{
		component: c,
		token0:    t0,
		token1:    t1,
		reserve0:  r0.ToFloat(t0.Decimals),
		reserve1:  r1.ToFloat(t1.Decimals),
		feeBps:    feeBps,
	}, nil
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

func (p *constantProductV2) Component() domain.PoolComponent { return p.component }

func (p *constantProductV2) reservesFor(tokenIn, tokenOut string) (rIn, rOut float64, decIn, decOut uint8, err error) {
	in, out := lower(tokenIn), lower(tokenOut)
	t0, t1 := lower(p.token0.Address), lower(p.token1.Address)
	switch {
	case in == t0 && out == t1:
		return p.reserve0, p.reserve1, p.token0.Decimals, p.token1.Decimals, nil
	case in == t1 && out == t0:
		return p.reserve1, p.reserve0, p.token1.Decimals, p.token0.Decimals, nil
	default:
		return 0, 0, 0, 0, apperr.New(apperr.CodeSimError, "token pair not served by this pool")
	}
}

// SpotPrice returns reserveOut/reserveIn, the instantaneous constant-product
// price ignoring fee and size (the tangent at zero size).
func (p *constantProductV2) SpotPrice(tokenIn, tokenOut string) (float64, error) {
	rIn, rOut, _, _, err := p.reservesFor(tokenIn, tokenOut)
	if err != nil {
		return 0, err
	}
	if rIn == 0 {
		return 0, apperr.New(apperr.CodeSimError, "zero reserve for input token")
	}
	return rOut / rIn, nil
}

// Quote computes the exact-input output amount via x*y=k with a
// proportional fee taken from the input, returned as a RawAmount scaled
// to the output token's decimals, alongside this family's fixed gas-unit
// estimate (a real swap's gas cost barely varies with size, so one
// constant per family is used rather than a sized estimate).
func (p *constantProductV2) Quote(tokenIn, tokenOut string, amountIn domain.RawAmount) (domain.RawAmount, uint64, error) {
	rIn, rOut, decIn, decOut, err := p.reservesFor(tokenIn, tokenOut)
	if err != nil {
		return domain.RawAmount{}, 0, err
	}
	amountInFloat := amountIn.ToFloat(decIn)
	if amountInFloat <= 0 {
		return domain.RawAmount{}, 0, nil
	}
	amountInAfterFee := amountInFloat * (1 - p.feeBps/10_000)
	amountOut := rOut * amountInAfterFee / (rIn + amountInAfterFee)
	if amountOut < 0 || amountOut >= rOut {
		return domain.RawAmount{}, 0, apperr.New(apperr.CodeSimError, "quote exceeds available reserves")
	}
	return domain.RawAmountFromFloat(amountOut, decOut), domain.DefaultGasUnits(p.component.Family), nil
}
