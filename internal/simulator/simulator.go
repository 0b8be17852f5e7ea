// Package simulator implements the Pool Simulator capability interface
// and its concrete per-family implementations, grounded on the teacher's
// internal/exchange/interface.go + factory.go family-dispatch pattern
// (NewExchange(name) switching over bybit/bitget/okx/...), generalized
// from CEX adapters to AMM pool families. Only constant-product-v2 has a
// full math implementation; the remaining families are registered behind
// the same interface but return SIM_ERROR, since spec.md treats simulator
// math as an external collaborator's contract and only one concrete
// family is needed to exercise the interface end-to-end.
package simulator

import (
	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/domain"
)

// Simulator is the capability every pool's math engine exposes to the
// rest of the system (matches internal/state.Simulator; redeclared here
// as the authoritative definition pool families implement against). Quote
// returns gas_units alongside the output amount, per spec.md's
// quote(amount_in_raw,a,b) -> {amount_out_raw, gas_units} contract — the
// optimizer's gas-aware net output depends on it.
type Simulator interface {
	Component() domain.PoolComponent
	SpotPrice(tokenIn, tokenOut string) (float64, error)
	Quote(tokenIn, tokenOut string, amountIn domain.RawAmount) (amountOut domain.RawAmount, gasUnits uint64, err error)
}

// Reserves holds a constant-product pool's token reserves, keyed by
// lower-cased token address.
type Reserves map[string]domain.RawAmount

// New dispatches to the concrete simulator for component.Family. Families
// without a concrete math implementation yet return a stub that always
// fails with apperr.CodeSimError, keeping the factory total over every
// known ProtocolFamily.
func New(component domain.PoolComponent, reserves Reserves, feeBps float64) (Simulator, error) {
	switch component.Family {
	case domain.FamilyConstantProductV2:
		return newConstantProductV2(component, reserves, feeBps)
	case domain.FamilyConcentratedV3, domain.FamilyConcentratedV4, domain.FamilyStableCurve, domain.FamilyWeightedBalancer, domain.FamilyEkuboV2:
		return newUnimplemented(component), nil
	default:
		return nil, apperr.New(apperr.CodeSimError, "unknown protocol family: "+string(component.Family))
	}
}

// unimplemented is returned for families spec.md scopes out of this
// implementation's simulator math; it satisfies the interface so callers
// treat it uniformly, but every quote fails with CodeSimError.
type unimplemented struct {
	component domain.PoolComponent
}

func newUnimplemented(c domain.PoolComponent) *unimplemented {
	return &unimplemented{component: c}
}

func (u *unimplemented) Component() domain.PoolComponent { return u.component }

func (u *unimplemented) SpotPrice(tokenIn, tokenOut string) (float64, error) {
	return 0, apperr.New(apperr.CodeSimError, "simulator not implemented for family "+string(u.component.Family))
}

func (u *unimplemented) Quote(tokenIn, tokenOut string, amountIn domain.RawAmount) (domain.RawAmount, uint64, error) {
	return domain.RawAmount{}, 0, apperr.New(apperr.CodeSimError, "simulator not implemented for family "+string(u.component.Family))
}
