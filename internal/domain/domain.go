// Package domain holds the plain data types shared across the orderbook
// service: tokens, pool components, simulated trade results, and the
// assembled orderbook. It has no dependency on any other internal package.
package domain

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Token describes one ERC-20-shaped asset as seen by the Shared State
// Store.
type Token struct {
	Address  string // lower-cased 0x-hex
	Symbol   string
	Decimals uint8
}

// ProtocolFamily identifies the AMM family a pool component belongs to,
// used both to dispatch to a concrete simulator and to tag gas estimates
// in TradeResult so family-specific gas costs stay distinguishable
// (spec's Open Question (a)).
type ProtocolFamily string

const (
	FamilyConstantProductV2 ProtocolFamily = "constant-product-v2"
	FamilyConcentratedV3    ProtocolFamily = "concentrated-liquidity-v3"
	FamilyConcentratedV4    ProtocolFamily = "concentrated-liquidity-v4-hooks"
	FamilyStableCurve       ProtocolFamily = "stable-curve"
	FamilyWeightedBalancer  ProtocolFamily = "weighted-balancer"
	FamilyEkuboV2           ProtocolFamily = "ekubo-v2"
)

// defaultGasUnits holds a fixed per-family swap gas estimate, in the same
// spirit as the original source's static.rs DEFAULT_APPROVE_GAS: this port
// has no live EVM simulation engine reporting a per-quote gas measurement,
// so each family gets one constant instead.
var defaultGasUnits = map[ProtocolFamily]uint64{
	FamilyConstantProductV2: 120_000,
	FamilyConcentratedV3:    180_000,
	FamilyConcentratedV4:    220_000,
	FamilyStableCurve:       200_000,
	FamilyWeightedBalancer:  210_000,
	FamilyEkuboV2:           160_000,
}

// DefaultGasUnits returns the fixed gas-unit estimate for a protocol
// family, or 0 if the family is unknown.
func DefaultGasUnits(family ProtocolFamily) uint64 {
	return defaultGasUnits[family]
}

// PoolComponent is the static description of one liquidity pool as
// delivered by the protocol stream: its id, family, and constituent
// tokens.
type PoolComponent struct {
	ID      string // protocol-specific pool/component id
	Family  ProtocolFamily
	Tokens  []Token
	TVLUSD  float64
	Static  map[string]string // family-specific static attributes (fee tier, tick spacing, weights...)
}

// HasTokens reports whether the component's token set contains every
// address in want (case-insensitive), mirroring the original's matchcp.
func (c PoolComponent) HasTokens(want ...string) bool {
	have := make(map[string]struct{}, len(c.Tokens))
	for _, t := range c.Tokens {
		have[lower(t.Address)] = struct{}{}
	}
	for _, w := range want {
		if _, ok := have[lower(w)]; !ok {
			return false
		}
	}
	return true
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

// RawAmount wraps an arbitrary-precision unsigned integer for raw,
// decimal-scaled token amounts. 256 bits comfortably covers amounts scaled
// to 10^30 and beyond, per spec's arbitrary-precision requirement for the
// optimizer's internal allocations.
type RawAmount struct {
	v uint256.Int
}

// ZeroRawAmount returns the zero value.
func ZeroRawAmount() RawAmount { return RawAmount{} }

// RawAmountFromBigInt builds a RawAmount from a *big.Int, clamping to zero
// if negative (raw amounts are never signed).
func RawAmountFromBigInt(b *big.Int) RawAmount {
	if b == nil || b.Sign() < 0 {
		return RawAmount{}
	}
	var u uint256.Int
	u.SetFromBig(b)
	return RawAmount{v: u}
}

// RawAmountFromFloat builds a RawAmount by scaling a float64 by 10^decimals
// and truncating to an integer. Used only at the optimizer's boundary when
// converting step-planner float inputs into raw units; the optimizer's
// internal iteration keeps working in float64 and converts back via
// ToFloat for the final TradeResult, per spec's "convert to double only at
// the very end" guidance applied symmetrically at both boundaries.
func RawAmountFromFloat(f float64, decimals uint8) RawAmount {
	if f <= 0 {
		return RawAmount{}
	}
	scale := new(big.Float).SetFloat64(pow10(decimals))
	scaled := new(big.Float).Mul(big.NewFloat(f), scale)
	bi, _ := scaled.Int(nil)
	return RawAmountFromBigInt(bi)
}

func pow10(n uint8) float64 {
	r := 1.0
	for i := uint8(0); i < n; i++ {
		r *= 10
	}
	return r
}

// ToFloat converts the raw amount back to a decimal float64, the only
// place in the pipeline where precision is intentionally given up.
func (r RawAmount) ToFloat(decimals uint8) float64 {
	bf := new(big.Float).SetInt(r.v.ToBig())
	scale := new(big.Float).SetFloat64(pow10(decimals))
	out, _ := new(big.Float).Quo(bf, scale).Float64()
	return out
}

// Add returns r+o as a new RawAmount.
func (r RawAmount) Add(o RawAmount) RawAmount {
	var out uint256.Int
	out.Add(&r.v, &o.v)
	return RawAmount{v: out}
}

// IsZero reports whether the raw amount is zero.
func (r RawAmount) IsZero() bool {
	return r.v.IsZero()
}

// String renders the raw integer value in base 10.
func (r RawAmount) String() string {
	return r.v.Dec()
}

// TradeResult is the optimizer's output for one probe direction/size: the
// per-pool allocation plan plus the derived price metrics, mirroring
// opti.rs's gradient() return shape.
type TradeResult struct {
	InputToken  Token
	OutputToken Token
	InputAmount float64 // decimal units
	TotalOutput float64 // decimal units, net of gas-equivalent cost
	AverageSellPrice float64
	PriceImpactBps   float64
	PerPool          []PoolAllocation
}

// PoolAllocation is one pool's share of a TradeResult.
type PoolAllocation struct {
	ComponentID   string
	Family        ProtocolFamily
	DistributionPct  float64 // % of input routed to this pool
	DistributedPct   float64 // % of total net output contributed by this pool
	NetOutput        float64
	GasUnits             uint64  // gas_units[k]: the simulator-reported gas cost of this pool's swap
	GasUSD               float64 // gas_usd[k]: GasUnits priced at the build's gas price and native-USD rate
	GasCostInOutputUnits float64 // gas_units[k]*g/v_O, already subtracted from NetOutput
	GasFamily            ProtocolFamily // tags which family this gas estimate belongs to (Open Question (a))
}

// MidPriceSummary is the cheap top-of-book probe the original exposes as
// `best`/`midprice`.
type MidPriceSummary struct {
	Bid       float64
	Ask       float64
	Mid       float64
	Spread    float64
	SpreadPct float64
}

// Orderbook is the fully assembled result of one Orderbook Builder call.
type Orderbook struct {
	Tag              string
	Base             Token
	Quote            Token
	BlockHeight      uint64
	BalanceFetchedAt int64 // unix millis; may lag BlockHeight (Open Question (b))
	GasPriceGwei     float64
	NativeUSDPrice   float64
	MidPrice         MidPriceSummary
	Bids             []TradeResult // quote->base, decreasing size
	Asks             []TradeResult // base->quote, decreasing size
	Degraded         bool
	DegradedReason   string
}

// Tag formats the canonical "base-quote" pair tag for a token pair.
func Tag(base, quote Token) string {
	return fmt.Sprintf("%s-%s", lower(base.Address), lower(quote.Address))
}
