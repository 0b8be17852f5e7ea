// Package execution is a stub swap-intent encoder. It never submits a
// transaction (transaction submission is an explicit Non-goal); it builds
// and logs the approval+swap shape an execution layer would need, so an
// Orderbook Builder's optimized allocation has a visible, testable
// consumer. Grounded on the teacher's internal/bot/order.go OrderExecutor
// shape (build intent, validate, log, return result) and the original
// source's utils/static.rs execution constants (default slippage, approve
// selector).
package execution

import (
	"fmt"

	"go.uber.org/zap"

	"tychoorderbook/internal/domain"
)

// DefaultSlippageBps is the original's default slippage tolerance (0.25%).
const DefaultSlippageBps = 25

// approveSelector is the ERC-20 approve(address,uint256) function
// selector, carried from the original's execution constants.
const approveSelector = "0x095ea7b3"

// Intent is the would-be transaction shape: an optional approval followed
// by the swap itself. Nothing here is ever broadcast.
type Intent struct {
	PoolComponentID string
	TokenIn         domain.Token
	TokenOut        domain.Token
	AmountIn        domain.RawAmount
	MinAmountOut    domain.RawAmount
	SlippageBps     float64
	ApprovalNeeded  bool
	ApproveSelector string
}

// Encoder builds and logs swap intents for an optimized TradeResult; it
// never submits anything.
type Encoder struct {
	log *zap.Logger
}

// New builds an Encoder.
func New(log *zap.Logger) *Encoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Encoder{log: log}
}

// EncodeBestPool builds the intent for the single best-allocated pool in
// a TradeResult (the allocation with the highest DistributionPct),
// applying DefaultSlippageBps to derive MinAmountOut from NetOutput.
func (e *Encoder) EncodeBestPool(tr domain.TradeResult, needsApproval bool) (Intent, error) {
	if len(tr.PerPool) == 0 {
		return Intent{}, fmt.Errorf("execution: trade result has no pool allocations")
	}
	best := tr.PerPool[0]
	for _, p := range tr.PerPool[1:] {
		if p.DistributionPct > best.DistributionPct {
			best = p
		}
	}

	minOut := best.NetOutput * (1 - DefaultSlippageBps/10_000)
	intent := Intent{
		PoolComponentID: best.ComponentID,
		TokenIn:         tr.InputToken,
		TokenOut:        tr.OutputToken,
		AmountIn:        domain.RawAmountFromFloat(tr.InputAmount*best.DistributionPct/100, tr.InputToken.Decimals),
		MinAmountOut:    domain.RawAmountFromFloat(minOut, tr.OutputToken.Decimals),
		SlippageBps:     DefaultSlippageBps,
		ApprovalNeeded:  needsApproval,
		ApproveSelector: approveSelector,
	}

	e.log.Info("encoded swap intent (not submitted)",
		zap.String("pool", intent.PoolComponentID),
		zap.String("token_in", intent.TokenIn.Address),
		zap.String("token_out", intent.TokenOut.Address),
		zap.String("amount_in", intent.AmountIn.String()),
		zap.String("min_amount_out", intent.MinAmountOut.String()),
		zap.Bool("approval_needed", intent.ApprovalNeeded),
	)
	return intent, nil
}
