package state

import (
	"testing"

	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/domain"
)

func tok(addr string) domain.Token {
	return domain.Token{Address: addr, Symbol: addr[2:6], Decimals: 18}
}

func TestStoreNotReadyBeforeSnapshot(t *testing.T) {
	s := New()
	if s.IsInitialised() {
		t.Fatal("expected uninitialised store")
	}
	if _, err := s.Read(); !apperr.Is(err, apperr.CodeNotReady) {
		t.Fatalf("expected NOT_READY, got %v", err)
	}
}

func TestApplySnapshotThenDelta(t *testing.T) {
	s := New()
	weth := tok("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc := tok("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")

	c1 := domain.PoolComponent{ID: "p1", Family: domain.FamilyConstantProductV2, Tokens: []domain.Token{weth, usdc}, TVLUSD: 100}
	s.ApplySnapshot(map[string]domain.PoolComponent{"p1": c1}, map[string]Simulator{}, 10)

	if !s.IsInitialised() {
		t.Fatal("expected initialised after snapshot")
	}
	snap, err := s.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Components) != 1 || snap.BlockHeight != 10 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	c2 := domain.PoolComponent{ID: "p2", Family: domain.FamilyConstantProductV2, Tokens: []domain.Token{weth, usdc}, TVLUSD: 50}
	if err := s.ApplyDelta(Delta{
		Upserted:    map[string]domain.PoolComponent{"p2": c2},
		Removed:     []string{"p1"},
		BlockHeight: 11,
	}); err != nil {
		t.Fatalf("unexpected error applying delta: %v", err)
	}

	snap, _ = s.Read()
	if len(snap.Components) != 1 {
		t.Fatalf("expected p1 removed and p2 present, got %+v", snap.Components)
	}
	if _, ok := snap.Components["p2"]; !ok {
		t.Fatal("expected p2 present")
	}
	if snap.BlockHeight != 11 {
		t.Fatalf("expected block height 11, got %d", snap.BlockHeight)
	}
}

func TestApplyDeltaBeforeSnapshotFails(t *testing.T) {
	s := New()
	err := s.ApplyDelta(Delta{BlockHeight: 1})
	if !apperr.Is(err, apperr.CodeNotReady) {
		t.Fatalf("expected NOT_READY, got %v", err)
	}
}

func TestSnapshotDepthAndComponentsWithTokens(t *testing.T) {
	weth := tok("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	usdc := tok("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	dai := tok("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	s := New()
	s.ApplySnapshot(map[string]domain.PoolComponent{
		"p1": {ID: "p1", Tokens: []domain.Token{weth, usdc}, TVLUSD: 100},
		"p2": {ID: "p2", Tokens: []domain.Token{weth, dai}, TVLUSD: 40},
	}, map[string]Simulator{}, 1)

	snap, _ := s.Read()
	matches := snap.ComponentsWithTokens(weth.Address, usdc.Address)
	if len(matches) != 1 || matches[0].ID != "p1" {
		t.Fatalf("expected only p1 to match weth/usdc, got %+v", matches)
	}
	if depth := snap.Depth(weth.Address); depth != 140 {
		t.Fatalf("expected depth 140, got %v", depth)
	}
}
