package feed

import (
	"context"
	"testing"
	"time"

	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/state"
	"tychoorderbook/internal/streamproc"
)

type fakeSource struct {
	calls int
}

func (f *fakeSource) Next(ctx context.Context) (uint64, map[string]domain.PoolComponent, map[string]state.Simulator, []string, error) {
	f.calls++
	return uint64(f.calls), map[string]domain.PoolComponent{
		"low":  {ID: "low", TVLUSD: 10},
		"high": {ID: "high", TVLUSD: 10_000},
	}, map[string]state.Simulator{}, nil, nil
}

func TestProducerFiltersByTVLAndMarksFirstAsSnapshot(t *testing.T) {
	out := make(chan streamproc.BlockUpdate, 2)
	src := &fakeSource{}
	p := New(Config{PollInterval: time.Millisecond, MinTVLUSD: 1000}, src, out, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p.poll(ctx)
	upd := <-out
	if !upd.IsSnapshot {
		t.Fatal("expected first update to be a snapshot")
	}
	if _, ok := upd.Components["low"]; ok {
		t.Fatal("expected low-TVL component to be filtered out")
	}
	if _, ok := upd.Components["high"]; !ok {
		t.Fatal("expected high-TVL component to pass the filter")
	}

	p.poll(ctx)
	upd2 := <-out
	if upd2.IsSnapshot {
		t.Fatal("expected second update to not be a snapshot")
	}
}
