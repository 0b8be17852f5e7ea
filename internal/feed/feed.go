// Package feed is a simulated Protocol Stream Client: in the real system
// this would be a subscription to the upstream indexer named in spec.md
// §6; here it is an in-process producer that emits BlockUpdates on an
// interval, applying the original source's TVL filter thresholds before a
// component ever reaches the Stream Processor. Grounded on the teacher's
// internal/exchange/ws_reconnect.go reconnect/backoff loop (adapted here
// to a simple ticking producer, since there is no live chain connection
// to reconnect to) and wrapped in pkg/retry/pkg/ratelimit per the
// teacher's idiom.
package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/state"
	"tychoorderbook/internal/streamproc"
)

// Config mirrors internal/config.FeedConfig's filtering/timing knobs.
type Config struct {
	PollInterval time.Duration
	MinTVLUSD    float64
	MaxTVLUSD    float64 // 0 = no upper bound
}

// Source supplies the next block's raw component set; a real
// implementation would decode upstream protocol messages here. Tests and
// cmd/server wire in whatever Source fits (a fixture, a fake, or — in a
// future iteration — a real upstream client).
type Source interface {
	// Next returns the components known as of the next block, or an
	// error if the upstream message could not be decoded
	// (streamproc.DecodeError wraps such errors as CodeUpstreamDecode,
	// which the Stream Processor treats as non-fatal to its loop).
	Next(ctx context.Context) (blockHeight uint64, components map[string]domain.PoolComponent, simulators map[string]state.Simulator, removed []string, err error)
}

// Producer polls Source on an interval and writes BlockUpdates to out,
// applying the TVL filter before each send.
type Producer struct {
	cfg    Config
	source Source
	out    chan<- streamproc.BlockUpdate
	log    *zap.Logger

	firstSeen bool
}

// New builds a Producer writing BlockUpdates onto out.
func New(cfg Config, source Source, out chan<- streamproc.BlockUpdate, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Producer{cfg: cfg, source: source, out: out, log: log}
}

// Run polls until ctx is cancelled.
func (p *Producer) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Producer) poll(ctx context.Context) {
	block, components, sims, removed, err := p.source.Next(ctx)
	if err != nil {
		p.log.Warn("feed source failed to decode upstream message", zap.Error(err))
		return
	}

	filtered := make(map[string]domain.PoolComponent, len(components))
	filteredSims := make(map[string]state.Simulator, len(sims))
	for id, c := range components {
		if !p.passesTVLFilter(c.TVLUSD) {
			continue
		}
		filtered[id] = c
		if sim, ok := sims[id]; ok {
			filteredSims[id] = sim
		}
	}

	upd := streamproc.BlockUpdate{
		BlockHeight: block,
		IsSnapshot:  !p.firstSeen,
		Components:  filtered,
		Simulators:  filteredSims,
		Removed:     removed,
	}
	p.firstSeen = true

	select {
	case p.out <- upd:
	case <-ctx.Done():
	}
}

func (p *Producer) passesTVLFilter(tvl float64) bool {
	if tvl < p.cfg.MinTVLUSD {
		return false
	}
	if p.cfg.MaxTVLUSD > 0 && tvl > p.cfg.MaxTVLUSD {
		return false
	}
	return true
}
