package feed

import (
	"context"
	"sync/atomic"

	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/state"
)

// StaticSource replays a fixed component/simulator set on every poll,
// advancing the block height each call. It stands in for the upstream
// protocol stream subscription (spec.md's Protocol Stream Client), which
// is out of scope for this deployment — wiring a live indexer client
// only changes what satisfies the Source interface, not the Producer
// or Stream Processor that consume it.
type StaticSource struct {
	components map[string]domain.PoolComponent
	simulators map[string]state.Simulator
	block      uint64
}

// NewStaticSource builds a Source that always reports the same component
// set, starting at startBlock and incrementing by one each poll.
func NewStaticSource(components map[string]domain.PoolComponent, simulators map[string]state.Simulator, startBlock uint64) *StaticSource {
	return &StaticSource{components: components, simulators: simulators, block: startBlock}
}

// Next implements Source.
func (s *StaticSource) Next(ctx context.Context) (uint64, map[string]domain.PoolComponent, map[string]state.Simulator, []string, error) {
	block := atomic.AddUint64(&s.block, 1)
	return block, s.components, s.simulators, nil, nil
}
