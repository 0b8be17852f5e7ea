// Package streamproc implements the Stream Processor: the single writer
// into the Shared State Store. It consumes block updates from the
// Protocol Stream Client (internal/feed) and publishes a bounded,
// backpressured event channel describing what happened, grounded on the
// teacher's internal/websocket/hub.go broadcast-channel pattern and the
// original source's stream.rs apply loop.
package streamproc

import (
	"context"

	"go.uber.org/zap"

	"tychoorderbook/internal/apperr"
	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/metrics"
	"tychoorderbook/internal/state"
)

// EventKind distinguishes the three event variants spec.md's external
// interface names.
type EventKind string

const (
	EventInitialised EventKind = "initialised"
	EventNewHeader   EventKind = "new_header"
	EventError       EventKind = "error"
)

// Event is published to every subscriber after each block is applied.
type Event struct {
	Kind        EventKind
	BlockHeight uint64
	Err         error // set when Kind == EventError
}

// BlockUpdate is what the feed delivers to the Stream Processor for one
// block: either a full snapshot (first message) or an incremental delta.
type BlockUpdate struct {
	BlockHeight uint64
	IsSnapshot  bool
	Components  map[string]domain.PoolComponent
	Simulators  map[string]state.Simulator
	Removed     []string
}

// Processor owns the single write path into the Shared State Store.
type Processor struct {
	store   *state.Store
	updates <-chan BlockUpdate
	events  chan Event
	log     *zap.Logger
}

// New builds a Processor. events is sized by the caller (FeedConfig's
// EventBufferSize) so that backpressure — not dropped events — is the
// failure mode when subscribers fall behind.
func New(store *state.Store, updates <-chan BlockUpdate, eventBuffer int, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	if eventBuffer <= 0 {
		eventBuffer = 1
	}
	return &Processor{
		store:   store,
		updates: updates,
		events:  make(chan Event, eventBuffer),
		log:     log,
	}
}

// Events returns the read-only event channel. Subscribers must keep
// draining it; a full channel blocks the Stream Processor's loop by
// design (spec.md: "no events may be dropped").
func (p *Processor) Events() <-chan Event {
	return p.events
}

// Run drives the single-writer loop until ctx is cancelled or updates is
// closed. Malformed upstream messages (apperr.CodeUpstreamDecode) are
// logged and surfaced as EventError without aborting the loop; every
// other error is also non-fatal to the loop, per spec.md's error table.
func (p *Processor) Run(ctx context.Context) {
	defer close(p.events)
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-p.updates:
			if !ok {
				return
			}
			p.apply(ctx, upd)
		}
	}
}

func (p *Processor) apply(ctx context.Context, upd BlockUpdate) {
	var err error
	if upd.IsSnapshot {
		p.store.ApplySnapshot(upd.Components, upd.Simulators, upd.BlockHeight)
		p.log.Info("applied initial snapshot", zap.Uint64("block", upd.BlockHeight), zap.Int("components", len(upd.Components)))
		p.publish(ctx, Event{Kind: EventInitialised, BlockHeight: upd.BlockHeight})
		return
	}

	err = p.store.ApplyDelta(state.Delta{
		Upserted:    upd.Components,
		Simulators:  upd.Simulators,
		Removed:     upd.Removed,
		BlockHeight: upd.BlockHeight,
	})
	if err != nil {
		p.log.Warn("failed to apply block delta", zap.Uint64("block", upd.BlockHeight), zap.Error(err))
		p.publish(ctx, Event{Kind: EventError, BlockHeight: upd.BlockHeight, Err: err})
		return
	}
	p.log.Debug("applied block delta", zap.Uint64("block", upd.BlockHeight),
		zap.Int("upserted", len(upd.Components)), zap.Int("removed", len(upd.Removed)))
	p.publish(ctx, Event{Kind: EventNewHeader, BlockHeight: upd.BlockHeight})
}

// publish blocks until the event is delivered or ctx is cancelled,
// enforcing backpressure instead of silently dropping events.
func (p *Processor) publish(ctx context.Context, ev Event) {
	select {
	case p.events <- ev:
		metrics.EventQueueDepth.Set(float64(len(p.events)))
	case <-ctx.Done():
	}
}

// DecodeError wraps a malformed upstream message as an apperr.Error with
// CodeUpstreamDecode, for the feed to report without aborting its loop.
func DecodeError(err error) error {
	return apperr.Wrap(apperr.CodeUpstreamDecode, "failed to decode upstream message", err)
}
