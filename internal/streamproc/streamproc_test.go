package streamproc

import (
	"context"
	"errors"
	"testing"
	"time"

	"tychoorderbook/internal/domain"
	"tychoorderbook/internal/state"
)

func TestProcessorPublishesInitialisedThenNewHeader(t *testing.T) {
	store := state.New()
	updates := make(chan BlockUpdate, 4)
	p := New(store, updates, 4, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go p.Run(ctx)

	updates <- BlockUpdate{
		BlockHeight: 1,
		IsSnapshot:  true,
		Components:  map[string]domain.PoolComponent{"p1": {ID: "p1"}},
		Simulators:  map[string]state.Simulator{},
	}
	ev := <-p.Events()
	if ev.Kind != EventInitialised || ev.BlockHeight != 1 {
		t.Fatalf("unexpected first event: %+v", ev)
	}
	if !store.IsInitialised() {
		t.Fatal("expected store initialised")
	}

	updates <- BlockUpdate{
		BlockHeight: 2,
		Components:  map[string]domain.PoolComponent{"p2": {ID: "p2"}},
	}
	ev = <-p.Events()
	if ev.Kind != EventNewHeader || ev.BlockHeight != 2 {
		t.Fatalf("unexpected second event: %+v", ev)
	}

	close(updates)
}

func TestProcessorSurfacesDeltaErrorWithoutAborting(t *testing.T) {
	store := state.New()
	updates := make(chan BlockUpdate, 4)
	p := New(store, updates, 4, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go p.Run(ctx)

	// Delta before snapshot: store rejects it, but the loop must keep running.
	updates <- BlockUpdate{BlockHeight: 1}
	ev := <-p.Events()
	if ev.Kind != EventError || ev.Err == nil {
		t.Fatalf("expected error event, got %+v", ev)
	}

	updates <- BlockUpdate{BlockHeight: 2, IsSnapshot: true, Components: map[string]domain.PoolComponent{}}
	ev = <-p.Events()
	if ev.Kind != EventInitialised {
		t.Fatalf("expected loop to survive and apply snapshot, got %+v", ev)
	}
	close(updates)
}

func TestDecodeErrorWraps(t *testing.T) {
	cause := errors.New("bad json")
	err := DecodeError(cause)
	if !errors.Is(err, err) {
		t.Fatal("expected errors.Is to find itself")
	}
	if errors.Unwrap(err) != cause {
		t.Fatalf("expected unwrap to return cause, got %v", errors.Unwrap(err))
	}
}
