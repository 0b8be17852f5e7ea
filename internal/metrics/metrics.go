// Package metrics defines the Prometheus collectors exported at /metrics.
// Grounded on the teacher's internal/bot/metrics.go (promauto-registered
// package-level vars, namespace/subsystem conventions, small Record*/
// Update* helper functions wrapping each collector).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============ Build latency & outcome ============

// BuildLatency is the time to assemble one full Orderbook, from Build()
// entry to return.
var BuildLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "tychoorderbook",
		Subsystem: "orderbook",
		Name:      "build_latency_ms",
		Help:      "Time to assemble an orderbook in milliseconds",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	},
	[]string{"tag"},
)

// BuildsTotal counts completed Build() calls by outcome.
var BuildsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tychoorderbook",
		Subsystem: "orderbook",
		Name:      "builds_total",
		Help:      "Total number of orderbook builds",
	},
	[]string{"tag", "result"}, // result: ok, degraded, error
)

// OptimizerIterations records how many gradient-ascent rounds a single
// Gradient() call consumed before converging or hitting MaxIterations.
var OptimizerIterations = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "tychoorderbook",
		Subsystem: "optimizer",
		Name:      "iterations",
		Help:      "Allocation optimizer iterations per gradient() call",
		Buckets:   []float64{1, 2, 5, 10, 20, 30, 50},
	},
	[]string{"tag"},
)

// ============ Degradation & upstream health ============

// DegradationsTotal counts each apperr.Code surfaced while assembling an
// orderbook, split by whether the build still produced a (degraded)
// result or failed outright.
var DegradationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tychoorderbook",
		Subsystem: "orderbook",
		Name:      "degradations_total",
		Help:      "Total number of degradation/error events by apperr code",
	},
	[]string{"code"}, // RPC_UNAVAILABLE, SIM_ERROR, UNQUOTABLE, ...
)

// RPCLatency is per-method Chain RPC round-trip latency.
var RPCLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "tychoorderbook",
		Subsystem: "chainrpc",
		Name:      "latency_ms",
		Help:      "Chain RPC call latency in milliseconds",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	},
	[]string{"method"},
)

// RPCRetries counts retry attempts issued by pkg/retry while calling the
// chain RPC endpoint.
var RPCRetries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tychoorderbook",
		Subsystem: "chainrpc",
		Name:      "retries_total",
		Help:      "Total number of chain RPC retry attempts",
	},
	[]string{"method"},
)

// ============ Shared State Store ============

// TrackedComponents is the number of pool components currently held in
// the Shared State Store.
var TrackedComponents = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tychoorderbook",
		Subsystem: "state",
		Name:      "components",
		Help:      "Number of pool components currently tracked",
	},
)

// StoreBlockHeight is the block height of the last applied snapshot or
// delta.
var StoreBlockHeight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tychoorderbook",
		Subsystem: "state",
		Name:      "block_height",
		Help:      "Block height of the last applied state update",
	},
)

// EventQueueDepth is the current occupancy of the Stream Processor's
// bounded event channel, surfaced to catch back-pressure before it turns
// into dropped consumers.
var EventQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tychoorderbook",
		Subsystem: "streamproc",
		Name:      "event_queue_depth",
		Help:      "Current number of buffered, unconsumed stream processor events",
	},
)

// ============ WebSocket fan-out ============

// ConnectedClients is the number of subscribed WebSocket clients.
var ConnectedClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tychoorderbook",
		Subsystem: "eventhub",
		Name:      "connected_clients",
		Help:      "Number of currently connected WebSocket clients",
	},
)

// SlowClientsEvicted counts clients dropped by the hub for failing to
// drain their send buffer.
var SlowClientsEvicted = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tychoorderbook",
		Subsystem: "eventhub",
		Name:      "slow_clients_evicted_total",
		Help:      "Total number of WebSocket clients evicted for a full send buffer",
	},
)

// ============ Helper functions ============

// RecordBuild records a completed orderbook build.
func RecordBuild(tag, result string, latencyMs float64) {
	BuildLatency.WithLabelValues(tag).Observe(latencyMs)
	BuildsTotal.WithLabelValues(tag, result).Inc()
}

// RecordDegradation records one apperr.Code surfaced during a build.
func RecordDegradation(code string) {
	DegradationsTotal.WithLabelValues(code).Inc()
}

// RecordRPCCall records one chain RPC round trip.
func RecordRPCCall(method string, latencyMs float64, retries int) {
	RPCLatency.WithLabelValues(method).Observe(latencyMs)
	if retries > 0 {
		RPCRetries.WithLabelValues(method).Add(float64(retries))
	}
}

// UpdateStoreGauges refreshes the Shared State Store gauges.
func UpdateStoreGauges(componentCount int, blockHeight uint64) {
	TrackedComponents.Set(float64(componentCount))
	StoreBlockHeight.Set(float64(blockHeight))
}
