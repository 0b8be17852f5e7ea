// Package eventhub fans the Stream Processor's events out to subscribed
// WebSocket clients (dashboards watching a pair's orderbook rebuild as
// new blocks arrive). Adapted near-verbatim in structure from the
// teacher's internal/websocket/hub.go (register/unregister channels,
// broadcast with slow-client eviction, sync.Pool buffer reuse), repointed
// at streamproc.Event payloads instead of CEX pair/balance/stats
// messages, and switched from encoding/json to json-iterator/go.
package eventhub

import (
	"bytes"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"tychoorderbook/internal/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// EventMessage is the envelope broadcast for every Stream Processor
// event, matching the external interface's Initialised/NewHeader/Error
// variants.
type EventMessage struct {
	Kind        string `json:"kind"`
	BlockHeight uint64 `json:"block_height"`
	Error       string `json:"error,omitempty"`
}

// Hub manages every active WebSocket subscriber and fans out event
// broadcasts to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	log        *zap.Logger
}

// NewHub builds a Hub. Call Run in its own goroutine before any client
// connects.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run drives registration, unregistration, and broadcast until the
// process exits; it is not context-cancellable by design, matching the
// teacher's hub (the HTTP server's own shutdown tears down client
// connections, which unregisters them).
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ConnectedClients.Set(float64(n))
			h.log.Debug("client connected", zap.Int("total_clients", n))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ConnectedClients.Set(float64(n))
			h.log.Debug("client disconnected", zap.Int("total_clients", n))

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				n := len(h.clients)
				h.mu.Unlock()
				metrics.ConnectedClients.Set(float64(n))
				metrics.SlowClientsEvicted.Add(float64(len(toRemove)))
				h.log.Warn("removed slow clients", zap.Int("removed", len(toRemove)), zap.Int("total_clients", n))
			}
		}
	}
}

// Broadcast encodes message with json-iterator and sends it to every
// connected client, using a pooled buffer to avoid per-call allocation on
// the hot broadcast path.
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		h.log.Error("failed to marshal broadcast message", zap.Error(err))
		jsonBufferPool.Put(buf)
		return
	}

	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	h.broadcast <- msgCopy
}

// BroadcastEvent encodes and fans out a Stream Processor event.
func (h *Hub) BroadcastEvent(kind string, blockHeight uint64, err error) {
	msg := EventMessage{Kind: kind, BlockHeight: blockHeight}
	if err != nil {
		msg.Error = err.Error()
	}
	h.Broadcast(&msg)
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
