// Package models defines the persisted row shapes for the operator-facing
// Postgres tables: which pairs to watch, and an audit trail of assembled
// orderbooks. Grounded on the teacher's internal/models package (plain
// structs with json/db tags, status string constants).
package models

import "time"

// WatchedPair is one base/quote pair the operator has asked the service to
// keep building orderbooks for.
type WatchedPair struct {
	ID          int       `json:"id" db:"id"`
	Tag         string    `json:"tag" db:"tag"` // lower-cased "base-quote"
	BaseToken   string    `json:"base_token" db:"base_token"`
	QuoteToken  string    `json:"quote_token" db:"quote_token"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Pair watch statuses.
const (
	WatchedPairStatusActive = "active"
	WatchedPairStatusPaused = "paused"
)

// BuildAudit records one assembled Orderbook for later inspection: how deep
// the ladder went, whether the build degraded, and how long it took.
type BuildAudit struct {
	ID             int       `json:"id" db:"id"`
	Tag            string    `json:"tag" db:"tag"`
	BlockHeight    uint64    `json:"block_height" db:"block_height"`
	AskPoints      int       `json:"ask_points" db:"ask_points"`
	BidPoints      int       `json:"bid_points" db:"bid_points"`
	MidPrice       float64   `json:"mid_price" db:"mid_price"`
	Degraded       bool      `json:"degraded" db:"degraded"`
	DegradedReason string    `json:"degraded_reason,omitempty" db:"degraded_reason"`
	BuildDurationMs int64    `json:"build_duration_ms" db:"build_duration_ms"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Credential is an at-rest, AES-256-GCM-encrypted upstream credential (feed
// auth key, RPC API key) keyed by a caller-chosen name.
type Credential struct {
	ID             int       `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	EncryptedValue string    `json:"-" db:"encrypted_value"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
