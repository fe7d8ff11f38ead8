// Package realtime is the latest-value plane of the monitoring network:
// one reading per station, replaced wholesale on every sensor push, plus
// an append-only history of every push.
package realtime

import (
	"context"

	"github.com/bioshield-iot/bioshield-monitor/internal/classify"
)

// Reading is the exact payload the ingestion bridge writes for each
// sensor push, stored both under the per-station latest-value path and
// appended to the history log.
type Reading struct {
	StationID string `json:"stationId"`
	// Timestamp is unix time in an ambiguous unit: firmware revisions
	// disagree on seconds vs milliseconds. liveness.NormalizeMillis is
	// the one place that resolves it.
	Timestamp   int64           `json:"timestamp"`
	PH          float64         `json:"ph"`
	TDS         float64         `json:"tds"`
	Temperature *float64        `json:"temperature,omitempty"`
	Turbidity   *float64        `json:"turbidity,omitempty"`
	Latitude    float64         `json:"latitude"`
	Longitude   float64         `json:"longitude"`
	Status      classify.Status `json:"status"`
}

// Snapshot is the full station keyspace at one instant.
type Snapshot map[string]Reading

// Store is the latest-value keyspace contract. Every implementation
// delivers full replacement snapshots, never incremental patches, so
// subscribers have no merge to reason about.
type Store interface {
	// Snapshot returns the current stationId -> latest reading mapping.
	Snapshot(ctx context.Context) (Snapshot, error)

	// Subscribe invokes fn once with the current snapshot and again
	// after every change, until cancel is called. Cancel releases any
	// server-side listener. Subscribing twice yields two independent
	// subscriptions.
	Subscribe(ctx context.Context, fn func(Snapshot)) (cancel func(), err error)

	// Publish stores r as its station's latest reading, appends it to
	// the history log, and wakes subscribers.
	Publish(ctx context.Context, r Reading) error
}
