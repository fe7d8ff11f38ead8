// Package telemetry aggregates the live sensor keyspace into the shape
// the dashboard consumes: a keyed snapshot plus network-wide statistics.
package telemetry

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bioshield-iot/bioshield-monitor/internal/classify"
	"github.com/bioshield-iot/bioshield-monitor/internal/liveness"
	"github.com/bioshield-iot/bioshield-monitor/internal/realtime"
)

// NetworkStats summarizes the live station set. Recomputed on demand
// from the current snapshot; never persisted.
type NetworkStats struct {
	Total      int     `json:"total"`
	Safe       int     `json:"safe"`
	Caution    int     `json:"caution"`
	Danger     int     `json:"danger"`
	AveragePH  float64 `json:"averagePH"`
	AverageTDS float64 `json:"averageTDS"`
}

// Aggregator owns one subscription to the realtime store and all state
// derived from it. Construct one per consumer lifetime and Stop it on
// teardown; there are no package-level caches.
type Aggregator struct {
	store realtime.Store
	log   *zap.SugaredLogger
	now   func() time.Time

	mu         sync.RWMutex
	snapshot   realtime.Snapshot
	connected  bool
	lastUpdate time.Time
	lastErr    error
	cancel     func()
	// starting guards the window between the idempotency check and the
	// subscribe completing; the mutex cannot be held across Subscribe
	// because the initial delivery calls back into apply.
	starting bool
}

// New creates an Aggregator over store. Start must be called before the
// snapshot populates.
func New(store realtime.Store, logger *zap.SugaredLogger) *Aggregator {
	return &Aggregator{
		store:    store,
		log:      logger,
		now:      time.Now,
		snapshot: make(realtime.Snapshot),
	}
}

// Start subscribes to the store. Calling Start on an already-started
// aggregator is a no-op, so callers can re-enter safely.
func (a *Aggregator) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.cancel != nil || a.starting {
		a.mu.Unlock()
		return nil
	}
	a.starting = true
	a.mu.Unlock()

	cancel, err := a.store.Subscribe(ctx, a.apply)
	if err != nil {
		a.mu.Lock()
		a.starting = false
		a.connected = false
		a.lastErr = err
		a.mu.Unlock()
		return err
	}

	a.mu.Lock()
	a.starting = false
	a.cancel = cancel
	a.connected = true
	a.mu.Unlock()
	return nil
}

// Stop releases the store subscription. Safe to call repeatedly.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.connected = false
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// apply installs a full replacement snapshot from the store.
func (a *Aggregator) apply(snap realtime.Snapshot) {
	a.mu.Lock()
	a.snapshot = snap
	a.connected = true
	a.lastUpdate = a.now()
	a.lastErr = nil
	a.mu.Unlock()
}

// Snapshot returns a copy of the current stationId -> reading mapping.
func (a *Aggregator) Snapshot() realtime.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make(realtime.Snapshot, len(a.snapshot))
	for k, v := range a.snapshot {
		out[k] = v
	}
	return out
}

// StationData returns the latest reading for one station.
func (a *Aggregator) StationData(stationID string) (realtime.Reading, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	r, ok := a.snapshot[stationID]
	return r, ok
}

// StationIDs returns the known station ids in stable order.
func (a *Aggregator) StationIDs() []string {
	a.mu.RLock()
	ids := make([]string, 0, len(a.snapshot))
	for id := range a.snapshot {
		ids = append(ids, id)
	}
	a.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// IsStationOnline reports whether the station's latest reading is within
// the liveness window.
func (a *Aggregator) IsStationOnline(stationID string) bool {
	r, ok := a.StationData(stationID)
	if !ok {
		return false
	}
	return liveness.IsOnline(r.Timestamp, a.now())
}

// IsConnected reports whether the subscription is live.
func (a *Aggregator) IsConnected() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connected
}

// LastUpdate returns when the snapshot last changed; zero before the
// first delivery.
func (a *Aggregator) LastUpdate() time.Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastUpdate
}

// Err returns the last subscription error, cleared on the next
// successful delivery.
func (a *Aggregator) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastErr
}

// Stats computes network-wide statistics in one pass over the snapshot.
// An empty station set yields all zeros.
func (a *Aggregator) Stats() NetworkStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var stats NetworkStats
	if len(a.snapshot) == 0 {
		return stats
	}

	var phSum, tdsSum float64
	for _, r := range a.snapshot {
		stats.Total++
		if !math.IsNaN(r.PH) {
			phSum += r.PH
		}
		if !math.IsNaN(r.TDS) {
			tdsSum += r.TDS
		}
		switch r.Status {
		case classify.StatusSafe:
			stats.Safe++
		case classify.StatusCaution:
			stats.Caution++
		case classify.StatusDanger:
			stats.Danger++
		}
	}

	stats.AveragePH = phSum / float64(stats.Total)
	stats.AverageTDS = tdsSum / float64(stats.Total)
	return stats
}
