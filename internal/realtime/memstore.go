package realtime

import (
	"context"
	"sync"
)

// historyCap bounds per-station history retention in memory.
const historyCap = 500

// MemStore is an in-process Store, used by tests and standalone runs
// without a database.
type MemStore struct {
	mu          sync.RWMutex
	latest      Snapshot
	history     map[string][]Reading
	subscribers map[int]func(Snapshot)
	nextSub     int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		latest:      make(Snapshot),
		history:     make(map[string][]Reading),
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current station keyspace.
func (m *MemStore) Snapshot(ctx context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySnapshot(m.latest), nil
}

// Subscribe registers fn and delivers the current snapshot immediately.
func (m *MemStore) Subscribe(ctx context.Context, fn func(Snapshot)) (func(), error) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subscribers[id] = fn
	initial := copySnapshot(m.latest)
	m.mu.Unlock()

	fn(initial)

	cancel := func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
	return cancel, nil
}

// Publish replaces the station's latest reading, appends to history, and
// fans the new snapshot out to subscribers.
func (m *MemStore) Publish(ctx context.Context, r Reading) error {
	m.mu.Lock()
	m.latest[r.StationID] = r
	hist := append(m.history[r.StationID], r)
	if len(hist) > historyCap {
		hist = hist[len(hist)-historyCap:]
	}
	m.history[r.StationID] = hist

	snap := copySnapshot(m.latest)
	subs := make([]func(Snapshot), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return nil
}

// History returns up to limit of the station's most recent readings,
// newest last.
func (m *MemStore) History(stationID string, limit int) []Reading {
	m.mu.RLock()
	defer m.mu.RUnlock()
	hist := m.history[stationID]
	if limit > 0 && len(hist) > limit {
		hist = hist[len(hist)-limit:]
	}
	out := make([]Reading, len(hist))
	copy(out, hist)
	return out
}

func copySnapshot(s Snapshot) Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
