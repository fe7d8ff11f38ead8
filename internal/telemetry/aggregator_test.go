package telemetry

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bioshield-iot/bioshield-monitor/internal/classify"
	"github.com/bioshield-iot/bioshield-monitor/internal/realtime"
)

func testAggregator(t *testing.T, store realtime.Store) *Aggregator {
	t.Helper()
	a := New(store, zap.NewNop().Sugar())
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(a.Stop)
	return a
}

func sensorReading(station string, ts int64, ph, tds float64, status classify.Status) realtime.Reading {
	return realtime.Reading{
		StationID: station,
		Timestamp: ts,
		PH:        ph,
		TDS:       tds,
		Status:    status,
	}
}

func TestStatsEmptySet(t *testing.T) {
	a := testAggregator(t, realtime.NewMemStore())

	stats := a.Stats()
	want := NetworkStats{}
	if stats != want {
		t.Fatalf("empty set should yield all zeros, got %+v", stats)
	}
}

func TestStatsCountsAndAverages(t *testing.T) {
	store := realtime.NewMemStore()
	ctx := context.Background()
	store.Publish(ctx, sensorReading("station_001", 1_700_000_000_000, 7.0, 200, classify.StatusSafe))
	store.Publish(ctx, sensorReading("station_002", 1_700_000_000_000, 6.2, 400, classify.StatusCaution))
	store.Publish(ctx, sensorReading("station_003", 1_700_000_000_000, 5.0, 900, classify.StatusDanger))

	a := testAggregator(t, store)

	stats := a.Stats()
	if stats.Total != 3 || stats.Safe != 1 || stats.Caution != 1 || stats.Danger != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if math.Abs(stats.AveragePH-(7.0+6.2+5.0)/3) > 1e-9 {
		t.Fatalf("unexpected averagePH: %v", stats.AveragePH)
	}
	if math.Abs(stats.AverageTDS-500) > 1e-9 {
		t.Fatalf("unexpected averageTDS: %v", stats.AverageTDS)
	}
}

func TestStatsNaNGuard(t *testing.T) {
	store := realtime.NewMemStore()
	ctx := context.Background()
	store.Publish(ctx, sensorReading("station_001", 1_700_000_000_000, math.NaN(), math.NaN(), classify.StatusSafe))
	store.Publish(ctx, sensorReading("station_002", 1_700_000_000_000, 8.0, 100, classify.StatusSafe))

	a := testAggregator(t, store)

	stats := a.Stats()
	if math.IsNaN(stats.AveragePH) || math.IsNaN(stats.AverageTDS) {
		t.Fatalf("NaN leaked into network stats: %+v", stats)
	}
	if stats.Total != 2 {
		t.Fatalf("expected total 2, got %d", stats.Total)
	}
}

func TestSnapshotFollowsPublishes(t *testing.T) {
	store := realtime.NewMemStore()
	a := testAggregator(t, store)

	ctx := context.Background()
	store.Publish(ctx, sensorReading("station_001", 1_700_000_000_000, 7.0, 200, classify.StatusSafe))

	snap := a.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 station in snapshot, got %d", len(snap))
	}
	ids := a.StationIDs()
	if len(ids) != 1 || ids[0] != "station_001" {
		t.Fatalf("unexpected station ids: %v", ids)
	}
	if !a.IsConnected() {
		t.Fatal("aggregator should report connected")
	}
	if a.LastUpdate().IsZero() {
		t.Fatal("last update should be set after a delivery")
	}
}

func TestIsStationOnline(t *testing.T) {
	store := realtime.NewMemStore()
	a := testAggregator(t, store)

	now := time.Now()
	a.now = func() time.Time { return now }

	ctx := context.Background()
	store.Publish(ctx, sensorReading("fresh", now.Add(-30*time.Second).UnixMilli(), 7, 100, classify.StatusSafe))
	store.Publish(ctx, sensorReading("stale", now.Add(-10*time.Minute).UnixMilli(), 7, 100, classify.StatusSafe))

	if !a.IsStationOnline("fresh") {
		t.Fatal("fresh station should be online")
	}
	if a.IsStationOnline("stale") {
		t.Fatal("stale station should be offline")
	}
	if a.IsStationOnline("missing") {
		t.Fatal("unknown station should be offline")
	}
}

// countingStore wraps a MemStore and counts Subscribe calls.
type countingStore struct {
	*realtime.MemStore
	mu   sync.Mutex
	subs int
}

func (c *countingStore) Subscribe(ctx context.Context, fn func(realtime.Snapshot)) (func(), error) {
	c.mu.Lock()
	c.subs++
	c.mu.Unlock()
	return c.MemStore.Subscribe(ctx, fn)
}

func (c *countingStore) subscribeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subs
}

func TestStartConcurrentSubscribesOnce(t *testing.T) {
	store := &countingStore{MemStore: realtime.NewMemStore()}
	a := New(store, zap.NewNop().Sugar())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Start(ctx)
		}()
	}
	wg.Wait()

	if n := store.subscribeCount(); n != 1 {
		t.Fatalf("expected exactly one subscription, got %d", n)
	}
	a.Stop()
}

func TestStartIdempotentAndStop(t *testing.T) {
	store := realtime.NewMemStore()
	a := New(store, zap.NewNop().Sugar())
	ctx := context.Background()

	if err := a.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("second start should be a no-op, got %v", err)
	}

	a.Stop()
	if a.IsConnected() {
		t.Fatal("stopped aggregator should not report connected")
	}
	a.Stop() // must not panic

	// Restart after stop picks the snapshot back up.
	if err := a.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	store.Publish(ctx, sensorReading("station_001", 1_700_000_000_000, 7, 100, classify.StatusSafe))
	if len(a.Snapshot()) != 1 {
		t.Fatal("restarted aggregator missed a publish")
	}
	a.Stop()
}
