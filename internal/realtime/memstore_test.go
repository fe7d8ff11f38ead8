package realtime

import (
	"context"
	"testing"

	"github.com/bioshield-iot/bioshield-monitor/internal/classify"
)

func reading(station string, ph, tds float64) Reading {
	return Reading{
		StationID: station,
		Timestamp: 1_700_000_000_000,
		PH:        ph,
		TDS:       tds,
		Latitude:  25.5941,
		Longitude: 85.1376,
		Status:    classify.ClassifyWaterQuality(ph, tds),
	}
}

func TestMemStorePublishAndSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()

	if err := store.Publish(ctx, reading("station_001", 7.2, 180)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := store.Publish(ctx, reading("station_001", 6.1, 420)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap) != 1 {
		t.Fatalf("expected 1 station, got %d", len(snap))
	}
	// Latest write supersedes, not merges.
	if got := snap["station_001"].PH; got != 6.1 {
		t.Fatalf("expected superseding reading, got ph=%v", got)
	}

	if hist := store.History("station_001", 0); len(hist) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(hist))
	}
}

func TestMemStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	if err := store.Publish(ctx, reading("station_001", 7.0, 150)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var got []Snapshot
	cancel, err := store.Subscribe(ctx, func(s Snapshot) {
		got = append(got, s)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	// Initial snapshot arrives synchronously on subscribe.
	if len(got) != 1 || len(got[0]) != 1 {
		t.Fatalf("expected immediate initial snapshot, got %v", got)
	}

	if err := store.Publish(ctx, reading("station_002", 8.0, 250)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 2 || len(got[1]) != 2 {
		t.Fatalf("expected second snapshot with 2 stations, got %v", got)
	}

	cancel()
	if err := store.Publish(ctx, reading("station_003", 7.5, 100)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(got) != 2 {
		t.Fatal("subscriber received a snapshot after cancel")
	}

	// A second subscribe after cancel must work (idempotent re-subscribe).
	cancel2, err := store.Subscribe(ctx, func(Snapshot) {})
	if err != nil {
		t.Fatalf("re-subscribe: %v", err)
	}
	cancel2()
}
