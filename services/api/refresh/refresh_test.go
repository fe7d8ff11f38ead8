package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bioshield-iot/bioshield-monitor/internal/classify"
	"github.com/bioshield-iot/bioshield-monitor/internal/station"
)

type stubSource struct {
	records []station.Record
	latest  map[int64]*station.Reading
	err     error
}

func (s *stubSource) ListStations(ctx context.Context) ([]station.Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func (s *stubSource) LatestReadings(ctx context.Context) (map[int64]*station.Reading, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.latest, nil
}

func newTestRefresher(src *stubSource) *Refresher {
	logger := zap.NewNop().Sugar()
	resolver := station.NewResolver(nil, logger)
	return New(src, resolver, time.Minute, logger)
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	lead := 0.75
	src := &stubSource{
		records: []station.Record{
			{ID: 1, Name: "Ganga - Haridwar", Lat: 29.9457, Lng: 78.1642},
			{ID: 2, Name: "Hooghly - Kolkata", Lat: 22.5726, Lng: 88.3639},
		},
		latest: map[int64]*station.Reading{
			2: {StationID: 2, PH: 7.0, Lead: &lead},
		},
	}
	r := newTestRefresher(src)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	stations := r.Stations()
	if len(stations) != 2 {
		t.Fatalf("stations = %d", len(stations))
	}
	if r.LastRefresh().IsZero() {
		t.Fatal("lastRefresh not set")
	}
	if r.Err() != nil {
		t.Fatalf("err = %v", r.Err())
	}

	st, ok := r.Station(2)
	if !ok {
		t.Fatal("station 2 missing")
	}
	if st.Status != classify.StatusDanger {
		t.Fatalf("status = %s", st.Status)
	}

	// Lead 0.75 is past the high alert bound.
	alerts := r.Alerts()
	found := false
	for _, a := range alerts {
		if a.StationID == 2 && a.Severity == "high" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected high lead alert, got %+v", alerts)
	}
}

func TestRefreshKeepsLastGoodSnapshot(t *testing.T) {
	src := &stubSource{
		records: []station.Record{
			{ID: 1, Name: "Ganga - Haridwar", Lat: 29.9457, Lng: 78.1642},
		},
	}
	r := newTestRefresher(src)

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	firstRefresh := r.LastRefresh()

	src.err = errors.New("db down")
	if err := r.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh error")
	}

	if len(r.Stations()) != 1 {
		t.Fatal("failed refresh must not clear the snapshot")
	}
	if !r.LastRefresh().Equal(firstRefresh) {
		t.Fatal("lastRefresh must not advance on failure")
	}
	if r.Err() == nil {
		t.Fatal("err should report the failure")
	}
}

func TestRefreshBreakerOpensOnRepeatedFailure(t *testing.T) {
	src := &stubSource{err: errors.New("db down")}
	r := newTestRefresher(src)

	for i := 0; i < 10; i++ {
		_ = r.Refresh(context.Background())
	}

	// The breaker is now open: recovery is rejected without touching the
	// source until the breaker timeout elapses.
	src.err = nil
	if err := r.Refresh(context.Background()); err == nil {
		t.Fatal("expected open breaker to fail fast")
	}
}
