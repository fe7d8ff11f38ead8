// Package refresh maintains an in-memory snapshot of canonical stations
// and derived alerts, rebuilt from the database on a fixed cadence. API
// handlers read the snapshot; a refresh failure keeps serving the last
// good one.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/bioshield-iot/bioshield-monitor/internal/station"
)

// Source supplies station and reading rows, typically backed by the db
// package.
type Source interface {
	ListStations(ctx context.Context) ([]station.Record, error)
	LatestReadings(ctx context.Context) (map[int64]*station.Reading, error)
}

// Refresher polls the Source and keeps the latest resolved snapshot.
type Refresher struct {
	source    Source
	resolver  *station.Resolver
	log       *zap.SugaredLogger
	interval  time.Duration
	scheduler *gocron.Scheduler
	breaker   *gobreaker.CircuitBreaker

	mu          sync.RWMutex
	stations    []station.Canonical
	byID        map[int64]station.Canonical
	alerts      []station.Alert
	lastRefresh time.Time
	lastErr     error
}

// New creates a Refresher. Call Start to begin polling.
func New(source Source, resolver *station.Resolver, interval time.Duration, logger *zap.SugaredLogger) *Refresher {
	// The breaker stops hammering a database that is already failing;
	// while open, refreshes fail fast and the stale snapshot serves.
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "station-refresh",
		MaxRequests: 2,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Refresher{
		source:    source,
		resolver:  resolver,
		log:       logger,
		interval:  interval,
		scheduler: gocron.NewScheduler(time.UTC),
		breaker:   cb,
		byID:      make(map[int64]station.Canonical),
	}
}

type fetchResult struct {
	records []station.Record
	latest  map[int64]*station.Reading
}

// Start runs one refresh synchronously so the API never serves an empty
// snapshot on a healthy database, then schedules the periodic job.
func (r *Refresher) Start(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		r.log.Warnw("initial refresh failed, serving empty snapshot until recovery", "error", err)
	}

	_, err := r.scheduler.Every(r.interval).Do(func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.Refresh(jobCtx); err != nil {
			r.log.Errorw("station refresh failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	r.scheduler.StartAsync()
	return nil
}

// Stop stops the periodic job.
func (r *Refresher) Stop() {
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
}

// Refresh fetches, resolves and swaps in a new snapshot. The swap is
// all-or-nothing: any fetch error leaves the previous snapshot intact.
func (r *Refresher) Refresh(ctx context.Context) error {
	res, err := r.breaker.Execute(func() (interface{}, error) {
		records, err := r.source.ListStations(ctx)
		if err != nil {
			return nil, err
		}
		latest, err := r.source.LatestReadings(ctx)
		if err != nil {
			return nil, err
		}
		return fetchResult{records: records, latest: latest}, nil
	})
	if err != nil {
		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()
		return err
	}

	fetched := res.(fetchResult)
	stations := r.resolver.ResolveBatch(fetched.records, fetched.latest)
	alerts := station.DeriveAlerts(stations, time.Now().UTC())

	byID := make(map[int64]station.Canonical, len(stations))
	for _, st := range stations {
		if _, dup := byID[st.ID]; !dup {
			byID[st.ID] = st
		}
	}

	r.mu.Lock()
	r.stations = stations
	r.byID = byID
	r.alerts = alerts
	r.lastRefresh = time.Now().UTC()
	r.lastErr = nil
	r.mu.Unlock()

	r.log.Infow("station snapshot refreshed", "stations", len(stations), "alerts", len(alerts))
	return nil
}

// Stations returns the current snapshot.
func (r *Refresher) Stations() []station.Canonical {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]station.Canonical, len(r.stations))
	copy(out, r.stations)
	return out
}

// Station returns one station by id.
func (r *Refresher) Station(id int64) (station.Canonical, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.byID[id]
	return st, ok
}

// Alerts returns the alerts derived from the current snapshot.
func (r *Refresher) Alerts() []station.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]station.Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// LastRefresh reports when the snapshot was last rebuilt successfully.
func (r *Refresher) LastRefresh() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRefresh
}

// Err returns the most recent refresh error, nil after a success.
func (r *Refresher) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastErr
}
