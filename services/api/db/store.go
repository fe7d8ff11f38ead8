package db

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bioshield-iot/bioshield-monitor/internal/station"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const listStationsSQL = `
    SELECT id, name, lat, lng, description, created_at
    FROM monitoring_stations
    ORDER BY id
`

// ListStations returns all monitoring station records.
func (s *Store) ListStations(ctx context.Context) ([]station.Record, error) {
	rows, err := s.pool.Query(ctx, listStationsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := make([]station.Record, 0)
	for rows.Next() {
		var rec station.Record
		var description *string
		if err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&rec.Lat,
			&rec.Lng,
			&description,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if description != nil {
			rec.Description = *description
		}
		stations = append(stations, rec)
	}
	return stations, rows.Err()
}

// The id tiebreak keeps the pick stable when two rows share a
// measured_at.
const latestReadingsSQL = `
    SELECT DISTINCT ON (station_id)
        id, station_id, ph, turbidity, dissolved_oxygen,
        lead, mercury, cadmium, arsenic, water_quality_index, measured_at
    FROM water_data
    ORDER BY station_id, measured_at DESC, id DESC
`

// LatestReadings returns the most recent reading per station, keyed by
// station id.
func (s *Store) LatestReadings(ctx context.Context) (map[int64]*station.Reading, error) {
	rows, err := s.pool.Query(ctx, latestReadingsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[int64]*station.Reading)
	for rows.Next() {
		var r station.Reading
		if err := rows.Scan(
			&r.ID,
			&r.StationID,
			&r.PH,
			&r.Turbidity,
			&r.DissolvedOxygen,
			&r.Lead,
			&r.Mercury,
			&r.Cadmium,
			&r.Arsenic,
			&r.QualityIndex,
			&r.MeasuredAt,
		); err != nil {
			return nil, err
		}
		reading := r
		latest[r.StationID] = &reading
	}
	return latest, rows.Err()
}

// ReadingQuery holds filters for retrieving a station's reading history.
type ReadingQuery struct {
	StationID int64
	Limit     int
	Since     *time.Time
	Until     *time.Time
}

const readingsBase = `
    SELECT id, station_id, ph, turbidity, dissolved_oxygen,
        lead, mercury, cadmium, arsenic, water_quality_index, measured_at
    FROM water_data
    WHERE station_id = $1
`

// ReadingsByStation returns readings for one station based on the query,
// newest first.
func (s *Store) ReadingsByStation(ctx context.Context, q ReadingQuery) ([]station.Reading, error) {
	args := []any{q.StationID}
	clause := ""
	argPos := 2
	if q.Since != nil {
		clause += " AND measured_at >= $" + strconv.Itoa(argPos)
		args = append(args, *q.Since)
		argPos++
	}
	if q.Until != nil {
		clause += " AND measured_at <= $" + strconv.Itoa(argPos)
		args = append(args, *q.Until)
		argPos++
	}
	order := " ORDER BY measured_at DESC, id DESC"
	limit := ""
	if q.Limit > 0 {
		limit = " LIMIT $" + strconv.Itoa(argPos)
		args = append(args, q.Limit)
	}

	sql := readingsBase + clause + order + limit

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	readings := make([]station.Reading, 0)
	for rows.Next() {
		var r station.Reading
		if err := rows.Scan(
			&r.ID,
			&r.StationID,
			&r.PH,
			&r.Turbidity,
			&r.DissolvedOxygen,
			&r.Lead,
			&r.Mercury,
			&r.Cadmium,
			&r.Arsenic,
			&r.QualityIndex,
			&r.MeasuredAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
