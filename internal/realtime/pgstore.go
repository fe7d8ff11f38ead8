package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// notifyChannel is the Postgres NOTIFY channel the bridge pings after
// every latest-value write.
const notifyChannel = "sensor_updates"

const snapshotSQL = `
    SELECT payload
    FROM sensor_latest
    ORDER BY station_id
`

const insertHistorySQL = `
    INSERT INTO sensor_history (station_id, payload, received_at)
    VALUES ($1, $2, now())
`

const upsertLatestSQL = `
    INSERT INTO sensor_latest (station_id, payload, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (station_id)
    DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()
`

// PGStore implements Store over Postgres: a latest-value table, an
// append-only history table, and LISTEN/NOTIFY for change pushes.
type PGStore struct {
	pool        *pgxpool.Pool
	databaseURL string
	log         *zap.SugaredLogger
}

// NewPGStore creates a PGStore backed by a pgx pool. The URL is kept so
// each subscription can dial its own dedicated LISTEN connection.
func NewPGStore(ctx context.Context, databaseURL string, logger *zap.SugaredLogger) (*PGStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &PGStore{pool: pool, databaseURL: databaseURL, log: logger}, nil
}

// Close releases the pool resources. Active subscriptions hold their own
// connections and are unaffected; cancel those individually.
func (s *PGStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Snapshot returns the full latest-value keyspace.
func (s *PGStore) Snapshot(ctx context.Context) (Snapshot, error) {
	rows, err := s.pool.Query(ctx, snapshotSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snap := make(Snapshot)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var r Reading
		if err := json.Unmarshal(payload, &r); err != nil {
			// One corrupt row must not hide the rest of the network.
			s.log.Warnw("skipping undecodable latest-value row", "error", err)
			continue
		}
		snap[r.StationID] = r
	}
	return snap, rows.Err()
}

// Publish appends r to history, replaces the station's latest value and
// notifies listeners, all in one transaction.
func (s *PGStore) Publish(ctx context.Context, r Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, insertHistorySQL, r.StationID, payload); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, upsertLatestSQL, r.StationID, payload); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, r.StationID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Subscribe opens a dedicated LISTEN connection and re-reads the full
// snapshot after every notification. The returned cancel closes the
// connection, releasing the server-side listener.
func (s *PGStore) Subscribe(ctx context.Context, fn func(Snapshot)) (func(), error) {
	subCtx, cancel := context.WithCancel(ctx)

	conn, err := pgx.Connect(subCtx, s.databaseURL)
	if err != nil {
		cancel()
		return nil, err
	}
	if _, err := conn.Exec(subCtx, "LISTEN "+notifyChannel); err != nil {
		conn.Close(context.Background())
		cancel()
		return nil, err
	}

	initial, err := s.Snapshot(subCtx)
	if err != nil {
		conn.Close(context.Background())
		cancel()
		return nil, err
	}
	fn(initial)

	go func() {
		defer conn.Close(context.Background())
		for {
			if _, err := conn.WaitForNotification(subCtx); err != nil {
				if errors.Is(err, context.Canceled) || subCtx.Err() != nil {
					return
				}
				s.log.Warnw("realtime listener lost", "error", err)
				return
			}
			snap, err := s.Snapshot(subCtx)
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				s.log.Warnw("snapshot after notification failed", "error", err)
				continue
			}
			fn(snap)
		}
	}()

	return cancel, nil
}
