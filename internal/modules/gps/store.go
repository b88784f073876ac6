// README: Point store backed by QuestDB over PGWire (append-only gps_points table).
package gps

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitapp/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// EnsureTable creates the designated-timestamp table if it is missing.
func (s *Store) EnsureTable(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS gps_points (
            session_id   SYMBOL,
            user_id      LONG,
            activity     SYMBOL,
            last_entry   BOOLEAN,
            latitude     DOUBLE,
            longitude    DOUBLE,
            acceleration DOUBLE,
            timestamp    TIMESTAMP
        ) TIMESTAMP(timestamp) PARTITION BY DAY WAL`)
	return err
}

// Append queues every sample into a single batch. The engine gives no
// cross-row atomicity, so a failed batch may leave some rows behind; callers
// retry the whole batch.
func (s *Store) Append(ctx context.Context, samples []Sample) error {
	batch := &pgx.Batch{}
	for _, p := range samples {
		batch.Queue(`
            INSERT INTO gps_points (
                session_id, user_id, activity, last_entry,
                latitude, longitude, acceleration, timestamp
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.SessionID,
			p.UserID,
			toActivityPtr(p.Activity),
			p.LastEntry,
			p.Latitude,
			p.Longitude,
			p.Acceleration,
			p.Timestamp.UTC(),
		)
	}
	return s.db.SendBatch(ctx, batch).Close()
}

// QueryBySession returns every sample of the session ordered by timestamp.
// An unknown session yields an empty slice.
func (s *Store) QueryBySession(ctx context.Context, sessionID string) ([]Sample, error) {
	rows, err := s.db.Query(ctx, `
        SELECT session_id, user_id, activity, last_entry,
               latitude, longitude, acceleration, timestamp
        FROM gps_points
        WHERE session_id = $1
        ORDER BY timestamp`, sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Sample{}
	for rows.Next() {
		var p Sample
		var activity sql.NullString
		var accel sql.NullFloat64
		if err := rows.Scan(
			&p.SessionID, &p.UserID, &activity, &p.LastEntry,
			&p.Latitude, &p.Longitude, &accel, &p.Timestamp,
		); err != nil {
			return nil, err
		}
		if activity.Valid {
			p.Activity = types.Activity(activity.String)
		}
		if accel.Valid {
			p.Acceleration = accel.Float64
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SessionsByUser lists the distinct sessions that have at least one sample.
func (s *Store) SessionsByUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := s.db.Query(ctx, `
        SELECT DISTINCT session_id
        FROM gps_points
        WHERE user_id = $1`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SessionOwner reports the user of the session's earliest sample.
func (s *Store) SessionOwner(ctx context.Context, sessionID string) (int64, bool, error) {
	var owner int64
	err := s.db.QueryRow(ctx, `
        SELECT user_id
        FROM gps_points
        WHERE session_id = $1
        ORDER BY timestamp
        LIMIT 1`, sessionID,
	).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return owner, true, nil
}

func toActivityPtr(a types.Activity) *string {
	if a == "" {
		return nil
	}
	s := string(a)
	return &s
}
