// README: Trip store backed by PostgreSQL; constraint violations classify lost creation races.
package trip

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fitapp/internal/types"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const selectTrip = `
    SELECT t.id, t.session_id, t.user_id, t.created_at,
           s.trip_id, s.start_time, s.end_time, s.duration, s.distance, s.calories_burned, s.activity
    FROM trips t
    LEFT JOIN trip_summaries s ON s.trip_id = t.id`

func (s *Store) FindBySessionID(ctx context.Context, sessionID string) (*Trip, error) {
	row := s.db.QueryRow(ctx, selectTrip+`
    WHERE t.session_id = $1`, sessionID,
	)
	t, err := scanTrip(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListByUser returns the user's trips, newest first.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]Trip, error) {
	rows, err := s.db.Query(ctx, selectTrip+`
    WHERE t.user_id = $1
    ORDER BY t.id DESC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Trip{}
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Create inserts the trip, and the summary when given, in one transaction.
// The insert itself is the existence check: losing the race on
// trips.session_id yields ErrAlreadyExists and nothing is written.
func (s *Store) Create(ctx context.Context, t *Trip, summary *Summary) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
        INSERT INTO trips (session_id, user_id)
        VALUES ($1, $2)
        RETURNING id, created_at`,
		t.SessionID, t.UserID,
	).Scan(&t.ID, &t.CreatedAt)
	if isPgError(err, pgUniqueViolation) {
		return ErrAlreadyExists
	}
	if err != nil {
		return err
	}

	if summary != nil {
		summary.TripID = t.ID
		summary.SessionID = t.SessionID
		if _, err := tx.Exec(ctx, `
            INSERT INTO trip_summaries (
                trip_id, session_id, start_time, end_time,
                duration, distance, calories_burned, activity
            ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			summary.TripID, summary.SessionID, summary.StartTime, summary.EndTime,
			summary.Duration, summary.Distance, summary.CaloriesBurned, string(summary.Activity.OrDefault()),
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	t.Summary = summary
	return nil
}

// AttachSummary adds a summary to an existing trip. It never overwrites:
// a second attach fails with ErrAlreadyHasSummary.
func (s *Store) AttachSummary(ctx context.Context, tripID int64, summary Summary) error {
	tag, err := s.db.Exec(ctx, `
        INSERT INTO trip_summaries (
            trip_id, session_id, start_time, end_time,
            duration, distance, calories_burned, activity
        )
        SELECT id, session_id, $2::timestamptz, $3::timestamptz,
               $4::double precision, $5::double precision, $6::double precision, $7::text
        FROM trips
        WHERE id = $1`,
		tripID, summary.StartTime, summary.EndTime,
		summary.Duration, summary.Distance, summary.CaloriesBurned, string(summary.Activity.OrDefault()),
	)
	switch {
	case isPgError(err, pgUniqueViolation):
		return ErrAlreadyHasSummary
	case isPgError(err, pgForeignKeyViolation):
		return ErrNotFound
	case err != nil:
		return err
	case tag.RowsAffected() == 0:
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*Trip, error) {
	var t Trip
	var summaryTripID sql.NullInt64
	var startTime, endTime sql.NullTime
	var duration, distance, calories sql.NullFloat64
	var activity sql.NullString

	err := row.Scan(
		&t.ID, &t.SessionID, &t.UserID, &t.CreatedAt,
		&summaryTripID, &startTime, &endTime, &duration, &distance, &calories, &activity,
	)
	if err != nil {
		return nil, err
	}

	if summaryTripID.Valid {
		t.Summary = &Summary{
			TripID:         summaryTripID.Int64,
			SessionID:      t.SessionID,
			StartTime:      toTimePtr(startTime),
			EndTime:        toTimePtr(endTime),
			Duration:       toFloatPtr(duration),
			Distance:       toFloatPtr(distance),
			CaloriesBurned: toFloatPtr(calories),
			Activity:       types.Activity(activity.String).OrDefault(),
		}
	}
	return &t, nil
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func toFloatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
