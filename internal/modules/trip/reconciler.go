// README: Session reconciler; the single creation path for trips and summaries shared by ingestion and reads.
package trip

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"fitapp/internal/modules/gps"
)

type TripStore interface {
	FindBySessionID(ctx context.Context, sessionID string) (*Trip, error)
	ListByUser(ctx context.Context, userID int64) ([]Trip, error)
	Create(ctx context.Context, t *Trip, summary *Summary) error
	AttachSummary(ctx context.Context, tripID int64, summary Summary) error
}

type PointReader interface {
	QueryBySession(ctx context.Context, sessionID string) ([]gps.Sample, error)
}

// Notifier delivers push messages; delivery itself is the collaborator's job.
type Notifier interface {
	Send(ctx context.Context, topic string, data map[string]string) error
}

type Reconciler struct {
	trips    TripStore
	points   PointReader
	notifier Notifier
}

// NewReconciler wires the reconciler. notifier may be nil.
func NewReconciler(trips TripStore, points PointReader, notifier Notifier) *Reconciler {
	return &Reconciler{trips: trips, points: points, notifier: notifier}
}

// Reconcile ensures a trip row exists for the session. An existing trip or
// summary is never overwritten; a trip that exists without a summary only
// gets one attached when completed is set and the samples finalize it.
func (r *Reconciler) Reconcile(ctx context.Context, sessionID string, userID int64, completed bool) error {
	existing, err := r.trips.FindBySessionID(ctx, sessionID)
	switch {
	case err == nil:
		if existing.Summary != nil || !completed {
			return nil
		}
	case errors.Is(err, ErrNotFound):
		existing = nil
	default:
		return err
	}

	points, err := r.points.QueryBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%w: %w", gps.ErrStorageRead, err)
	}
	summary, finalized := CalculateMetrics(points)
	_, err = r.settle(ctx, existing, sessionID, userID, summary, finalized)
	return err
}

// settle persists what the caller computed: it creates the trip when absent
// and attaches the summary when the session is finalized. Whoever commits
// first wins; a loser re-reads and returns the winner's row.
func (r *Reconciler) settle(ctx context.Context, existing *Trip, sessionID string, userID int64, summary Summary, finalized bool) (*Trip, error) {
	if existing == nil {
		t := &Trip{SessionID: sessionID, UserID: userID}
		var sum *Summary
		if finalized {
			s := summary
			sum = &s
		}
		err := r.trips.Create(ctx, t, sum)
		if errors.Is(err, ErrAlreadyExists) {
			winner, err := r.trips.FindBySessionID(ctx, sessionID)
			if err != nil {
				return nil, err
			}
			return r.settle(ctx, winner, sessionID, userID, summary, finalized)
		}
		if err != nil {
			return nil, err
		}
		if sum != nil {
			r.notifyFinalized(ctx, t)
		}
		return t, nil
	}

	if existing.Summary != nil || !finalized {
		return existing, nil
	}

	summary.TripID = existing.ID
	summary.SessionID = existing.SessionID
	err := r.trips.AttachSummary(ctx, existing.ID, summary)
	if errors.Is(err, ErrAlreadyHasSummary) {
		return r.trips.FindBySessionID(ctx, sessionID)
	}
	if err != nil {
		return nil, err
	}
	existing.Summary = &summary
	r.notifyFinalized(ctx, existing)
	return existing, nil
}

func (r *Reconciler) notifyFinalized(ctx context.Context, t *Trip) {
	if r.notifier == nil || t.Summary == nil {
		return
	}
	data := map[string]string{
		"type":       "trip_finalized",
		"session_id": t.SessionID,
		"activity":   string(t.Summary.Activity),
	}
	if t.Summary.Distance != nil {
		data["distance"] = strconv.FormatFloat(*t.Summary.Distance, 'f', 1, 64)
	}
	if t.Summary.CaloriesBurned != nil {
		data["calories_burned"] = strconv.FormatFloat(*t.Summary.CaloriesBurned, 'f', 1, 64)
	}
	if err := r.notifier.Send(ctx, userTopic(t.UserID), data); err != nil {
		log.Printf("trip: notify finalized session=%s: %v", t.SessionID, err)
	}
}

func userTopic(userID int64) string {
	return "user_" + strconv.FormatInt(userID, 10)
}
