// README: Trip service serves summary fetches, computing and persisting missing summaries on read.
package trip

import (
	"context"
	"errors"
	"fmt"
	"log"

	"fitapp/internal/modules/gps"
)

// Cache holds trips whose summary is final; those never change.
type Cache interface {
	Get(ctx context.Context, sessionID string) (*Trip, bool, error)
	Set(ctx context.Context, t *Trip) error
}

type Service struct {
	trips      TripStore
	points     PointReader
	reconciler *Reconciler
	cache      Cache
}

// NewService wires the read path. cache may be nil.
func NewService(trips TripStore, points PointReader, reconciler *Reconciler, cache Cache) *Service {
	return &Service{trips: trips, points: points, reconciler: reconciler, cache: cache}
}

// GetTrip returns the session's points and summary. A missing trip or
// summary is computed from the stored points and persisted through the
// reconciler; only finalized summaries are stored, so an open session is
// recomputed on every read.
func (s *Service) GetTrip(ctx context.Context, caller Caller, sessionID string) (*View, error) {
	existing, err := s.lookup(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil && !caller.CanAccess(existing.UserID) {
		return nil, ErrForbidden
	}

	points, err := s.points.QueryBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gps.ErrStorageRead, err)
	}
	if len(points) == 0 {
		return nil, ErrNotFound
	}

	ownerID := points[0].UserID
	if existing != nil {
		ownerID = existing.UserID
	}
	if !caller.CanAccess(ownerID) {
		return nil, ErrForbidden
	}

	if existing != nil && existing.Summary != nil {
		s.remember(ctx, existing)
		return &View{SessionID: sessionID, Summary: *existing.Summary, Points: points}, nil
	}

	summary, finalized := CalculateMetrics(points)
	t, err := s.reconciler.settle(ctx, existing, sessionID, ownerID, summary, finalized)
	if err != nil {
		return nil, err
	}
	if t.Summary != nil {
		s.remember(ctx, t)
		return &View{SessionID: sessionID, Summary: *t.Summary, Points: points}, nil
	}

	summary.TripID = t.ID
	summary.SessionID = sessionID
	return &View{SessionID: sessionID, Summary: summary, Points: points}, nil
}

// ListTrips returns the caller's persisted trips, newest first.
func (s *Service) ListTrips(ctx context.Context, userID int64) ([]Trip, error) {
	return s.trips.ListByUser(ctx, userID)
}

// lookup returns the trip for the session, or nil if none exists yet.
func (s *Service) lookup(ctx context.Context, sessionID string) (*Trip, error) {
	if s.cache != nil {
		t, ok, err := s.cache.Get(ctx, sessionID)
		if err != nil {
			log.Printf("trip: read cache session=%s: %v", sessionID, err)
		} else if ok {
			return t, nil
		}
	}

	t, err := s.trips.FindBySessionID(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return t, err
}

func (s *Service) remember(ctx context.Context, t *Trip) {
	if s.cache == nil || t.Summary == nil || !t.Summary.Finalized() {
		return
	}
	if err := s.cache.Set(ctx, t); err != nil {
		log.Printf("trip: write cache session=%s: %v", t.SessionID, err)
	}
}
