// README: GPS service validates and stores sample batches, then reconciles every touched session.
package gps

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fitapp/internal/config"
)

type PointStore interface {
	Append(ctx context.Context, samples []Sample) error
	QueryBySession(ctx context.Context, sessionID string) ([]Sample, error)
	SessionsByUser(ctx context.Context, userID int64) ([]string, error)
	SessionOwner(ctx context.Context, sessionID string) (int64, bool, error)
}

// Reconciler makes sure a trip record exists for a session that received
// samples. completed reports whether the batch carried a last_entry sample
// for that session.
type Reconciler interface {
	Reconcile(ctx context.Context, sessionID string, userID int64, completed bool) error
}

// SessionCache holds each user's session list. Sessions that just received
// samples are remembered separately and merged into every listing, so a
// list cached from a query that missed them (a concurrent listing, or
// QuestDB not yet applying the write) never hides them.
type SessionCache interface {
	Sessions(ctx context.Context, userID int64) ([]string, bool, error)
	SetSessions(ctx context.Context, userID int64, ids []string) error
	Remember(ctx context.Context, userID int64, ids []string) error
	Recent(ctx context.Context, userID int64) ([]string, error)
}

type Service struct {
	store      PointStore
	reconciler Reconciler
	cache      SessionCache
	cfg        config.IngestConfig
}

// NewService wires the ingestion pipeline. reconciler and cache may be nil.
func NewService(store PointStore, reconciler Reconciler, cache SessionCache, cfg config.IngestConfig) *Service {
	if cfg.ReconcileConcurrency < 1 {
		cfg.ReconcileConcurrency = 1
	}
	return &Service{store: store, reconciler: reconciler, cache: cache, cfg: cfg}
}

// Ingest validates the batch, appends it and reconciles each session it
// touches. Once the append succeeds the call succeeds: reconciliation
// failures are reported in the result, never as an error.
func (s *Service) Ingest(ctx context.Context, samples []Sample) (IngestResult, error) {
	userID, err := s.validate(samples)
	if err != nil {
		return IngestResult{}, err
	}

	touched := touchedSessions(samples)
	if err := s.checkOwnership(ctx, userID, touched); err != nil {
		return IngestResult{}, err
	}

	samples = normalized(samples)
	if err := s.store.Append(ctx, samples); err != nil {
		return IngestResult{}, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	res := IngestResult{
		Stored:   len(samples),
		Sessions: make([]string, len(touched)),
		Failed:   map[string]error{},
	}
	for i, t := range touched {
		res.Sessions[i] = t.id
	}

	if s.cache != nil {
		if err := s.cache.Remember(ctx, userID, res.Sessions); err != nil {
			log.Printf("gps: remember sessions user=%d: %v", userID, err)
		}
	}

	if s.reconciler != nil {
		res.Failed = s.reconcileAll(ctx, userID, touched)
	}
	return res, nil
}

// checkOwnership rejects the batch if any of its sessions already holds
// samples of another user.
func (s *Service) checkOwnership(ctx context.Context, userID int64, touched []sessionTouch) error {
	for _, t := range touched {
		owner, found, err := s.store.SessionOwner(ctx, t.id)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStorageRead, err)
		}
		if found && owner != userID {
			return fmt.Errorf("%w: %s", ErrForbidden, t.id)
		}
	}
	return nil
}

// reconcileAll fans out one reconciliation per session and waits for all of
// them. A failing session never cancels its siblings.
func (s *Service) reconcileAll(ctx context.Context, userID int64, touched []sessionTouch) map[string]error {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed = map[string]error{}
	)
	g.SetLimit(s.cfg.ReconcileConcurrency)

	for _, t := range touched {
		g.Go(func() error {
			if err := s.reconciler.Reconcile(ctx, t.id, userID, t.completed); err != nil {
				log.Printf("gps: reconcile session=%s user=%d completed=%t: %v", t.id, userID, t.completed, err)
				mu.Lock()
				failed[t.id] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}

// Points returns the ordered samples of a session (empty if unknown).
func (s *Service) Points(ctx context.Context, sessionID string) ([]Sample, error) {
	points, err := s.store.QueryBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	return points, nil
}

// ListSessions returns the user's sessions, newest first.
func (s *Service) ListSessions(ctx context.Context, userID int64) ([]string, error) {
	ids, err := s.storedSessions(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		recent, err := s.cache.Recent(ctx, userID)
		if err != nil {
			log.Printf("gps: read recent sessions user=%d: %v", userID, err)
		}
		ids = mergeSessions(ids, recent)
	}
	sortNewestFirst(ids)
	return ids, nil
}

// storedSessions is the cached list, or a fresh query that refills the cache.
func (s *Service) storedSessions(ctx context.Context, userID int64) ([]string, error) {
	if s.cache != nil {
		ids, ok, err := s.cache.Sessions(ctx, userID)
		if err != nil {
			log.Printf("gps: read session cache user=%d: %v", userID, err)
		} else if ok {
			return ids, nil
		}
	}

	ids, err := s.store.SessionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	if s.cache != nil {
		if err := s.cache.SetSessions(ctx, userID, ids); err != nil {
			log.Printf("gps: write session cache user=%d: %v", userID, err)
		}
	}
	return ids, nil
}

func (s *Service) validate(samples []Sample) (int64, error) {
	if len(samples) == 0 {
		return 0, validationError("empty batch")
	}
	if s.cfg.MaxBatchSize > 0 && len(samples) > s.cfg.MaxBatchSize {
		return 0, validationError("batch of %d samples exceeds limit %d", len(samples), s.cfg.MaxBatchSize)
	}

	userID := samples[0].UserID
	for i, p := range samples {
		if p.UserID != userID {
			return 0, validationError("batch mixes user ids %d and %d", userID, p.UserID)
		}
		if strings.TrimSpace(p.SessionID) == "" {
			return 0, validationError("sample %d: missing session_id", i)
		}
		if p.Timestamp.IsZero() {
			return 0, validationError("sample %d: missing timestamp", i)
		}
		if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
			return 0, validationError("sample %d: latitude %v out of range", i, p.Latitude)
		}
		if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
			return 0, validationError("sample %d: longitude %v out of range", i, p.Longitude)
		}
		if math.IsNaN(p.Acceleration) || math.IsInf(p.Acceleration, 0) {
			return 0, validationError("sample %d: acceleration is not finite", i)
		}
		if p.Activity != "" && !p.Activity.Valid() {
			return 0, validationError("sample %d: unknown activity %q", i, p.Activity)
		}
	}
	return userID, nil
}

// normalized returns a copy with timestamps in UTC at the store's
// microsecond resolution, so what is acknowledged is what is read back.
func normalized(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	for i, p := range samples {
		p.Timestamp = p.Timestamp.UTC().Truncate(time.Microsecond)
		out[i] = p
	}
	return out
}

func mergeSessions(ids, extra []string) []string {
	seen := make(map[string]bool, len(ids)+len(extra))
	out := make([]string, 0, len(ids)+len(extra))
	for _, id := range append(append([]string{}, ids...), extra...) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// touchedSessions returns the distinct sessions in first-seen order.
func touchedSessions(samples []Sample) []sessionTouch {
	index := map[string]int{}
	var out []sessionTouch
	for _, p := range samples {
		i, ok := index[p.SessionID]
		if !ok {
			i = len(out)
			index[p.SessionID] = i
			out = append(out, sessionTouch{id: p.SessionID})
		}
		if p.LastEntry {
			out[i].completed = true
		}
	}
	return out
}

// sortNewestFirst orders "<unix-millis>_<suffix>" session ids by their
// numeric prefix, descending. Ids without a numeric prefix go last, in
// reverse lexicographic order.
func sortNewestFirst(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, aok := sessionPrefix(ids[i])
		b, bok := sessionPrefix(ids[j])
		switch {
		case aok && bok && a != b:
			return a > b
		case aok != bok:
			return aok
		default:
			return ids[i] > ids[j]
		}
	})
}

func sessionPrefix(id string) (int64, bool) {
	head, _, _ := strings.Cut(id, "_")
	n, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
