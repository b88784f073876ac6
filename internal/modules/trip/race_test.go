// README: PostgreSQL-backed concurrency tests for trip creation (run with -race).
package trip

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fitapp/internal/migrations"
	"fitapp/internal/modules/gps"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("FITAPP_TEST_DSN")
	if dsn == "" {
		t.Skip("FITAPP_TEST_DSN not set; skipping DB-backed race tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE trip_summaries, trips"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}

	return NewStore(db)
}

func TestStore_DuplicateCreate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, &Trip{SessionID: "dup", UserID: 1}, nil); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := store.Create(ctx, &Trip{SessionID: "dup", UserID: 1}, nil)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestStore_AttachSummaryNeverOverwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	tr := &Trip{SessionID: "attach", UserID: 1}
	if err := store.Create(ctx, tr, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	summary, _ := CalculateMetrics(finishedRun())
	if err := store.AttachSummary(ctx, tr.ID, summary); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := store.AttachSummary(ctx, tr.ID, summary); !errors.Is(err, ErrAlreadyHasSummary) {
		t.Fatalf("expected ErrAlreadyHasSummary, got %v", err)
	}
	if err := store.AttachSummary(ctx, tr.ID+1000, summary); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown trip, got %v", err)
	}

	got, err := store.FindBySessionID(ctx, "attach")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Summary == nil || got.Summary.TripID != tr.ID || !got.Summary.Finalized() {
		t.Fatalf("unexpected summary: %+v", got.Summary)
	}
	if got.Summary.Duration == nil || *got.Summary.Duration != 600 {
		t.Errorf("duration = %v, want 600", got.Summary.Duration)
	}
}

func TestStore_ListByUserNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Create(ctx, &Trip{SessionID: fmt.Sprintf("list_%d", i), UserID: 5}, nil); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := store.Create(ctx, &Trip{SessionID: "other", UserID: 6}, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.ListByUser(ctx, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].SessionID != "list_2" || got[2].SessionID != "list_0" {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestConcurrentReconcileSameSession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	points := &memPoints{points: map[string][]gps.Sample{session: finishedRun()}}
	rec := NewReconciler(store, points, nil)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- rec.Reconcile(ctx, session, 7, true)
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("reconcile: %v", err)
		}
	}

	var trips, summaries int
	if err := store.db.QueryRow(ctx, `SELECT COUNT(*) FROM trips WHERE session_id = $1`, session).Scan(&trips); err != nil {
		t.Fatalf("count trips: %v", err)
	}
	if err := store.db.QueryRow(ctx, `SELECT COUNT(*) FROM trip_summaries WHERE session_id = $1`, session).Scan(&summaries); err != nil {
		t.Fatalf("count summaries: %v", err)
	}
	if trips != 1 || summaries != 1 {
		t.Fatalf("expected 1 trip and 1 summary, got %d and %d", trips, summaries)
	}
}

func TestConcurrentReadAndIngestReconcile(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	points := &memPoints{points: map[string][]gps.Sample{session: finishedRun()}}
	rec := NewReconciler(store, points, nil)
	svc := NewService(store, points, rec, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- rec.Reconcile(ctx, session, 7, true)
	}()
	go func() {
		defer wg.Done()
		_, err := svc.GetTrip(ctx, Caller{UserID: 7}, session)
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := store.FindBySessionID(ctx, session)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Summary == nil || got.Summary.EndTime == nil || !got.Summary.EndTime.Equal(t0.Add(10*time.Minute)) {
		t.Fatalf("unexpected summary: %+v", got.Summary)
	}
}
