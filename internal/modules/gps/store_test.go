// README: QuestDB-backed point store tests (skipped unless FITAPP_TEST_QDB_DSN is set).
package gps

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("FITAPP_TEST_QDB_DSN")
	if dsn == "" {
		t.Skip("FITAPP_TEST_QDB_DSN not set; skipping QuestDB-backed tests")
	}

	ctx := context.Background()
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect questdb: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := NewStore(db)
	if err := store.EnsureTable(ctx); err != nil {
		t.Fatalf("ensure table: %v", err)
	}
	return store
}

// waitForRows polls until the WAL apply makes n rows visible.
func waitForRows(t *testing.T, store *Store, sessionID string, n int) []Sample {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		got, err := store.QueryBySession(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) >= n || time.Now().After(deadline) {
			return got
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func TestStore_AppendAndQueryBySession(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	session := fmt.Sprintf("%d_store_test", time.Now().UnixMilli())
	base := time.Now().UTC().Truncate(time.Millisecond)
	batch1 := []Sample{
		{SessionID: session, UserID: 42, Timestamp: base.Add(2 * time.Second), Latitude: 1, Longitude: 2},
		{SessionID: session, UserID: 42, Timestamp: base, Latitude: 0, Longitude: 0, Acceleration: 0.5},
	}
	batch2 := []Sample{
		{SessionID: session, UserID: 42, Timestamp: base.Add(time.Second), Latitude: 0.5, Longitude: 1, LastEntry: true, Activity: "WALKING"},
	}
	for _, b := range [][]Sample{batch1, batch2} {
		if err := store.Append(ctx, b); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got := waitForRows(t, store, session, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.Before(got[i-1].Timestamp) {
			t.Fatalf("rows not ordered by timestamp")
		}
	}
	if got[0].Acceleration != 0.5 || got[1].Activity != "WALKING" || !got[1].LastEntry {
		t.Errorf("field values not preserved: %+v", got)
	}

	ids, err := store.SessionsByUser(ctx, 42)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	found := false
	for _, id := range ids {
		if id == session {
			found = true
		}
	}
	if !found {
		t.Errorf("session %s missing from %v", session, ids)
	}
}

func TestStore_QueryUnknownSession(t *testing.T) {
	store := setupTestStore(t)
	got, err := store.QueryBySession(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("unknown session must not error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}

func TestStore_SessionOwner(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if _, found, err := store.SessionOwner(ctx, "does-not-exist"); err != nil || found {
		t.Fatalf("unknown session: found=%v err=%v", found, err)
	}

	session := fmt.Sprintf("%d_owner_test", time.Now().UnixMilli())
	base := time.Now().UTC().Truncate(time.Millisecond)
	if err := store.Append(ctx, []Sample{{SessionID: session, UserID: 17, Timestamp: base}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	waitForRows(t, store, session, 1)

	owner, found, err := store.SessionOwner(ctx, session)
	if err != nil || !found || owner != 17 {
		t.Fatalf("SessionOwner = %d, %v, %v", owner, found, err)
	}
}
