// README: Runner checks: store connectivity, schema, ingestion, concurrent finalize-vs-read and ingest throughput.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"fitapp/internal/infra"
	"fitapp/internal/migrations"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	qdb   *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if db, err := infra.NewDB(ctx, r.cfg.DSN); err == nil {
		r.db = db
		defer db.Close()
	}
	if qdb, err := infra.NewQuestDB(ctx, r.cfg.QuestDSN); err == nil {
		r.qdb = qdb
		defer qdb.Close()
	}
	if client, err := infra.NewRedis(ctx, r.cfg.RedisAddr); err == nil {
		r.redis = client
		defer client.Close()
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

func (r *Runner) cases() []TestCase {
	return []TestCase{
		{Name: "Env: Postgres reachable", Run: func(ctx context.Context, r *Runner) Result {
			return present(r.db != nil, "postgres not reachable")
		}},
		{Name: "Env: QuestDB reachable", Run: func(ctx context.Context, r *Runner) Result {
			return present(r.qdb != nil, "questdb not reachable")
		}},
		{Name: "Env: Redis reachable", Run: func(ctx context.Context, r *Runner) Result {
			return present(r.redis != nil, "redis not reachable")
		}},
		{Name: "Schema: migrations", Run: func(ctx context.Context, r *Runner) Result {
			if r.db == nil {
				return Result{Status: statusSkip, Note: "no postgres"}
			}
			if r.cfg.ApplyMigration {
				if err := migrations.Run(ctx, r.db); err != nil {
					return fail(err)
				}
			}
			if err := migrations.CheckSchema(ctx, r.db); err != nil {
				return fail(err)
			}
			return Result{Status: statusPass}
		}},
		{Name: "API: health", Run: func(ctx context.Context, r *Runner) Result {
			status, latency, err := r.call(ctx, http.MethodGet, "/health", nil)
			if err != nil {
				return fail(err)
			}
			return expect(status, latency, http.StatusOK)
		}},
		{Name: "API: rejects missing token", Run: func(ctx context.Context, r *Runner) Result {
			req, _ := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/api/v1/trips", nil)
			resp, err := r.httpc.Do(req)
			if err != nil {
				return fail(err)
			}
			drain(resp)
			return expect(resp.StatusCode, 0, http.StatusUnauthorized)
		}},
		{Name: "Ingest: open session then finalize", Run: authed(ingestAndFinalize)},
		{Name: "Trip: concurrent finalize and read create one trip", Run: authed(concurrentFinalizeAndRead)},
		{Name: "Perf: ingest throughput", Run: authed(perfIngest)},
	}
}

type sample struct {
	SessionID string    `json:"session_id"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	LastEntry bool      `json:"last_entry"`
	Activity  string    `json:"activity"`
}

// syntheticRun walks east along the equator, one sample per second.
func (r *Runner) syntheticRun(sessionID string, start time.Time, n int, last bool) []sample {
	out := make([]sample, n)
	for i := range out {
		out[i] = sample{
			SessionID: sessionID,
			UserID:    r.cfg.UserID,
			Timestamp: start.Add(time.Duration(i) * time.Second),
			Longitude: float64(i) * 0.00003,
			Activity:  "RUNNING",
		}
	}
	out[n-1].LastEntry = last
	return out
}

func newSessionID(tag string) string {
	return fmt.Sprintf("%d_bench_%s", time.Now().UnixMilli(), tag)
}

func ingestAndFinalize(ctx context.Context, r *Runner) Result {
	session := newSessionID("finalize")
	start := time.Now().UTC().Add(-time.Hour)

	status, _, err := r.call(ctx, http.MethodPost, "/api/v1/gps", r.syntheticRun(session, start, 30, false))
	if err != nil {
		return fail(err)
	}
	if status != http.StatusOK {
		return Result{Status: statusFail, Note: fmt.Sprintf("open batch status=%d", status)}
	}
	status, latency, err := r.call(ctx, http.MethodPost, "/api/v1/gps", r.syntheticRun(session, start.Add(30*time.Second), 30, true))
	if err != nil {
		return fail(err)
	}
	return expect(status, latency, http.StatusOK)
}

func concurrentFinalizeAndRead(ctx context.Context, r *Runner) Result {
	session := newSessionID("race")
	batch := r.syntheticRun(session, time.Now().UTC().Add(-time.Hour), 20, true)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			method, path, body := http.MethodGet, "/api/v1/trips/"+session, any(nil)
			if i%2 == 0 {
				method, path, body = http.MethodPost, "/api/v1/gps", batch
			}
			status, _, err := r.call(ctx, method, path, body)
			// Reads may land before the first write is visible.
			if err != nil || (status != http.StatusOK && status != http.StatusNotFound) {
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if n := failures.Load(); n > 0 {
		return Result{Status: statusFail, Note: fmt.Sprintf("%d requests failed", n)}
	}

	if r.db == nil {
		return Result{Status: statusSkip, Note: "no postgres to count rows"}
	}
	var trips, summaries int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trips WHERE session_id = $1`, session).Scan(&trips); err != nil {
		return fail(err)
	}
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM trip_summaries WHERE session_id = $1`, session).Scan(&summaries); err != nil {
		return fail(err)
	}
	if trips != 1 || summaries != 1 {
		return Result{Status: statusFail, Note: fmt.Sprintf("trips=%d summaries=%d", trips, summaries)}
	}
	return Result{Status: statusPass}
}

func perfIngest(ctx context.Context, r *Runner) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count, errCount atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			session := newSessionID(fmt.Sprintf("perf%d", worker))
			start := time.Now().UTC().Add(-time.Hour)
			for batch := 0; time.Now().Before(end); batch++ {
				samples := r.syntheticRun(session, start.Add(time.Duration(batch)*time.Minute), 60, false)
				status, _, err := r.call(ctx, http.MethodPost, "/api/v1/gps", samples)
				if err != nil || status != http.StatusOK {
					errCount.Add(1)
					continue
				}
				count.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if count.Load() == 0 {
		return Result{Status: statusFail, Note: "no batches accepted"}
	}
	rps := float64(count.Load()) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("batches/s=%.1f samples/s=%.0f errors=%d", rps, rps*60, errCount.Load())}
}

func (r *Runner) call(ctx context.Context, method, path string, body any) (int, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}

	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, 0, err
	}
	drain(resp)
	return resp.StatusCode, time.Since(start), nil
}

func authed(run func(ctx context.Context, r *Runner) Result) func(ctx context.Context, r *Runner) Result {
	return func(ctx context.Context, r *Runner) Result {
		if r.cfg.Token == "" {
			return Result{Status: statusSkip, Note: "no -token given"}
		}
		return run(ctx, r)
	}
}

func present(ok bool, note string) Result {
	if ok {
		return Result{Status: statusPass}
	}
	return Result{Status: statusFail, Note: note}
}

func expect(status int, latency time.Duration, want int) Result {
	res := Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", status)}
	if status != want {
		res.Status = statusFail
	}
	return res
}

func fail(err error) Result {
	return Result{Status: statusFail, Note: err.Error()}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
