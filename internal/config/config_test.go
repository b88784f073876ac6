package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FITAPP_FIREBASE_PROJECT_ID", "fitapp-test")
	t.Setenv("FITAPP_HTTP_ADDR", "")
	t.Setenv("FITAPP_RECONCILE_CONCURRENCY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Ingest.ReconcileConcurrency != 4 {
		t.Errorf("ReconcileConcurrency = %d, want 4", cfg.Ingest.ReconcileConcurrency)
	}
	if cfg.Cache.SessionTTL != 5*time.Minute {
		t.Errorf("SessionTTL = %v, want 5m", cfg.Cache.SessionTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("FITAPP_FIREBASE_PROJECT_ID", "fitapp-test")
	t.Setenv("FITAPP_HTTP_TIMEOUT", "3s")
	t.Setenv("FITAPP_INGEST_MAX_BATCH", "10")
	t.Setenv("FITAPP_SUMMARY_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.Timeout != 3*time.Second {
		t.Errorf("HTTP.Timeout = %v, want 3s", cfg.HTTP.Timeout)
	}
	if cfg.Ingest.MaxBatchSize != 10 {
		t.Errorf("MaxBatchSize = %d, want 10", cfg.Ingest.MaxBatchSize)
	}
	if cfg.Cache.SummaryTTL != 24*time.Hour {
		t.Errorf("unparseable duration should fall back to default, got %v", cfg.Cache.SummaryTTL)
	}
}

func TestLoad_MissingProjectID(t *testing.T) {
	t.Setenv("FITAPP_FIREBASE_PROJECT_ID", "")

	_, err := Load()
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Field != "FITAPP_FIREBASE_PROJECT_ID" {
		t.Errorf("Field = %q", cfgErr.Field)
	}
}

func TestValidate_Concurrency(t *testing.T) {
	var cfg Config
	cfg.Firebase.ProjectID = "p"
	cfg.Ingest.MaxBatchSize = 1
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for zero concurrency")
	}
}
