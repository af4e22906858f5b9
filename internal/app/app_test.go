package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"DocketWatch/internal/config"
	"DocketWatch/internal/logging"
	"DocketWatch/internal/usecase"
)

func newECFSServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/filings", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("proceedings.name") != "11-42" {
			_ = json.NewEncoder(w).Encode(map[string]any{"filings": []any{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"filings": []map[string]any{
			{"id_submission": "F2", "brief_comment_text": "Reply comments", "date_disseminated": "2024-03-01T12:00:00Z"},
		}})
	})
	mux.HandleFunc("/proceedings", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"proceedings": []map[string]any{
			{"name": r.URL.Query().Get("name"), "subject": "Lifeline and Link Up Reform", "bureau_name": "Wireline Competition", "status": "Open"},
		}})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, ecfsURL string) config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(""), config.Config{})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	cfg.Storage = config.StorageConfig{Driver: "memory"}
	cfg.ECFS.BaseURL = ecfsURL
	cfg.Summarizer.Provider = "none"
	cfg.Scheduler.Enabled = false

	seedPath := filepath.Join(t.TempDir(), "dockets.csv")
	if err := os.WriteFile(seedPath, []byte("docket_number\n11-42\n"), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	cfg.Seed.Path = seedPath
	return cfg
}

func TestSeedThenRunOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	server := newECFSServer(t)
	application, err := New(ctx, testConfig(t, server.URL), logging.Discard())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = application.Close(context.Background()) })

	if err := application.Seed(ctx); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}

	run, err := application.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce returned error: %v", err)
	}
	if run.DocketsConsidered != 1 || run.FilingsStored != 1 || len(run.Errors) != 0 {
		t.Fatalf("unexpected run summary %+v", run)
	}
	if run.Trigger != usecase.TriggerOnce {
		t.Fatalf("trigger = %q, want %q", run.Trigger, usecase.TriggerOnce)
	}

	docket, err := application.store.GetDocketByNumber(ctx, "11-42")
	if err != nil {
		t.Fatalf("GetDocketByNumber: %v", err)
	}
	if docket.Title != "Lifeline and Link Up Reform" {
		t.Fatalf("metadata not refreshed: %+v", docket)
	}

	again, err := application.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second RunOnce returned error: %v", err)
	}
	if again.FilingsStored != 0 || again.FilingsSkipped != 1 {
		t.Fatalf("second run should skip the stored filing: %+v", again)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Summarizer.Provider = "claude"
	_, err := New(context.Background(), cfg, logging.Discard())
	if err == nil || !strings.Contains(err.Error(), "claude") {
		t.Fatalf("expected unknown provider error, got %v", err)
	}
}

func TestSeedWithoutPathIsNoop(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Seed.Path = ""
	application, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(func() { _ = application.Close(context.Background()) })

	if err := application.Seed(context.Background()); err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
}
