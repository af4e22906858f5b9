package seed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/infrastructure/storage"
	"DocketWatch/internal/logging"
	"DocketWatch/internal/usecase"
)

const sample = `docket_number,title,bureau,description,status,watch
23-620,Restoring Internet Freedom,Wireline Competition,Open internet rules,open,
 21-450 ,,,,,true
99-x,Bad number,,,,
17-108,,,,,false
`

func TestParse(t *testing.T) {
	t.Parallel()

	rows, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	if rows[0].Title != "Restoring Internet Freedom" || rows[0].Watch != nil {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if rows[3].Watch == nil || *rows[3].Watch {
		t.Fatalf("expected explicit false watch, got %+v", rows[3].Watch)
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	rows, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestApply(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	watchlist := usecase.NewWatchlist(store, 1)

	rows, err := Parse(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	res, err := Apply(ctx, store, watchlist, usecase.SystemSubscriber, rows, logging.Discard())
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if res.Watched != 2 || res.Updated != 1 || res.Skipped != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	active, err := store.ListActiveDockets(ctx)
	if err != nil {
		t.Fatalf("ListActiveDockets: %v", err)
	}
	if len(active) != 2 || active[0].Number != "21-450" || active[1].Number != "23-620" {
		t.Fatalf("unexpected active dockets %+v", active)
	}
	if active[0].Status != domain.DocketUnknown || active[0].Title != domain.PendingDocketTitle {
		t.Fatalf("expected placeholder for 21-450, got %+v", active[0])
	}
	if active[1].Status != domain.DocketActive || active[1].Bureau != "Wireline Competition" {
		t.Fatalf("expected seeded metadata for 23-620, got %+v", active[1])
	}
	if _, err := store.GetDocketByNumber(ctx, "17-108"); err == nil {
		t.Fatal("unwatched row without title must not create a docket")
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dockets.csv")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile returned error: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
}

func TestApplyKeepsRefreshedMetadata(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	watchlist := usecase.NewWatchlist(store, 0)
	rows, err := Parse(strings.NewReader("docket_number,title,bureau,description,status,watch\n21-450,Affordable Connectivity,,,,\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	if _, err := Apply(ctx, store, watchlist, usecase.SystemSubscriber, rows, logging.Discard()); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	refreshed := domain.Docket{
		Number:      "21-450",
		Title:       "Affordable Connectivity Program",
		Bureau:      "Wireline Competition",
		Description: "ACP rules",
		Status:      domain.DocketActive,
	}
	if _, err := store.UpsertDocket(ctx, refreshed); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	res, err := Apply(ctx, store, watchlist, usecase.SystemSubscriber, rows, logging.Discard())
	if err != nil {
		t.Fatalf("second Apply: %v", err)
	}
	if res.Updated != 0 {
		t.Fatalf("second Apply must not rewrite metadata: %+v", res)
	}
	got, err := store.GetDocketByNumber(ctx, "21-450")
	if err != nil {
		t.Fatalf("GetDocketByNumber: %v", err)
	}
	if got.Title != refreshed.Title || got.Description != "ACP rules" || got.Status != domain.DocketActive {
		t.Fatalf("refreshed metadata lost: %+v", got)
	}
}

func TestApplyUnwatchesRowsMarkedFalse(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	watchlist := usecase.NewWatchlist(store, 0)

	watched, err := Parse(strings.NewReader("docket_number,watch\n17-108,true\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if _, err := Apply(ctx, store, watchlist, usecase.SystemSubscriber, watched, logging.Discard()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	dropped, err := Parse(strings.NewReader("docket_number,watch\n17-108,false\n"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	res, err := Apply(ctx, store, watchlist, usecase.SystemSubscriber, dropped, logging.Discard())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Unwatched != 1 {
		t.Fatalf("expected one unwatch, got %+v", res)
	}
	active, err := store.ListActiveDockets(ctx)
	if err != nil {
		t.Fatalf("ListActiveDockets: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("docket should no longer be active: %+v", active)
	}

	again, err := Apply(ctx, store, watchlist, usecase.SystemSubscriber, dropped, logging.Discard())
	if err != nil || again.Unwatched != 0 {
		t.Fatalf("repeat unwatch should be a no-op: %+v err=%v", again, err)
	}
}
