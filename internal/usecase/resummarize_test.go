package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/infrastructure/storage"
	"DocketWatch/internal/summary"
)

func TestResummarize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	docket, _ := store.UpsertDocket(ctx, domain.PlaceholderDocket("11-42"))

	filing := domain.NewFiling(docket.ID, domain.FilingDraft{
		ExternalID:   "F1",
		Title:        "Petition",
		DocumentURLs: []string{downloadBase + "/filing/F1/download/a.pdf"},
	}, time.Now())
	filing.AttachSummary(summary.UnavailableSummary, domain.StatusProcessed, time.Now())
	if _, err := store.InsertFiling(ctx, filing); err != nil {
		t.Fatalf("insert: %v", err)
	}

	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	policy := summary.NewPolicy(&fakeBackend{fail: map[string]bool{}}, summary.Options{}, nil)
	got, err := NewResummarizer(store, policy, func() time.Time { return at }).Resummarize(ctx, "F1")
	if err != nil {
		t.Fatalf("Resummarize error: %v", err)
	}
	if got.Summary == nil || *got.Summary != "Summary of a.pdf" || got.Status != domain.StatusProcessed {
		t.Fatalf("unexpected result: %+v", got)
	}

	stored, _ := store.GetFilingByExternalID(ctx, "F1")
	if stored.Status != domain.StatusProcessed || stored.SummaryGeneratedAt == nil || !stored.SummaryGeneratedAt.Equal(at) {
		t.Fatalf("store not updated: %+v", stored)
	}
}

func TestResummarizeStillFailing(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	docket, _ := store.UpsertDocket(ctx, domain.PlaceholderDocket("11-42"))
	url := downloadBase + "/filing/F1/download/a.pdf"
	filing := domain.NewFiling(docket.ID, domain.FilingDraft{ExternalID: "F1", DocumentURLs: []string{url}}, time.Now())
	if _, err := store.InsertFiling(ctx, filing); err != nil {
		t.Fatalf("insert: %v", err)
	}

	policy := summary.NewPolicy(&fakeBackend{fail: map[string]bool{url: true}}, summary.Options{}, nil)
	got, err := NewResummarizer(store, policy, nil).Resummarize(ctx, "F1")
	if err != nil {
		t.Fatalf("Resummarize error: %v", err)
	}
	if got.Status != domain.StatusProcessed || *got.Summary != summary.UnavailableSummary {
		t.Fatalf("expected processed filing with fallback summary, got %s / %v", got.Status, got.Summary)
	}
	stored, err := store.GetFilingByExternalID(ctx, "F1")
	if err != nil || stored.Status != domain.StatusProcessed {
		t.Fatalf("stored status %s, err %v", stored.Status, err)
	}
}

func TestResummarizeUnknownFiling(t *testing.T) {
	t.Parallel()

	policy := summary.NewPolicy(nil, summary.Options{}, nil)
	_, err := NewResummarizer(storage.NewMemoryStore(), policy, nil).Resummarize(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
