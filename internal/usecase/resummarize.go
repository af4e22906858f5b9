package usecase

import (
	"context"
	"fmt"
	"time"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/ports"
)

// Resummarizer regenerates the summary of an already stored filing.
type Resummarizer struct {
	store      ports.DocketStore
	summarizer ports.Summarizer
	now        func() time.Time
}

// NewResummarizer builds the use case; now defaults to time.Now.
func NewResummarizer(store ports.DocketStore, summarizer ports.Summarizer, now func() time.Time) *Resummarizer {
	if now == nil {
		now = time.Now
	}
	return &Resummarizer{store: store, summarizer: summarizer, now: now}
}

// Resummarize runs the summary policy again for externalID and stores the result.
// It returns domain.ErrNotFound for unknown filings.
func (r *Resummarizer) Resummarize(ctx context.Context, externalID string) (domain.Filing, error) {
	filing, err := r.store.GetFilingByExternalID(ctx, externalID)
	if err != nil {
		return domain.Filing{}, err
	}

	text := r.summarizer.Summarize(ctx, filing.DocumentURLs, filing.Title)
	at := r.now().UTC()

	if err := r.store.UpdateFilingSummary(ctx, externalID, text, domain.StatusProcessed, at); err != nil {
		return domain.Filing{}, fmt.Errorf("store summary: %w", err)
	}
	filing.AttachSummary(text, domain.StatusProcessed, at)
	return filing, nil
}
