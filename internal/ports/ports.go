package ports

import (
	"context"
	"time"

	"DocketWatch/internal/domain"
)

// FilingSource pulls raw filings for a docket from the upstream API.
// A rate-limited response yields (nil, nil); other failures return an error.
type FilingSource interface {
	FetchFilings(ctx context.Context, docketNumber string, since *time.Time) ([]domain.RawFiling, error)
}

// DocketInfoSource resolves authoritative proceeding metadata.
type DocketInfoSource interface {
	FetchDocketInfo(ctx context.Context, docketNumber string) (*domain.DocketInfo, error)
}

// Normalizer converts a raw filing into the canonical draft without I/O.
type Normalizer interface {
	Normalize(raw domain.RawFiling) (domain.FilingDraft, error)
}

// Summarizer produces a summary for a filing's documents and never fails.
type Summarizer interface {
	Summarize(ctx context.Context, documentURLs []string, title string) string
}

// DocumentSummarizer issues one summarization request for one document.
type DocumentSummarizer interface {
	SummarizeDocument(ctx context.Context, documentURL, title string) (string, error)
}

// DocketStore persists dockets, watches and filings.
type DocketStore interface {
	Ping(ctx context.Context) error

	ListActiveDockets(ctx context.Context) ([]domain.Docket, error)
	GetDocketByNumber(ctx context.Context, number string) (domain.Docket, error)
	UpsertDocket(ctx context.Context, docket domain.Docket) (domain.Docket, error)

	WatchDocket(ctx context.Context, subscriber string, docketID int64) error
	UnwatchDocket(ctx context.Context, subscriber string, docketID int64) error
	WatchActive(ctx context.Context, subscriber string, docketID int64) (bool, error)
	CountActiveWatches(ctx context.Context, subscriber string) (int, error)

	LatestFiledAt(ctx context.Context, docketID int64) (*time.Time, error)
	GetFilingByExternalID(ctx context.Context, externalID string) (domain.Filing, error)
	InsertFiling(ctx context.Context, filing domain.Filing) (bool, error)
	UpdateFilingSummary(ctx context.Context, externalID, summary string, status domain.ProcessingStatus, at time.Time) error
}

// RunReporter publishes the outcome of scheduled runs.
type RunReporter interface {
	ReportRun(ctx context.Context, summary domain.RunSummary) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
