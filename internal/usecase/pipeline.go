package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/ports"
	"DocketWatch/internal/summary"
)

const tracerName = "DocketWatch/internal/usecase"

// errNormalize marks failures that invalidate the rest of a docket's page.
var errNormalize = errors.New("normalize filing")

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Store      ports.DocketStore
	Source     ports.FilingSource
	DocketInfo ports.DocketInfoSource
	Normalizer ports.Normalizer
	Summarizer ports.Summarizer
	Logger     *slog.Logger

	FilingDelay time.Duration
	DocketDelay time.Duration
	RunTimeout  time.Duration

	Now   func() time.Time
	Sleep SleepFunc
}

// Pipeline implements the docket ingestion workflow. It is safe to call Run
// concurrently; duplicate work is absorbed by the store's dedup key.
type Pipeline struct {
	store      ports.DocketStore
	source     ports.FilingSource
	docketInfo ports.DocketInfoSource
	normalizer ports.Normalizer
	summarizer ports.Summarizer
	logger     *slog.Logger
	tracer     trace.Tracer

	filingDelay time.Duration
	docketDelay time.Duration
	runTimeout  time.Duration

	now   func() time.Time
	sleep SleepFunc
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &Pipeline{
		store:       deps.Store,
		source:      deps.Source,
		docketInfo:  deps.DocketInfo,
		normalizer:  deps.Normalizer,
		summarizer:  deps.Summarizer,
		logger:      logger,
		tracer:      otel.Tracer(tracerName),
		filingDelay: deps.FilingDelay,
		docketDelay: deps.DocketDelay,
		runTimeout:  deps.RunTimeout,
		now:         now,
		sleep:       sleep,
	}
}

// Run sweeps every actively watched docket once. The returned summary is
// always populated; the error is non-nil only when the docket list could not
// be read.
func (p *Pipeline) Run(ctx context.Context, trigger string) (domain.RunSummary, error) {
	started := p.now()
	run := domain.RunSummary{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: started.UTC(),
		Errors:    []domain.RunError{},
	}
	logger := p.logger.With("run_id", run.RunID, "trigger", trigger)

	if p.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.runTimeout)
		defer cancel()
	}

	ctx, span := p.tracer.Start(ctx, "ingestion.run", trace.WithAttributes(
		attribute.String("run.id", run.RunID),
		attribute.String("run.trigger", trigger),
	))
	defer span.End()

	dockets, err := p.store.ListActiveDockets(ctx)
	if err != nil {
		run.Errors = append(run.Errors, domain.RunError{Scope: domain.ScopeRun, Message: err.Error()})
		span.RecordError(err)
		span.SetStatus(codes.Error, "list active dockets")
		logger.Error("ingestion aborted", "error", err)
		p.finish(span, &run, started)
		return run, fmt.Errorf("list active dockets: %w", err)
	}

	logger.Info("ingestion started", "dockets", len(dockets))

	for i, docket := range dockets {
		if err := ctx.Err(); err != nil {
			run.Errors = append(run.Errors, domain.RunError{Scope: domain.ScopeRun, Message: "run stopped: " + err.Error()})
			logger.Warn("ingestion stopped early", "remaining", len(dockets)-i, "error", err)
			break
		}

		run.DocketsConsidered++
		p.processDocket(ctx, logger, &run, docket)

		if i < len(dockets)-1 {
			_ = p.sleep(ctx, p.docketDelay)
		}
	}

	logger.Info("ingestion completed",
		"dockets", run.DocketsConsidered,
		"discovered", run.FilingsDiscovered,
		"stored", run.FilingsStored,
		"skipped", run.FilingsSkipped,
		"errors", len(run.Errors),
	)
	p.finish(span, &run, started)
	return run, nil
}

func (p *Pipeline) finish(span trace.Span, run *domain.RunSummary, started time.Time) {
	run.Duration = p.now().Sub(started)
	span.SetAttributes(
		attribute.Int("run.dockets", run.DocketsConsidered),
		attribute.Int("run.stored", run.FilingsStored),
		attribute.Int("run.errors", len(run.Errors)),
	)
}

func (p *Pipeline) processDocket(ctx context.Context, logger *slog.Logger, run *domain.RunSummary, docket domain.Docket) {
	ctx, span := p.tracer.Start(ctx, "ingestion.docket", trace.WithAttributes(
		attribute.String("docket.number", docket.Number),
	))
	defer span.End()

	logger = logger.With("docket", docket.Number)
	docketErr := func(err error) {
		run.Errors = append(run.Errors, domain.RunError{
			Scope:        domain.ScopeDocket,
			DocketNumber: docket.Number,
			Message:      err.Error(),
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, "docket failed")
		logger.Warn("docket failed", "error", err)
	}

	if docket.Status == domain.DocketUnknown {
		p.refreshDocket(ctx, logger, docket)
	}

	cursor, err := p.store.LatestFiledAt(ctx, docket.ID)
	if err != nil {
		docketErr(fmt.Errorf("read cursor: %w", err))
		return
	}

	raws, err := p.source.FetchFilings(ctx, docket.Number, cursor)
	if err != nil {
		docketErr(err)
		return
	}
	run.FilingsDiscovered += len(raws)
	logger.Info("filings fetched", "count", len(raws), "since", formatCursor(cursor))

	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			docketErr(fmt.Errorf("docket interrupted: %w", err))
			return
		}

		outcome, stored, err := p.processFiling(ctx, logger, run, docket, raw)
		run.Outcomes = append(run.Outcomes, outcome)
		if errors.Is(err, errNormalize) {
			docketErr(err)
			return
		}
		if err != nil {
			run.Errors = append(run.Errors, domain.RunError{
				Scope:        domain.ScopeFiling,
				DocketNumber: docket.Number,
				FilingID:     outcome.ExternalID,
				Message:      err.Error(),
			})
			logger.Warn("filing abandoned", "filing", outcome.ExternalID, "error", err)
			continue
		}
		if stored {
			_ = p.sleep(ctx, p.filingDelay)
		}
	}
}

// processFiling drives one raw filing through the state machine.
// Normalization errors wrap errNormalize so the caller can escalate them.
func (p *Pipeline) processFiling(ctx context.Context, logger *slog.Logger, run *domain.RunSummary, docket domain.Docket, raw domain.RawFiling) (domain.FilingOutcome, bool, error) {
	outcome := domain.FilingOutcome{
		DocketNumber: docket.Number,
		ExternalID:   raw.IDSubmission,
		Trail:        []domain.FilingStage{domain.StageDiscovered},
	}

	draft, err := p.normalizer.Normalize(raw)
	if err != nil {
		outcome.Abandon(err.Error())
		return outcome, false, fmt.Errorf("%w: %w", errNormalize, err)
	}
	outcome.ExternalID = draft.ExternalID
	outcome.Advance(domain.StageNormalized)

	_, err = p.store.GetFilingByExternalID(ctx, draft.ExternalID)
	switch {
	case err == nil:
		outcome.Advance(domain.StageSkipped)
		run.FilingsSkipped++
		return outcome, false, nil
	case !errors.Is(err, domain.ErrNotFound):
		outcome.Abandon(err.Error())
		return outcome, false, fmt.Errorf("dedup check: %w", err)
	}

	text := p.summarizer.Summarize(ctx, draft.DocumentURLs, draft.Title)
	outcome.Advance(domain.StageSummarized)

	now := p.now()
	filing := domain.NewFiling(docket.ID, draft, now)
	filing.AttachSummary(text, domain.StatusProcessed, now)

	inserted, err := p.store.InsertFiling(ctx, filing)
	if err != nil {
		outcome.Abandon(err.Error())
		return outcome, false, fmt.Errorf("persist filing: %w", err)
	}
	if !inserted {
		// Another run stored it between the dedup check and the write.
		outcome.Advance(domain.StageSkipped)
		run.FilingsSkipped++
		return outcome, false, nil
	}

	outcome.Advance(domain.StageStored)
	run.FilingsStored++
	logger.Debug("filing stored", "filing", draft.ExternalID, "fallback", summary.IsFallback(text))
	return outcome, true, nil
}

// refreshDocket replaces placeholder metadata with the proceeding's record.
func (p *Pipeline) refreshDocket(ctx context.Context, logger *slog.Logger, docket domain.Docket) {
	if p.docketInfo == nil {
		return
	}
	info, err := p.docketInfo.FetchDocketInfo(ctx, docket.Number)
	if err != nil {
		logger.Warn("docket metadata refresh failed", "error", err)
		return
	}
	if info == nil {
		return
	}

	docket.Title = info.Title
	docket.Bureau = info.Bureau
	docket.Description = info.Description
	docket.Status = info.Status
	if _, err := p.store.UpsertDocket(ctx, docket); err != nil {
		logger.Warn("docket metadata update failed", "error", err)
		return
	}
	logger.Info("docket metadata refreshed", "title", info.Title, "status", info.Status)
}

func formatCursor(cursor *time.Time) string {
	if cursor == nil {
		return "none"
	}
	return cursor.UTC().Format(time.RFC3339)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
