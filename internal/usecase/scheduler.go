package usecase

import (
	"context"
	"io"
	"log/slog"
	"time"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/ports"
)

// Trigger labels recorded on each run.
const (
	// TriggerSchedule labels runs started by the timer.
	TriggerSchedule = "schedule"
	// TriggerOnce labels the single run started by the -once flag.
	TriggerOnce = "once"
)

// Scheduler wires the ticker driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	reporter ports.RunReporter
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs. reporter may be nil.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, reporter ports.RunReporter, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{driver: driver, pipeline: pipeline, reporter: reporter, logger: logger}
}

// Start registers the pipeline with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(tick time.Time) {
		s.RunOnce(ctx, tick)
	}

	return s.driver.Start(ctx, job)
}

// RunOnce executes one timer-driven run and logs its summary.
func (s *Scheduler) RunOnce(ctx context.Context, tick time.Time) domain.RunSummary {
	run, err := s.pipeline.Run(ctx, TriggerSchedule)
	if err != nil {
		s.logger.Error("scheduled ingestion failed", "tick", tick, "run_id", run.RunID, "error", err)
	} else {
		s.logger.Info("scheduled ingestion finished",
			"tick", tick,
			"run_id", run.RunID,
			"processed", run.FilingsStored,
			"errors", len(run.Errors),
			"duration", run.Duration,
		)
	}

	if s.reporter != nil && len(run.Errors) > 0 {
		if rErr := s.reporter.ReportRun(ctx, run); rErr != nil {
			s.logger.Warn("run report failed", "run_id", run.RunID, "error", rErr)
		}
	}
	return run
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
