package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"DocketWatch/internal/config"
	"DocketWatch/internal/domain"
	apihttp "DocketWatch/internal/http"
	"DocketWatch/internal/infrastructure/ecfs"
	"DocketWatch/internal/infrastructure/gemini"
	"DocketWatch/internal/infrastructure/llm"
	"DocketWatch/internal/infrastructure/scheduler"
	"DocketWatch/internal/infrastructure/storage"
	"DocketWatch/internal/infrastructure/telegram"
	"DocketWatch/internal/logging"
	"DocketWatch/internal/normalizer"
	"DocketWatch/internal/ports"
	"DocketWatch/internal/seed"
	"DocketWatch/internal/summary"
	"DocketWatch/internal/telemetry"
	"DocketWatch/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	store        ports.DocketStore
	storeCloser  io.Closer
	shutdownOtel func(context.Context) error

	pipeline  *usecase.Pipeline
	watchlist *usecase.Watchlist
	scheduler *usecase.Scheduler
	server    *apihttp.Server
}

// New opens storage and builds every component. Close releases them.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	shutdownOtel, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	store, closer, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = shutdownOtel(ctx)
		return nil, fmt.Errorf("storage: %w", err)
	}

	registry := summary.NewRegistry()
	registry.Register("gemini", gemini.NewClient(cfg.Summarizer.Gemini, nil))
	registry.Register("openai", llm.NewChatGPTClient(cfg.Summarizer.ChatGPT, nil))
	backend, err := registry.Resolve(cfg.Summarizer.Provider)
	if err != nil {
		_ = closer.Close()
		_ = shutdownOtel(ctx)
		return nil, err
	}
	policy := summary.NewPolicy(backend, summary.Options{
		MaxDocuments:   cfg.Summarizer.MaxDocuments,
		AttemptTimeout: cfg.Summarizer.AttemptTimeout,
	}, baseLogger.With("component", "summary"))

	source := ecfs.NewClient(cfg.ECFS, nil, baseLogger.With("component", "ecfs"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Store:       store,
		Source:      source,
		DocketInfo:  source,
		Normalizer:  normalizer.New(cfg.ECFS.DownloadBaseURL, cfg.ECFS.FilingBaseURL),
		Summarizer:  policy,
		Logger:      baseLogger.With("component", "pipeline"),
		FilingDelay: cfg.Ingestion.FilingDelay,
		DocketDelay: cfg.Ingestion.DocketDelay,
		RunTimeout:  cfg.Ingestion.RunTimeout,
	})

	var reporter ports.RunReporter
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		reporter = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	var driver ports.Scheduler
	if cfg.Scheduler.Enabled {
		driver = scheduler.NewTickerScheduler(cfg.Scheduler.Interval)
	}

	api := apihttp.NewAPI(
		pipeline,
		usecase.NewResummarizer(store, policy, time.Now),
		store,
		baseLogger.With("component", "http"),
	)

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		store:        store,
		storeCloser:  closer,
		shutdownOtel: shutdownOtel,
		pipeline:     pipeline,
		watchlist:    usecase.NewWatchlist(store, cfg.Admin.FreeWatchLimit),
		scheduler:    usecase.NewScheduler(driver, pipeline, reporter, baseLogger.With("component", "scheduler")),
		server:       apihttp.NewServer(cfg, api, baseLogger.With("component", "http")),
	}, nil
}

// Seed applies the configured CSV watch list. A missing path is a no-op.
func (a *Application) Seed(ctx context.Context) error {
	if a.cfg.Seed.Path == "" {
		return nil
	}
	rows, err := seed.LoadFile(a.cfg.Seed.Path)
	if err != nil {
		return fmt.Errorf("load seed %s: %w", a.cfg.Seed.Path, err)
	}
	_, err = seed.Apply(ctx, a.store, a.watchlist, a.cfg.Seed.Subscriber, rows, a.logger.With("component", "seed"))
	return err
}

// RunOnce executes a single ingestion run outside the scheduler.
func (a *Application) RunOnce(ctx context.Context) (domain.RunSummary, error) {
	return a.pipeline.Run(ctx, usecase.TriggerOnce)
}

// Serve starts the scheduler and HTTP server and blocks until ctx is done.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.server.Run()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if serveErr != nil {
		errs = append(errs, fmt.Errorf("http server: %w", serveErr))
	}
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler stop: %w", err))
	}
	return errors.Join(errs...)
}

// Close flushes traces and releases storage.
func (a *Application) Close(ctx context.Context) error {
	return errors.Join(a.shutdownOtel(ctx), a.storeCloser.Close())
}
