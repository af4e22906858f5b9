package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/summary"
)

// TriggerManual labels runs started over HTTP.
const TriggerManual = "manual"

// Runner executes one ingestion run.
type Runner interface {
	Run(ctx context.Context, trigger string) (domain.RunSummary, error)
}

// Resummarizer regenerates a stored filing's summary.
type Resummarizer interface {
	Resummarize(ctx context.Context, externalID string) (domain.Filing, error)
}

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// API holds the handlers' collaborators.
type API struct {
	runner       Runner
	resummarizer Resummarizer
	store        Pinger
	logger       *slog.Logger
	now          func() time.Time
}

// NewAPI wires handlers; resummarizer may be nil to disable that route.
func NewAPI(runner Runner, resummarizer Resummarizer, store Pinger, logger *slog.Logger) *API {
	return &API{runner: runner, resummarizer: resummarizer, store: store, logger: logger, now: time.Now}
}

func registerRoutes(r *gin.Engine, api *API, adminSecret string) {
	r.GET("/health", api.handleHealth)

	admin := r.Group("/api", AdminAuth(adminSecret))
	{
		admin.POST("/trigger-ingestion", api.handleTrigger)
		if api.resummarizer != nil {
			admin.POST("/filings/:id/resummarize", api.handleResummarize)
		}
	}
}

type runCounts struct {
	Processed         int               `json:"processed"`
	RunID             string            `json:"run_id"`
	DocketsConsidered int               `json:"dockets_considered"`
	FilingsDiscovered int               `json:"filings_discovered"`
	FilingsSkipped    int               `json:"skipped"`
	DurationMS        int64             `json:"duration_ms"`
	Errors            []domain.RunError `json:"errors"`
}

func countsOf(run domain.RunSummary) runCounts {
	errs := run.Errors
	if errs == nil {
		errs = []domain.RunError{}
	}
	return runCounts{
		Processed:         run.FilingsStored,
		RunID:             run.RunID,
		DocketsConsidered: run.DocketsConsidered,
		FilingsDiscovered: run.FilingsDiscovered,
		FilingsSkipped:    run.FilingsSkipped,
		DurationMS:        run.Duration.Milliseconds(),
		Errors:            errs,
	}
}

type triggerResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	runCounts
}

// triggerErrorResponse keeps whatever the run recorded before failing.
type triggerErrorResponse struct {
	errorResponse
	runCounts
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (a *API) timestamp() string {
	return a.now().UTC().Format(time.RFC3339)
}

func (a *API) handleHealth(c *gin.Context) {
	if err := a.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// handleTrigger runs detached from the request so a dropped client does not
// cancel the sweep; the pipeline's run timeout still bounds it.
func (a *API) handleTrigger(c *gin.Context) {
	run, err := a.runner.Run(context.WithoutCancel(c.Request.Context()), TriggerManual)
	if err != nil {
		a.logger.Error("manual ingestion failed", "run_id", run.RunID, "request_id", GetRequestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, triggerErrorResponse{
			errorResponse: errorResponse{
				Error:     "Ingestion failed",
				Message:   err.Error(),
				Timestamp: a.timestamp(),
			},
			runCounts: countsOf(run),
		})
		return
	}

	c.JSON(http.StatusOK, triggerResponse{
		Message:   "Ingestion worker completed",
		Timestamp: a.timestamp(),
		runCounts: countsOf(run),
	})
}

func (a *API) handleResummarize(c *gin.Context) {
	filing, err := a.resummarizer.Resummarize(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "Filing not found", Message: c.Param("id"), Timestamp: a.timestamp()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Resummarize failed", Message: err.Error(), Timestamp: a.timestamp()})
		return
	}

	text := ""
	if filing.Summary != nil {
		text = *filing.Summary
	}
	c.JSON(http.StatusOK, gin.H{
		"filing_id": filing.ExternalID,
		"summary":   text,
		"status":    filing.Status,
		"fallback":  summary.IsFallback(text),
	})
}
