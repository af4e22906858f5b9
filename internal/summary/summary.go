// Package summary applies the bounded-cost summarization policy on top of a
// single-document summarization backend.
package summary

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"DocketWatch/internal/ports"
)

const (
	// NoDocumentSummary is stored when a filing has no downloadable documents.
	NoDocumentSummary = "No document available for summarization."
	// UnavailableSummary is stored when every attempted document failed.
	UnavailableSummary = "Summary could not be generated - please check original filing."

	failedMarker = "Document processing failed."

	maxDocumentsCeiling   = 2
	defaultAttemptTimeout = 30 * time.Second
)

// Options tune the policy; zero values fall back to 2 documents and 30s.
// MaxDocuments can lower the cap but never raise it above 2.
type Options struct {
	MaxDocuments   int
	AttemptTimeout time.Duration
}

// Policy tries documents in order and stops at the first usable summary.
type Policy struct {
	backend        ports.DocumentSummarizer
	maxDocuments   int
	attemptTimeout time.Duration
	logger         *slog.Logger
}

var _ ports.Summarizer = (*Policy)(nil)

// NewPolicy wraps a backend. A nil backend makes every filing with documents
// fall through to UnavailableSummary.
func NewPolicy(backend ports.DocumentSummarizer, opts Options, logger *slog.Logger) *Policy {
	if opts.MaxDocuments <= 0 || opts.MaxDocuments > maxDocumentsCeiling {
		opts.MaxDocuments = maxDocumentsCeiling
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = defaultAttemptTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Policy{
		backend:        backend,
		maxDocuments:   opts.MaxDocuments,
		attemptTimeout: opts.AttemptTimeout,
		logger:         logger,
	}
}

// Summarize always returns a string: a real summary or one of the two fallbacks.
func (p *Policy) Summarize(ctx context.Context, documentURLs []string, title string) string {
	if len(documentURLs) == 0 {
		return NoDocumentSummary
	}
	if p.backend == nil {
		return UnavailableSummary
	}

	attempts := documentURLs
	if len(attempts) > p.maxDocuments {
		attempts = attempts[:p.maxDocuments]
	}

	for _, docURL := range attempts {
		if ctx.Err() != nil {
			break
		}
		text, err := p.attempt(ctx, docURL, title)
		if err != nil {
			p.logger.Warn("document summarization failed", "url", docURL, "error", err)
			continue
		}
		if usable(text) {
			return strings.TrimSpace(text)
		}
		p.logger.Debug("document summarization returned nothing usable", "url", docURL)
	}
	return UnavailableSummary
}

// IsFallback reports whether text is one of the canned fallback strings.
func IsFallback(text string) bool {
	return text == NoDocumentSummary || text == UnavailableSummary
}

func (p *Policy) attempt(ctx context.Context, docURL, title string) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
	defer cancel()
	return p.backend.SummarizeDocument(attemptCtx, docURL, title)
}

func usable(text string) bool {
	text = strings.TrimSpace(text)
	return text != "" && text != failedMarker
}

// Prompt is the instruction sent with each document.
func Prompt(title, documentURL string) string {
	var b strings.Builder
	b.WriteString("Analyze this FCC filing document and provide a 2-4 sentence summary that:\n")
	b.WriteString("1. Identifies the key regulatory issue or request\n")
	b.WriteString("2. States the filer's position or requested action\n")
	b.WriteString("3. Notes any deadlines or procedural requirements\n")
	b.WriteString("4. Avoids technical jargon for general audiences\n\n")
	b.WriteString("Filing title: ")
	b.WriteString(title)
	b.WriteString("\nDocument URL: ")
	b.WriteString(documentURL)
	b.WriteString("\n\nPlease provide only the summary, no additional commentary.")
	return b.String()
}
