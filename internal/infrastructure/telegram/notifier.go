package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/ports"
)

const (
	defaultAPIBase  = "https://api.telegram.org"
	maxListedErrors = 10
)

// Notifier sends run reports to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

var _ ports.RunReporter = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// ReportRun posts a plain-text run report to Telegram.
func (n *Notifier) ReportRun(ctx context.Context, run domain.RunSummary) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", FormatRun(run))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// FormatRun renders the summary as a short message.
func FormatRun(run domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Docket ingestion %s (%s)\n", run.RunID, run.Trigger)
	fmt.Fprintf(&b, "Dockets: %d, discovered: %d, stored: %d, skipped: %d\n",
		run.DocketsConsidered, run.FilingsDiscovered, run.FilingsStored, run.FilingsSkipped)
	fmt.Fprintf(&b, "Duration: %s\n", run.Duration.Round(time.Second))

	if len(run.Errors) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "Errors (%d):\n", len(run.Errors))
	for i, e := range run.Errors {
		if i == maxListedErrors {
			fmt.Fprintf(&b, "... and %d more\n", len(run.Errors)-maxListedErrors)
			break
		}
		target := e.DocketNumber
		if e.FilingID != "" {
			target += "/" + e.FilingID
		}
		if target == "" {
			target = string(e.Scope)
		}
		fmt.Fprintf(&b, "- [%s] %s: %s\n", e.Scope, target, e.Message)
	}
	return b.String()
}
