package ecfs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"DocketWatch/internal/config"
	"DocketWatch/internal/domain"
	"DocketWatch/internal/ports"
)

const (
	maxPageSize = 250
	sortOrder   = "date_disseminated,DESC"
	sinceLayout = "2006-01-02"
	userAgent   = "DocketWatch/1.0"
)

// StatusError reports a non-2xx answer from ECFS other than a rate limit.
type StatusError struct {
	Docket string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ecfs returned %d for docket %s", e.Status, e.Docket)
}

// Client queries the ECFS public API for filings and proceedings.
type Client struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	pageSize int
	logger   *slog.Logger
}

var (
	_ ports.FilingSource     = (*Client)(nil)
	_ ports.DocketInfoSource = (*Client)(nil)
)

// NewClient wires an HTTP client; page size is capped at 250.
func NewClient(cfg config.ECFSConfig, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		client:   client,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: pageSize,
		logger:   logger,
	}
}

// FetchFilings returns at most one page of filings, newest first.
// A 429 is treated as "nothing new this cycle" and yields (nil, nil).
func (c *Client) FetchFilings(ctx context.Context, docketNumber string, since *time.Time) ([]domain.RawFiling, error) {
	pageURL, err := buildFilingsURL(c.baseURL, docketNumber, c.apiKey, c.pageSize, since)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Filings []domain.RawFiling `json:"filings"`
		Filing  []domain.RawFiling `json:"filing"`
	}

	status, err := c.getJSON(ctx, pageURL, &payload)
	if err != nil {
		c.logger.Warn("filings request failed", "docket", docketNumber, "error", err)
		return nil, fmt.Errorf("fetch filings for %s: %w", docketNumber, err)
	}
	switch {
	case status == http.StatusTooManyRequests:
		c.logger.Info("rate limited, deferring docket to next run", "docket", docketNumber)
		return nil, nil
	case status < 200 || status >= 300:
		c.logger.Warn("filings request rejected", "docket", docketNumber, "status", status)
		return nil, &StatusError{Docket: docketNumber, Status: status}
	}

	filings := append(payload.Filings, payload.Filing...)
	if len(filings) > c.pageSize {
		filings = filings[:c.pageSize]
	}
	c.logger.Debug("filings fetched", "docket", docketNumber, "count", len(filings))
	return filings, nil
}

// FetchDocketInfo looks the proceeding up; a missing proceeding yields (nil, nil).
func (c *Client) FetchDocketInfo(ctx context.Context, docketNumber string) (*domain.DocketInfo, error) {
	parsed, err := url.Parse(c.baseURL + "/proceedings")
	if err != nil {
		return nil, fmt.Errorf("invalid ecfs base url %s: %w", c.baseURL, err)
	}
	query := parsed.Query()
	query.Set("name", docketNumber)
	if c.apiKey != "" {
		query.Set("api_key", c.apiKey)
	}
	parsed.RawQuery = query.Encode()

	var payload struct {
		Proceedings []struct {
			Name       string `json:"name"`
			Subject    string `json:"subject"`
			BureauName string `json:"bureau_name"`
			Status     string `json:"status"`
		} `json:"proceedings"`
	}

	status, err := c.getJSON(ctx, parsed.String(), &payload)
	if err != nil {
		return nil, fmt.Errorf("fetch proceeding %s: %w", docketNumber, err)
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{Docket: docketNumber, Status: status}
	}
	if len(payload.Proceedings) == 0 {
		return nil, nil
	}

	proc := payload.Proceedings[0]
	title := strings.TrimSpace(proc.Subject)
	if title == "" {
		title = "No title available"
	}
	name := strings.TrimSpace(proc.Name)
	if name == "" {
		name = docketNumber
	}
	return &domain.DocketInfo{
		Number:      name,
		Title:       title,
		Bureau:      strings.TrimSpace(proc.BureauName),
		Description: strings.TrimSpace(proc.Subject),
		Status:      domain.ParseDocketStatus(proc.Status),
	}, nil
}

// getJSON decodes 2xx bodies into v and returns the status code either way.
func (c *Client) getJSON(ctx context.Context, pageURL string, v any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request ecfs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func buildFilingsURL(base, docketNumber, apiKey string, pageSize int, since *time.Time) (string, error) {
	parsed, err := url.Parse(base + "/filings")
	if err != nil {
		return "", fmt.Errorf("invalid ecfs base url %s: %w", base, err)
	}

	query := parsed.Query()
	query.Set("proceedings.name", docketNumber)
	query.Set("limit", strconv.Itoa(pageSize))
	query.Set("sort", sortOrder)
	if since != nil {
		query.Set("date_disseminated", ">="+since.UTC().Format(sinceLayout))
	}
	if apiKey != "" {
		query.Set("api_key", apiKey)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
