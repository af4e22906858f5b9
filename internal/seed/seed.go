// Package seed loads the initial watch list from a CSV file.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jszwec/csvutil"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/ports"
)

// Row is one line of the seed file. Header names must match the csv tags.
type Row struct {
	DocketNumber string `csv:"docket_number"`
	Title        string `csv:"title,omitempty"`
	Bureau       string `csv:"bureau,omitempty"`
	Description  string `csv:"description,omitempty"`
	Status       string `csv:"status,omitempty"`
	Watch        *bool  `csv:"watch,omitempty"`
}

// Watcher manages a subscriber's watch on a docket number.
type Watcher interface {
	Watch(ctx context.Context, subscriber, number string) (domain.Docket, error)
	Unwatch(ctx context.Context, subscriber, number string) error
}

// Result counts what Apply did.
type Result struct {
	Watched   int
	Unwatched int
	Updated   int
	Skipped   int
}

// Parse decodes seed rows from r.
func Parse(r io.Reader) ([]Row, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("create seed decoder: %w", err)
	}

	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode seed rows: %w", err)
	}
	return rows, nil
}

// LoadFile parses the CSV at path.
func LoadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Apply watches every row for subscriber, or unwatches rows marked watch=false.
// File metadata only fills dockets that are new or still unknown, so it never
// replaces what a refresh fetched from the FCC. Invalid rows are logged and skipped.
func Apply(ctx context.Context, store ports.DocketStore, watcher Watcher, subscriber string, rows []Row, logger *slog.Logger) (Result, error) {
	var res Result
	for i, row := range rows {
		number, err := domain.NormalizeDocketNumber(row.DocketNumber)
		if err != nil {
			logger.Warn("seed row skipped", "line", i+2, "docket", row.DocketNumber, "error", err)
			res.Skipped++
			continue
		}

		existing, err := store.GetDocketByNumber(ctx, number)
		known := err == nil
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return res, fmt.Errorf("load %s: %w", number, err)
		}

		if row.Watch == nil || *row.Watch {
			if _, err := watcher.Watch(ctx, subscriber, number); err != nil {
				return res, fmt.Errorf("watch %s: %w", number, err)
			}
			res.Watched++
		} else if known {
			active, err := store.WatchActive(ctx, subscriber, existing.ID)
			if err != nil {
				return res, fmt.Errorf("check watch %s: %w", number, err)
			}
			if active {
				if err := watcher.Unwatch(ctx, subscriber, number); err != nil {
					return res, fmt.Errorf("unwatch %s: %w", number, err)
				}
				res.Unwatched++
			}
		}

		if strings.TrimSpace(row.Title) == "" || (known && existing.Status != domain.DocketUnknown) {
			continue
		}
		docket := domain.Docket{
			Number:      number,
			Title:       strings.TrimSpace(row.Title),
			Bureau:      strings.TrimSpace(row.Bureau),
			Description: strings.TrimSpace(row.Description),
			Status:      domain.ParseDocketStatus(row.Status),
		}
		if _, err := store.UpsertDocket(ctx, docket); err != nil {
			return res, fmt.Errorf("store %s: %w", number, err)
		}
		res.Updated++
	}

	logger.Info("seed applied",
		"subscriber", subscriber,
		"watched", res.Watched,
		"unwatched", res.Unwatched,
		"updated", res.Updated,
		"skipped", res.Skipped,
	)
	return res, nil
}
