package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/ports"
)

// SystemSubscriber owns seeded watches and is exempt from the watch limit.
const SystemSubscriber = "system"

// Watchlist manages subscriptions to dockets.
type Watchlist struct {
	store ports.DocketStore
	limit int
}

// NewWatchlist builds the use case. limit caps active watches per subscriber;
// zero means unlimited.
func NewWatchlist(store ports.DocketStore, limit int) *Watchlist {
	return &Watchlist{store: store, limit: limit}
}

// Watch subscribes to a docket, creating a placeholder row for unseen numbers.
// Watching an already watched docket is a no-op and never hits the limit.
func (w *Watchlist) Watch(ctx context.Context, subscriber, number string) (domain.Docket, error) {
	number, err := domain.NormalizeDocketNumber(number)
	if err != nil {
		return domain.Docket{}, err
	}
	subscriber = strings.TrimSpace(subscriber)
	if subscriber == "" {
		return domain.Docket{}, fmt.Errorf("subscriber is required")
	}

	docket, err := w.store.GetDocketByNumber(ctx, number)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		docket, err = w.store.UpsertDocket(ctx, domain.PlaceholderDocket(number))
		if err != nil {
			return domain.Docket{}, fmt.Errorf("create docket %s: %w", number, err)
		}
	case err != nil:
		return domain.Docket{}, fmt.Errorf("load docket %s: %w", number, err)
	}

	if err := w.checkLimit(ctx, subscriber, docket.ID); err != nil {
		return domain.Docket{}, err
	}

	if err := w.store.WatchDocket(ctx, subscriber, docket.ID); err != nil {
		return domain.Docket{}, fmt.Errorf("watch docket %s: %w", number, err)
	}
	return docket, nil
}

// Unwatch deactivates a subscription; the docket row stays.
func (w *Watchlist) Unwatch(ctx context.Context, subscriber, number string) error {
	number, err := domain.NormalizeDocketNumber(number)
	if err != nil {
		return err
	}
	docket, err := w.store.GetDocketByNumber(ctx, number)
	if err != nil {
		return fmt.Errorf("load docket %s: %w", number, err)
	}
	if err := w.store.UnwatchDocket(ctx, strings.TrimSpace(subscriber), docket.ID); err != nil {
		return fmt.Errorf("unwatch docket %s: %w", number, err)
	}
	return nil
}

// checkLimit allows a new watch while active watches < limit.
func (w *Watchlist) checkLimit(ctx context.Context, subscriber string, docketID int64) error {
	if w.limit <= 0 || subscriber == SystemSubscriber {
		return nil
	}

	watching, err := w.store.WatchActive(ctx, subscriber, docketID)
	if err != nil {
		return fmt.Errorf("check watch: %w", err)
	}
	if watching {
		return nil
	}

	count, err := w.store.CountActiveWatches(ctx, subscriber)
	if err != nil {
		return fmt.Errorf("count watches: %w", err)
	}
	if count < w.limit {
		return nil
	}
	return domain.ErrWatchLimit
}
