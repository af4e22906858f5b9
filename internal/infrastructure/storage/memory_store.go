package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/ports"
)

type watchKey struct {
	subscriber string
	docketID   int64
}

// MemoryStore keeps everything in process memory. It backs tests and
// the `memory` storage driver.
type MemoryStore struct {
	mu sync.RWMutex

	nextDocketID int64
	nextFilingID int64

	dockets  map[int64]domain.Docket
	byNumber map[string]int64
	watches  map[watchKey]bool
	filings  map[string]domain.Filing

	now func() time.Time
}

var _ ports.DocketStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		dockets:  make(map[int64]domain.Docket),
		byNumber: make(map[string]int64),
		watches:  make(map[watchKey]bool),
		filings:  make(map[string]domain.Filing),
		now:      time.Now,
	}
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ListActiveDockets returns dockets with at least one active watch, ordered by number.
func (m *MemoryStore) ListActiveDockets(ctx context.Context) ([]domain.Docket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[int64]bool)
	var out []domain.Docket
	for key, active := range m.watches {
		if !active || seen[key.docketID] {
			continue
		}
		if d, ok := m.dockets[key.docketID]; ok {
			seen[key.docketID] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// GetDocketByNumber returns domain.ErrNotFound when the number is unknown.
func (m *MemoryStore) GetDocketByNumber(ctx context.Context, number string) (domain.Docket, error) {
	if err := ctx.Err(); err != nil {
		return domain.Docket{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byNumber[number]
	if !ok {
		return domain.Docket{}, domain.ErrNotFound
	}
	return m.dockets[id], nil
}

// UpsertDocket inserts the docket or refreshes its metadata, keyed by number.
func (m *MemoryStore) UpsertDocket(ctx context.Context, docket domain.Docket) (domain.Docket, error) {
	if err := ctx.Err(); err != nil {
		return domain.Docket{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if docket.Status == "" {
		docket.Status = domain.DocketUnknown
	}
	if id, ok := m.byNumber[docket.Number]; ok {
		existing := m.dockets[id]
		existing.Title = docket.Title
		existing.Bureau = docket.Bureau
		existing.Description = docket.Description
		existing.Status = docket.Status
		m.dockets[id] = existing
		return existing, nil
	}

	m.nextDocketID++
	docket.ID = m.nextDocketID
	if docket.CreatedAt.IsZero() {
		docket.CreatedAt = m.now().UTC()
	}
	m.dockets[docket.ID] = docket
	m.byNumber[docket.Number] = docket.ID
	return docket, nil
}

// WatchDocket activates (or re-activates) a subscriber's watch.
func (m *MemoryStore) WatchDocket(ctx context.Context, subscriber string, docketID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.dockets[docketID]; !ok {
		return domain.ErrNotFound
	}
	m.watches[watchKey{subscriber: subscriber, docketID: docketID}] = true
	return nil
}

// UnwatchDocket deactivates a watch.
func (m *MemoryStore) UnwatchDocket(ctx context.Context, subscriber string, docketID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := watchKey{subscriber: subscriber, docketID: docketID}
	if _, ok := m.watches[key]; !ok {
		return domain.ErrNotFound
	}
	m.watches[key] = false
	return nil
}

// WatchActive reports whether the subscriber currently watches the docket.
func (m *MemoryStore) WatchActive(ctx context.Context, subscriber string, docketID int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.watches[watchKey{subscriber: subscriber, docketID: docketID}], nil
}

// CountActiveWatches counts the subscriber's active watches.
func (m *MemoryStore) CountActiveWatches(ctx context.Context, subscriber string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for key, active := range m.watches {
		if active && key.subscriber == subscriber {
			count++
		}
	}
	return count, nil
}

// LatestFiledAt returns the maximum filed-at of the docket's filings, or nil.
func (m *MemoryStore) LatestFiledAt(ctx context.Context, docketID int64) (*time.Time, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *time.Time
	for _, f := range m.filings {
		if f.DocketID != docketID || f.FiledAt == nil {
			continue
		}
		if latest == nil || f.FiledAt.After(*latest) {
			t := *f.FiledAt
			latest = &t
		}
	}
	return latest, nil
}

// GetFilingByExternalID returns domain.ErrNotFound when the id is unknown.
func (m *MemoryStore) GetFilingByExternalID(ctx context.Context, externalID string) (domain.Filing, error) {
	if err := ctx.Err(); err != nil {
		return domain.Filing{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.filings[externalID]
	if !ok {
		return domain.Filing{}, domain.ErrNotFound
	}
	return cloneFiling(f), nil
}

// InsertFiling stores a filing unless its external id is already present.
func (m *MemoryStore) InsertFiling(ctx context.Context, filing domain.Filing) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.filings[filing.ExternalID]; ok {
		return false, nil
	}
	m.nextFilingID++
	filing.ID = m.nextFilingID
	m.filings[filing.ExternalID] = cloneFiling(filing)
	return true, nil
}

// UpdateFilingSummary attaches a summary and moves the filing to status.
func (m *MemoryStore) UpdateFilingSummary(ctx context.Context, externalID, summary string, status domain.ProcessingStatus, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.filings[externalID]
	if !ok {
		return domain.ErrNotFound
	}
	f.AttachSummary(summary, status, at.UTC())
	m.filings[externalID] = f
	return nil
}

// FilingCount reports how many filings are stored.
func (m *MemoryStore) FilingCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.filings)
}

func cloneFiling(f domain.Filing) domain.Filing {
	urls := make([]string, len(f.DocumentURLs))
	copy(urls, f.DocumentURLs)
	f.DocumentURLs = urls
	return f
}
