package storage

import (
	"context"
	"io"

	"DocketWatch/internal/config"
	"DocketWatch/internal/ports"
)

// Open builds the docket store selected by cfg.Driver. The returned closer
// releases any underlying connection.
func Open(ctx context.Context, cfg config.StorageConfig) (ports.DocketStore, io.Closer, error) {
	if cfg.Driver == DriverMemory {
		return NewMemoryStore(), nopCloser{}, nil
	}
	store, err := OpenSQL(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return store, store, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
