package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// dialect captures the per-engine differences the store has to care about.
type dialect struct {
	name        string
	driverName  string
	placeholder sq.PlaceholderFormat
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return dialect{name: DriverSQLite, driverName: "sqlite", placeholder: sq.Question}, nil
	case DriverPostgres:
		return dialect{name: DriverPostgres, driverName: "postgres", placeholder: sq.Dollar}, nil
	case DriverMySQL:
		return dialect{name: DriverMySQL, driverName: "mysql", placeholder: sq.Question}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

// dataSource adapts the configured DSN to what each driver expects.
func (d dialect) dataSource(dsn string) (string, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", fmt.Errorf("%s storage requires a dsn", d.name)
	}
	switch d.name {
	case DriverSQLite:
		if strings.Contains(dsn, "?") || dsn == ":memory:" {
			return dsn, nil
		}
		cleanPath := filepath.Clean(dsn)
		if dir := filepath.Dir(cleanPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		return cleanPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
	case DriverMySQL:
		if !strings.Contains(dsn, "clientFoundRows") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "clientFoundRows=true"
		}
		return dsn, nil
	default:
		return dsn, nil
	}
}

func (d dialect) open(dsn string) (*sql.DB, error) {
	source, err := d.dataSource(dsn)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driverName, source)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", d.name, err)
	}
	if d.name == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}
