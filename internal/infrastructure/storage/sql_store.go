package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"

	"DocketWatch/internal/domain"
	"DocketWatch/internal/ports"
)

var (
	docketColumns = []string{"id", "docket_number", "title", "bureau", "description", "status", "created_at"}
	filingColumns = []string{
		"id", "fcc_filing_id", "docket_id", "title", "author", "author_organization", "filing_url",
		"document_urls", "filed_at", "fetched_at", "ai_summary", "summary_generated_at", "status",
	}
)

// SQLStore persists dockets, watches and filings in a relational database.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	builder sq.StatementBuilderType
	now     func() time.Time
}

var _ ports.DocketStore = (*SQLStore)(nil)

// OpenSQL opens the database for driver, pings it and applies migrations.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := d.open(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", d.name, err)
	}
	if err := applyMigrations(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return newSQLStore(db, d), nil
}

func newSQLStore(db *sql.DB, d dialect) *SQLStore {
	return &SQLStore{
		db:      db,
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder).RunWith(db),
		now:     time.Now,
	}
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListActiveDockets returns dockets with at least one active watch, ordered by number.
func (s *SQLStore) ListActiveDockets(ctx context.Context) ([]domain.Docket, error) {
	query := s.builder.Select(prefixed("d", docketColumns)...).
		From("dockets d").
		Where("EXISTS (SELECT 1 FROM docket_watches w WHERE w.docket_id = d.id AND w.active = TRUE)").
		OrderBy("d.docket_number")

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query active dockets: %w", err)
	}
	defer rows.Close()

	var dockets []domain.Docket
	for rows.Next() {
		d, err := scanDocket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan docket: %w", err)
		}
		dockets = append(dockets, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return dockets, nil
}

// GetDocketByNumber returns domain.ErrNotFound when the number is unknown.
func (s *SQLStore) GetDocketByNumber(ctx context.Context, number string) (domain.Docket, error) {
	row := s.builder.Select(docketColumns...).
		From("dockets").
		Where(sq.Eq{"docket_number": number}).
		QueryRowContext(ctx)

	d, err := scanDocket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Docket{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Docket{}, fmt.Errorf("get docket %s: %w", number, err)
	}
	return d, nil
}

// UpsertDocket inserts the docket or refreshes its metadata, keyed by number.
// The creation timestamp of an existing row is preserved.
func (s *SQLStore) UpsertDocket(ctx context.Context, docket domain.Docket) (domain.Docket, error) {
	createdAt := docket.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	status := docket.Status
	if status == "" {
		status = domain.DocketUnknown
	}

	insert := s.builder.Insert("dockets").
		Columns("docket_number", "title", "bureau", "description", "status", "created_at").
		Values(docket.Number, docket.Title, docket.Bureau, docket.Description, string(status), createdAt.UTC().UnixMilli()).
		Suffix(s.upsertSuffix("docket_number", "title", "bureau", "description", "status"))

	if _, err := insert.ExecContext(ctx); err != nil {
		return domain.Docket{}, fmt.Errorf("upsert docket %s: %w", docket.Number, err)
	}
	return s.GetDocketByNumber(ctx, docket.Number)
}

// WatchDocket activates (or re-activates) a subscriber's watch.
func (s *SQLStore) WatchDocket(ctx context.Context, subscriber string, docketID int64) error {
	insert := s.builder.Insert("docket_watches").
		Columns("subscriber", "docket_id", "active", "created_at").
		Values(subscriber, docketID, sq.Expr("TRUE"), s.now().UTC().UnixMilli())

	if s.dialect.name == DriverMySQL {
		insert = insert.Suffix("ON DUPLICATE KEY UPDATE active = TRUE")
	} else {
		insert = insert.Suffix("ON CONFLICT (subscriber, docket_id) DO UPDATE SET active = TRUE")
	}

	if _, err := insert.ExecContext(ctx); err != nil {
		return fmt.Errorf("watch docket %d: %w", docketID, err)
	}
	return nil
}

// UnwatchDocket deactivates a watch; the row is kept.
func (s *SQLStore) UnwatchDocket(ctx context.Context, subscriber string, docketID int64) error {
	update := s.builder.Update("docket_watches").
		Set("active", sq.Expr("FALSE")).
		Where(sq.Eq{"subscriber": subscriber, "docket_id": docketID})

	res, err := update.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("unwatch docket %d: %w", docketID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// WatchActive reports whether the subscriber currently watches the docket.
func (s *SQLStore) WatchActive(ctx context.Context, subscriber string, docketID int64) (bool, error) {
	var found int
	err := s.builder.Select("1").
		From("docket_watches").
		Where(sq.Eq{"subscriber": subscriber, "docket_id": docketID}).
		Where("active = TRUE").
		QueryRowContext(ctx).
		Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check watch: %w", err)
	}
	return true, nil
}

// CountActiveWatches counts the subscriber's active watches.
func (s *SQLStore) CountActiveWatches(ctx context.Context, subscriber string) (int, error) {
	var count int
	err := s.builder.Select("COUNT(*)").
		From("docket_watches").
		Where(sq.Eq{"subscriber": subscriber}).
		Where("active = TRUE").
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count watches: %w", err)
	}
	return count, nil
}

// LatestFiledAt returns the maximum filed-at of the docket's filings, or nil.
func (s *SQLStore) LatestFiledAt(ctx context.Context, docketID int64) (*time.Time, error) {
	var latest sql.NullInt64
	err := s.builder.Select("MAX(filed_at)").
		From("filings").
		Where(sq.Eq{"docket_id": docketID}).
		QueryRowContext(ctx).
		Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("latest filed at for docket %d: %w", docketID, err)
	}
	return fromMillis(latest), nil
}

// GetFilingByExternalID returns domain.ErrNotFound when the id is unknown.
func (s *SQLStore) GetFilingByExternalID(ctx context.Context, externalID string) (domain.Filing, error) {
	row := s.builder.Select(filingColumns...).
		From("filings").
		Where(sq.Eq{"fcc_filing_id": externalID}).
		QueryRowContext(ctx)

	f, err := scanFiling(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Filing{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Filing{}, fmt.Errorf("get filing %s: %w", externalID, err)
	}
	return f, nil
}

// InsertFiling stores a filing unless its external id is already present.
// The boolean reports whether a row was created.
func (s *SQLStore) InsertFiling(ctx context.Context, filing domain.Filing) (bool, error) {
	urls := filing.DocumentURLs
	if urls == nil {
		urls = []string{}
	}
	encodedURLs, err := json.Marshal(urls)
	if err != nil {
		return false, fmt.Errorf("encode document urls: %w", err)
	}

	res, err := s.filingInsert(filing, string(encodedURLs)).ExecContext(ctx)
	if isDuplicateKey(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert filing %s: %w", filing.ExternalID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) filingInsert(filing domain.Filing, encodedURLs string) sq.InsertBuilder {
	insert := s.builder.Insert("filings").
		Columns(filingColumns[1:]...).
		Values(
			filing.ExternalID,
			filing.DocketID,
			filing.Title,
			filing.Author,
			nullString(filing.AuthorOrganization),
			filing.FilingURL,
			encodedURLs,
			toMillis(filing.FiledAt),
			filing.FetchedAt.UTC().UnixMilli(),
			nullString(filing.Summary),
			toMillis(filing.SummaryGeneratedAt),
			string(filing.Status),
		)
	if clause := filingConflictClause(s.dialect); clause != "" {
		insert = insert.Suffix(clause)
	}
	return insert
}

// UpdateFilingSummary attaches a summary and moves the filing to status.
func (s *SQLStore) UpdateFilingSummary(ctx context.Context, externalID, summary string, status domain.ProcessingStatus, at time.Time) error {
	update := s.builder.Update("filings").
		Set("ai_summary", summary).
		Set("summary_generated_at", at.UTC().UnixMilli()).
		Set("status", string(status)).
		Where(sq.Eq{"fcc_filing_id": externalID})

	res, err := update.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("update filing %s: %w", externalID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// filingConflictClause lets sqlite and postgres skip duplicates in SQL. MySQL
// has no DO NOTHING form that reports zero rows under clientFoundRows, so the
// insert runs plain and isDuplicateKey filters the error.
func filingConflictClause(d dialect) string {
	if d.name == DriverMySQL {
		return ""
	}
	return "ON CONFLICT (fcc_filing_id) DO NOTHING"
}

// isDuplicateKey matches only MySQL's ER_DUP_ENTRY; other constraint errors
// still surface.
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

const mysqlDuplicateEntry = 1062

func (s *SQLStore) upsertSuffix(key string, columns ...string) string {
	if s.dialect.name == DriverMySQL {
		clause := "ON DUPLICATE KEY UPDATE "
		for i, col := range columns {
			if i > 0 {
				clause += ", "
			}
			clause += col + " = VALUES(" + col + ")"
		}
		return clause
	}
	clause := "ON CONFLICT (" + key + ") DO UPDATE SET "
	for i, col := range columns {
		if i > 0 {
			clause += ", "
		}
		clause += col + " = excluded." + col
	}
	return clause
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocket(row rowScanner) (domain.Docket, error) {
	var (
		d         domain.Docket
		status    string
		createdAt int64
	)
	if err := row.Scan(&d.ID, &d.Number, &d.Title, &d.Bureau, &d.Description, &status, &createdAt); err != nil {
		return domain.Docket{}, err
	}
	d.Status = domain.DocketStatus(status)
	d.CreatedAt = time.UnixMilli(createdAt).UTC()
	return d, nil
}

func scanFiling(row rowScanner) (domain.Filing, error) {
	var (
		f            domain.Filing
		org          sql.NullString
		encodedURLs  string
		filedAt      sql.NullInt64
		fetchedAt    int64
		summary      sql.NullString
		summarizedAt sql.NullInt64
		status       string
	)
	err := row.Scan(
		&f.ID, &f.ExternalID, &f.DocketID, &f.Title, &f.Author, &org, &f.FilingURL,
		&encodedURLs, &filedAt, &fetchedAt, &summary, &summarizedAt, &status,
	)
	if err != nil {
		return domain.Filing{}, err
	}

	f.DocumentURLs = []string{}
	if encodedURLs != "" {
		if err := json.Unmarshal([]byte(encodedURLs), &f.DocumentURLs); err != nil {
			return domain.Filing{}, fmt.Errorf("decode document urls: %w", err)
		}
	}
	if org.Valid {
		f.AuthorOrganization = &org.String
	}
	if summary.Valid {
		f.Summary = &summary.String
	}
	f.FiledAt = fromMillis(filedAt)
	f.SummaryGeneratedAt = fromMillis(summarizedAt)
	f.FetchedAt = time.UnixMilli(fetchedAt).UTC()
	f.Status = domain.ProcessingStatus(status)
	return f, nil
}

func prefixed(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = alias + "." + col
	}
	return out
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func toMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().UnixMilli(), Valid: true}
}

func fromMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}
