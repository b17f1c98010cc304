package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/greenfinch/fieldvisit/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	postal_code TEXT NOT NULL DEFAULT '',
	score       INTEGER NOT NULL,
	valuation   TEXT NOT NULL,
	loan_status TEXT NOT NULL,
	report      TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_reports_loan_status ON reports(loan_status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveReport(ctx context.Context, r *model.Report) error {
	prepareReport(r)
	payload, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, created_at, postal_code, score, valuation, loan_status, report) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt, r.Input.PostalCode, r.Result.Score, r.Result.Valuation,
		string(r.Result.LoanRecommendation.Status), string(payload),
	)
	return eris.Wrapf(err, "sqlite: insert report %s", r.ID)
}

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx, `SELECT report FROM reports WHERE id = ?`, id)
	r, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get report %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get report %s", id)
	}
	return r, nil
}

func (s *SQLiteStore) ListReports(ctx context.Context, opts ListOpts) ([]model.Report, error) {
	query := `SELECT report FROM reports WHERE 1=1`
	var args []any

	if opts.LoanStatus != "" {
		query += ` AND loan_status = ?`
		args = append(args, string(opts.LoanStatus))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, opts.limit())

	if opts.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan report")
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

func (s *SQLiteStore) ReportStats(ctx context.Context) (*Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT loan_status, COUNT(*), COALESCE(SUM(score), 0) FROM reports GROUP BY loan_status`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: report stats")
	}
	defer rows.Close()

	var counts []statusCount
	for rows.Next() {
		var c statusCount
		if err := rows.Scan(&c.status, &c.count, &c.scoreSum); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stats")
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: report stats iterate")
	}
	return buildStats(counts), nil
}

// helpers

func prepareReport(r *model.Report) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReport(row scannable) (*model.Report, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		return nil, err
	}
	var r model.Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, eris.Wrap(err, "unmarshal report")
	}
	return &r, nil
}
