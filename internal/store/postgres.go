package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/greenfinch/fieldvisit/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	sqlInsertReport = `INSERT INTO reports (id, created_at, postal_code, score, valuation, loan_status, report) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	sqlGetReport    = `SELECT report FROM reports WHERE id = $1`
	sqlReportStats  = `SELECT loan_status, COUNT(*), COALESCE(SUM(score), 0) FROM reports GROUP BY loan_status`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_report": sqlInsertReport,
	"get_report":    sqlGetReport,
	"report_stats":  sqlReportStats,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	postal_code TEXT NOT NULL DEFAULT '',
	score       INTEGER NOT NULL CHECK (score BETWEEN 0 AND 100),
	valuation   NUMERIC(12, 2) NOT NULL,
	loan_status TEXT NOT NULL,
	report      JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reports_loan_status ON reports(loan_status);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveReport(ctx context.Context, r *model.Report) error {
	prepareReport(r)
	payload, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	_, err = s.pool.Exec(ctx, sqlInsertReport,
		r.ID, r.CreatedAt, r.Input.PostalCode, r.Result.Score, r.Result.Valuation,
		string(r.Result.LoanRecommendation.Status), payload,
	)
	return eris.Wrapf(err, "postgres: insert report %s", r.ID)
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	r, err := scanReport(s.pool.QueryRow(ctx, sqlGetReport, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get report %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get report %s", id)
	}
	return r, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, opts ListOpts) ([]model.Report, error) {
	query := `SELECT report FROM reports WHERE true`
	args := []any{}
	argIdx := 1

	if opts.LoanStatus != "" {
		query += fmt.Sprintf(` AND loan_status = $%d`, argIdx)
		args = append(args, string(opts.LoanStatus))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, argIdx)
	args = append(args, opts.limit())
	argIdx++

	if opts.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	reports := []model.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

func (s *PostgresStore) ReportStats(ctx context.Context) (*Stats, error) {
	rows, err := s.pool.Query(ctx, sqlReportStats)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: report stats")
	}
	defer rows.Close()

	var counts []statusCount
	for rows.Next() {
		var c statusCount
		if err := rows.Scan(&c.status, &c.count, &c.scoreSum); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stats")
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: report stats iterate")
	}
	return buildStats(counts), nil
}
