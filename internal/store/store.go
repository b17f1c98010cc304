// Package store persists valuation reports.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/greenfinch/fieldvisit/internal/config"
	"github.com/greenfinch/fieldvisit/internal/model"
)

// ErrNotFound is returned when a report does not exist.
var ErrNotFound = eris.New("store: report not found")

const defaultListLimit = 100

// ListOpts specifies criteria for listing reports. Results are newest first.
type ListOpts struct {
	Limit      int              `json:"limit,omitempty"`
	Offset     int              `json:"offset,omitempty"`
	LoanStatus model.LoanStatus `json:"loan_status,omitempty"`
}

func (o ListOpts) limit() int {
	if o.Limit <= 0 {
		return defaultListLimit
	}
	return o.Limit
}

// Stats aggregates stored reports.
type Stats struct {
	Total        int                      `json:"total"`
	AverageScore float64                  `json:"average_score"`
	ByLoanStatus map[model.LoanStatus]int `json:"by_loan_status"`
}

// Store defines the persistence interface for valuation reports.
type Store interface {
	// SaveReport assigns an ID and creation time when unset and stores r.
	SaveReport(ctx context.Context, r *model.Report) error
	GetReport(ctx context.Context, id string) (*model.Report, error)
	ListReports(ctx context.Context, opts ListOpts) ([]model.Report, error)
	ReportStats(ctx context.Context) (*Stats, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// NewStore opens the store selected by cfg.Driver.
func NewStore(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, &PoolConfig{MaxConns: cfg.MaxConns, MinConns: cfg.MinConns})
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

type statusCount struct {
	status   string
	count    int64
	scoreSum int64
}

func buildStats(rows []statusCount) *Stats {
	st := &Stats{ByLoanStatus: make(map[model.LoanStatus]int, len(rows))}
	var sum int64
	for _, r := range rows {
		st.ByLoanStatus[model.LoanStatus(r.status)] = int(r.count)
		st.Total += int(r.count)
		sum += r.scoreSum
	}
	if st.Total > 0 {
		st.AverageScore = float64(sum) / float64(st.Total)
	}
	return st
}
