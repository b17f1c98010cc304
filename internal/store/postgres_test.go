package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfinch/fieldvisit/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_SaveReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	r := testReport("400001", 70, model.LoanNotRecommended, time.Time{})

	mock.ExpectExec(`INSERT INTO reports`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "400001", 70, "45.00", "not_recommended", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveReport(context.Background(), r))
	assert.NotEmpty(t, r.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetReport(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	want := testReport("560001", 64, model.LoanCaution, time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	want.ID = "r-1"
	payload, err := json.Marshal(want)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT report FROM reports WHERE id = \$1`).
		WithArgs("r-1").
		WillReturnRows(pgxmock.NewRows([]string{"report"}).AddRow(payload))

	got, err := s.GetReport(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "r-1", got.ID)
	assert.Equal(t, want.Result, got.Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetReport_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT report FROM reports WHERE id = \$1`).
		WithArgs("nonexistent").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetReport(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListReports_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	payload, err := json.Marshal(testReport("110001", 60, model.LoanCaution, time.Now().UTC()))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT report FROM reports WHERE true AND loan_status = \$1 ORDER BY created_at DESC, id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("caution", 5, 10).
		WillReturnRows(pgxmock.NewRows([]string{"report"}).AddRow(payload))

	reports, err := s.ListReports(context.Background(), ListOpts{Limit: 5, Offset: 10, LoanStatus: model.LoanCaution})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "110001", reports[0].Input.PostalCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListReports_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT report FROM reports WHERE true ORDER BY created_at DESC, id DESC LIMIT \$1$`).
		WithArgs(defaultListLimit).
		WillReturnRows(pgxmock.NewRows([]string{"report"}))

	reports, err := s.ListReports(context.Background(), ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ReportStats(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT loan_status, COUNT\(\*\), COALESCE\(SUM\(score\), 0\) FROM reports GROUP BY loan_status`).
		WillReturnRows(pgxmock.NewRows([]string{"loan_status", "count", "sum"}).
			AddRow("okay", int64(2), int64(50)).
			AddRow("caution", int64(2), int64(150)))

	st, err := s.ReportStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, st.Total)
	assert.InDelta(t, 50.0, st.AverageScore, 0.001)
	assert.Equal(t, 2, st.ByLoanStatus[model.LoanCaution])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS reports`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
