package dues

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

type stubRow struct{ err error }

func (r stubRow) Scan(...any) error { return r.err }

type failingRows struct {
	pgx.Rows
	scanErr error
	done    bool
}

func (r *failingRows) Next() bool {
	if r.done {
		return false
	}
	r.done = true
	return true
}

func (r *failingRows) Scan(...any) error { return r.scanErr }
func (r *failingRows) Err() error        { return nil }
func (r *failingRows) Close()            {}

type queryRecorder struct {
	row  pgx.Row
	rows pgx.Rows
	sql  []string
	args [][]any
}

func (q *queryRecorder) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (q *queryRecorder) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
	return q.rows, nil
}

func (q *queryRecorder) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql = append(q.sql, sql)
	q.args = append(q.args, args)
	return q.row
}

func TestFindByPeriodBindsPeriodAsInt4(t *testing.T) {
	rec := &queryRecorder{row: stubRow{err: pgx.ErrNoRows}}
	store := NewStore(rec)

	found, err := store.FindByPeriod(context.Background(), uuid.New(), TypeMonthlyDues, 3, 99999, nil)
	require.NoError(t, err)
	require.Nil(t, found)
	require.Contains(t, rec.sql[0], "fiscal_month = $3::int AND fiscal_year = $4::int")

	year := rec.args[0][3]
	_, err = pgtype.NewMap().Encode(pgtype.Int4OID, pgtype.BinaryFormatCode, year, nil)
	require.NoError(t, err)
}

func TestListCastsPeriodFilters(t *testing.T) {
	rec := &queryRecorder{rows: &failingRows{done: true}}
	store := NewStore(rec)

	_, err := store.List(context.Background(), ListFilters{FiscalMonth: 3, FiscalYear: 2024})
	require.NoError(t, err)
	require.Contains(t, rec.sql[0], "d.fiscal_month = $1::int")
	require.Contains(t, rec.sql[0], "d.fiscal_year = $2::int")
}

func TestFindWithPaymentsWrapsScanErrors(t *testing.T) {
	boom := errors.New("column mismatch")
	rec := &queryRecorder{row: stubRow{}, rows: &failingRows{scanErr: boom}}
	store := NewStore(rec)

	_, err := store.FindWithPayments(context.Background(), uuid.New(), false)
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "dues: scan payment")
}
