package dues

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/ledger"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
)

const periodConstraint = "uq_dues_period"

const dueColumns = `id, household_id, type, amount, due_date, fiscal_month, fiscal_year, status, late_fee,
description, meter_reading, previous_reading, created_at, updated_at`

// Store reads and writes dues over a pool or a transaction.
type Store struct {
	db db.Querier
}

// NewStore constructs a due store.
func NewStore(q db.Querier) *Store {
	return &Store{db: q}
}

// FindWithPayments loads a due and its payments. When lock is set the due row
// is locked for the rest of the transaction.
func (s *Store) FindWithPayments(ctx context.Context, id uuid.UUID, lock bool) (Due, error) {
	query := `SELECT ` + dueColumns + ` FROM dues WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	d, err := scanDue(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Due{}, ErrDueNotFound
	}
	if err != nil {
		return Due{}, fmt.Errorf("dues: find: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT id, due_id, amount, payment_date, payment_method, reference_no, received_by, created_at
FROM payments WHERE due_id = $1 ORDER BY payment_date, created_at`, id)
	if err != nil {
		return Due{}, fmt.Errorf("dues: payments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.DueID, &p.Amount, &p.PaymentDate, &p.PaymentMethod, &p.ReferenceNo, &p.ReceivedBy, &p.CreatedAt); err != nil {
			return Due{}, fmt.Errorf("dues: scan payment: %w", err)
		}
		d.Payments = append(d.Payments, p)
	}
	if err := rows.Err(); err != nil {
		return Due{}, fmt.Errorf("dues: payments: %w", err)
	}
	d.AmountPaid = d.TotalPaid()
	return d, nil
}

// FindByPeriod returns the due occupying the (household, type, period) slot, if any.
// The period is bound as int4 so out-of-range years reach the fiscal period check.
func (s *Store) FindByPeriod(ctx context.Context, householdID uuid.UUID, t DueType, month, year int, excludeID *uuid.UUID) (*Due, error) {
	d, err := scanDue(s.db.QueryRow(ctx, `SELECT `+dueColumns+` FROM dues
WHERE household_id = $1 AND type = $2 AND fiscal_month = $3::int AND fiscal_year = $4::int
  AND ($5::uuid IS NULL OR id <> $5)
LIMIT 1`, householdID, string(t), month, year, excludeID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dues: find by period: %w", err)
	}
	return &d, nil
}

// Insert writes a new due.
func (s *Store) Insert(ctx context.Context, d Due) (Due, error) {
	_, err := s.db.Exec(ctx, `INSERT INTO dues (`+dueColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		d.ID, d.HouseholdID, string(d.Type), d.Amount, d.DueDate, d.FiscalMonth, d.FiscalYear,
		string(d.Status), d.LateFee, d.Description, nullDecimal(d.MeterReading), nullDecimal(d.PreviousReading),
		d.CreatedAt, d.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, periodConstraint) {
			return Due{}, duplicateError(d.Type)
		}
		return Due{}, fmt.Errorf("dues: insert: %w", err)
	}
	return d, nil
}

// Update replaces every mutable column of the due.
func (s *Store) Update(ctx context.Context, d Due) (Due, error) {
	tag, err := s.db.Exec(ctx, `UPDATE dues SET household_id = $2, type = $3, amount = $4, due_date = $5,
fiscal_month = $6, fiscal_year = $7, status = $8, late_fee = $9, description = $10,
meter_reading = $11, previous_reading = $12, updated_at = $13
WHERE id = $1`,
		d.ID, d.HouseholdID, string(d.Type), d.Amount, d.DueDate, d.FiscalMonth, d.FiscalYear,
		string(d.Status), d.LateFee, d.Description, nullDecimal(d.MeterReading), nullDecimal(d.PreviousReading),
		d.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, periodConstraint) {
			return Due{}, duplicateError(d.Type)
		}
		return Due{}, fmt.Errorf("dues: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Due{}, ErrDueNotFound
	}
	return d, nil
}

// SetStatus changes only the status of a due.
func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, status DueStatus, at time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE dues SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return fmt.Errorf("dues: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDueNotFound
	}
	return nil
}

// List returns dues newest first with their paid totals.
func (s *Store) List(ctx context.Context, filters ListFilters) ([]Due, error) {
	query := `SELECT ` + prefixed("d.") + `, COALESCE(p.paid, 0)
FROM dues d
LEFT JOIN (SELECT due_id, SUM(amount) AS paid FROM payments GROUP BY due_id) p ON p.due_id = d.id
WHERE 1=1`
	args := []any{}
	if filters.Status != "" {
		args = append(args, string(filters.Status))
		query += ` AND d.status = $` + strconv.Itoa(len(args))
	}
	if filters.Type != "" {
		args = append(args, string(filters.Type))
		query += ` AND d.type = $` + strconv.Itoa(len(args))
	}
	if filters.HouseholdID != nil {
		args = append(args, *filters.HouseholdID)
		query += ` AND d.household_id = $` + strconv.Itoa(len(args))
	}
	if filters.FiscalMonth > 0 {
		args = append(args, filters.FiscalMonth)
		query += ` AND d.fiscal_month = $` + strconv.Itoa(len(args)) + `::int`
	}
	if filters.FiscalYear > 0 {
		args = append(args, filters.FiscalYear)
		query += ` AND d.fiscal_year = $` + strconv.Itoa(len(args)) + `::int`
	}
	query += ` ORDER BY d.created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dues: list: %w", err)
	}
	defer rows.Close()

	var out []Due
	for rows.Next() {
		var paid decimal.Decimal
		d, err := scanDue(rows, &paid)
		if err != nil {
			return nil, err
		}
		d.AmountPaid = paid
		out = append(out, d)
	}
	return out, rows.Err()
}

// MarkOverdue flips unpaid and partially paid dues falling before the cutoff to OVERDUE.
func (s *Store) MarkOverdue(ctx context.Context, before, at time.Time) ([]Due, error) {
	rows, err := s.db.Query(ctx, `UPDATE dues SET status = 'OVERDUE', updated_at = $2
WHERE status IN ('UNPAID', 'PARTIAL') AND due_date < $1
RETURNING `+dueColumns+`, COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.due_id = dues.id), 0)`, before, at)
	if err != nil {
		return nil, fmt.Errorf("dues: mark overdue: %w", err)
	}
	defer rows.Close()

	var out []Due
	for rows.Next() {
		var paid decimal.Decimal
		d, err := scanDue(rows, &paid)
		if err != nil {
			return nil, err
		}
		d.AmountPaid = paid
		out = append(out, d)
	}
	return out, rows.Err()
}

func prefixed(alias string) string {
	return alias + `id, ` + alias + `household_id, ` + alias + `type, ` + alias + `amount, ` + alias + `due_date, ` +
		alias + `fiscal_month, ` + alias + `fiscal_year, ` + alias + `status, ` + alias + `late_fee, ` +
		alias + `description, ` + alias + `meter_reading, ` + alias + `previous_reading, ` +
		alias + `created_at, ` + alias + `updated_at`
}

func scanDue(row pgx.Row, extra ...any) (Due, error) {
	var (
		d               Due
		dueType, status string
		meter, previous decimal.NullDecimal
	)
	dest := []any{&d.ID, &d.HouseholdID, &dueType, &d.Amount, &d.DueDate, &d.FiscalMonth, &d.FiscalYear,
		&status, &d.LateFee, &d.Description, &meter, &previous, &d.CreatedAt, &d.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return Due{}, err
	}
	d.Type = DueType(dueType)
	d.Status = DueStatus(status)
	if meter.Valid {
		d.MeterReading = &meter.Decimal
	}
	if previous.Valid {
		d.PreviousReading = &previous.Decimal
	}
	return d, nil
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// WithTx runs fn inside a RepeatableRead transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, newTxRepository(tx))
	})
}

// Get loads a due with its payments.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (Due, error) {
	return NewStore(r.pool).FindWithPayments(ctx, id, false)
}

// List returns the filtered dues.
func (r *PGRepository) List(ctx context.Context, filters ListFilters) ([]Due, error) {
	return NewStore(r.pool).List(ctx, filters)
}

// MarkOverdue flips past-due dues to OVERDUE.
func (r *PGRepository) MarkOverdue(ctx context.Context, before, at time.Time) ([]Due, error) {
	return NewStore(r.pool).MarkOverdue(ctx, before, at)
}

type txRepository struct {
	dues       *Store
	households *households.Store
	ledger     *ledger.Store
}

func newTxRepository(tx pgx.Tx) *txRepository {
	return &txRepository{
		dues:       NewStore(tx),
		households: households.NewStore(tx),
		ledger:     ledger.NewStore(tx),
	}
}

func (r *txRepository) HouseholdByID(ctx context.Context, id uuid.UUID) (households.Household, error) {
	return r.households.Get(ctx, id)
}

func (r *txRepository) FindDue(ctx context.Context, id uuid.UUID) (Due, error) {
	return r.dues.FindWithPayments(ctx, id, true)
}

func (r *txRepository) FindDueByPeriod(ctx context.Context, householdID uuid.UUID, t DueType, month, year int, excludeID *uuid.UUID) (*Due, error) {
	return r.dues.FindByPeriod(ctx, householdID, t, month, year, excludeID)
}

func (r *txRepository) CreateDue(ctx context.Context, d Due) (Due, error) {
	return r.dues.Insert(ctx, d)
}

func (r *txRepository) UpdateDue(ctx context.Context, d Due) (Due, error) {
	return r.dues.Update(ctx, d)
}

func (r *txRepository) AppendLedger(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	return r.ledger.Append(ctx, e)
}

func (r *txRepository) UpdateLedgerByReference(ctx context.Context, refType ledger.ReferenceType, refID uuid.UUID, amounts ledger.Amounts) (int64, error) {
	return r.ledger.UpdateAllByReference(ctx, refType, refID, amounts)
}
