package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
)

// Store persists ledger entries over a pool or a transaction.
type Store struct {
	db db.Querier
}

// NewStore constructs a ledger store.
func NewStore(q db.Querier) *Store {
	return &Store{db: q}
}

// Append inserts a new entry.
func (s *Store) Append(ctx context.Context, e Entry) (Entry, error) {
	if e.HouseholdID == uuid.Nil || e.ReferenceID == uuid.Nil || !e.ReferenceType.Valid() {
		return Entry{}, ErrInvalidEntry
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, `INSERT INTO ledger_entries
(id, household_id, transaction_date, description, debit, credit, balance, reference_type, reference_id, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.HouseholdID, e.TransactionDate, e.Description, e.Debit, e.Credit, e.Balance,
		string(e.ReferenceType), e.ReferenceID, e.CreatedBy, e.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger: append: %w", err)
	}
	return e, nil
}

// UpdateAllByReference rewrites debit and balance on every entry posted for the reference.
func (s *Store) UpdateAllByReference(ctx context.Context, refType ReferenceType, refID uuid.UUID, amounts Amounts) (int64, error) {
	tag, err := s.db.Exec(ctx, `UPDATE ledger_entries SET debit = $3, balance = $4
WHERE reference_type = $1 AND reference_id = $2`, string(refType), refID, amounts.Debit, amounts.Balance)
	if err != nil {
		return 0, fmt.Errorf("ledger: update by reference: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListByHousehold returns entries oldest first.
func (s *Store) ListByHousehold(ctx context.Context, householdID uuid.UUID, from, to *time.Time) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT id, household_id, transaction_date, description, debit, credit, balance,
reference_type, reference_id, created_by, created_at
FROM ledger_entries
WHERE household_id = $1
  AND ($2::timestamptz IS NULL OR transaction_date >= $2)
  AND ($3::timestamptz IS NULL OR transaction_date < $3)
ORDER BY transaction_date, created_at`, householdID, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e       Entry
			refType string
		)
		if err := rows.Scan(&e.ID, &e.HouseholdID, &e.TransactionDate, &e.Description, &e.Debit, &e.Credit,
			&e.Balance, &refType, &e.ReferenceID, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.ReferenceType = ReferenceType(refType)
		out = append(out, e)
	}
	return out, rows.Err()
}
