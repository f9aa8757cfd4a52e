package households

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
)

// Repository persists households.
type Repository interface {
	Create(ctx context.Context, h Household) (Household, error)
	Get(ctx context.Context, id uuid.UUID) (Household, error)
	List(ctx context.Context, filters ListFilters) ([]Household, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error
}

// Store implements Repository over a pool or a transaction.
type Store struct {
	db db.Querier
}

// NewStore constructs a household store.
func NewStore(q db.Querier) *Store {
	return &Store{db: q}
}

const householdColumns = `id, block, lot, type, status, address, senior_citizen_count, pwd_count, solo_parent_count, created_at, updated_at`

// Create inserts the household.
func (s *Store) Create(ctx context.Context, h Household) (Household, error) {
	_, err := s.db.Exec(ctx, `INSERT INTO households (`+householdColumns+`)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		h.ID, h.Block, h.Lot, h.Type, string(h.Status), h.Address,
		h.SeniorCitizenCount, h.PWDCount, h.SoloParentCount, h.CreatedAt, h.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err, "uq_households_block_lot") {
			return Household{}, ErrDuplicate
		}
		return Household{}, fmt.Errorf("households: insert: %w", err)
	}
	return h, nil
}

// Get loads a household by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Household, error) {
	row := s.db.QueryRow(ctx, `SELECT `+householdColumns+` FROM households WHERE id = $1`, id)
	h, err := scanHousehold(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Household{}, ErrNotFound
	}
	if err != nil {
		return Household{}, fmt.Errorf("households: get: %w", err)
	}
	return h, nil
}

// List returns a filtered page of households and the total match count.
func (s *Store) List(ctx context.Context, filters ListFilters) ([]Household, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filters.Status != "" {
		args = append(args, string(filters.Status))
		where += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (block ILIKE $` + n + ` OR lot ILIKE $` + n + ` OR address ILIKE $` + n + `)`
	}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM households`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("households: count: %w", err)
	}

	query := `SELECT ` + householdColumns + ` FROM households` + where + ` ORDER BY block, lot`
	if filters.Limit > 0 {
		page := filters.Page
		if page < 1 {
			page = 1
		}
		args = append(args, filters.Limit, (page-1)*filters.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("households: list: %w", err)
	}
	defer rows.Close()

	var out []Household
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, h)
	}
	return out, total, rows.Err()
}

// UpdateStatus changes the household status.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE households SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		return fmt.Errorf("households: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanHousehold(row pgx.Row) (Household, error) {
	var (
		h      Household
		status string
	)
	if err := row.Scan(&h.ID, &h.Block, &h.Lot, &h.Type, &status, &h.Address,
		&h.SeniorCitizenCount, &h.PWDCount, &h.SoloParentCount, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return Household{}, err
	}
	h.Status = Status(status)
	return h, nil
}
