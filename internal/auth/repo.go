package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	UpsertAdmin(ctx context.Context, admin Admin) (*Admin, error)
	CreateSession(ctx context.Context, id string, adminID uuid.UUID, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.Querier
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(q db.Querier) *PGRepository {
	return &PGRepository{db: q}
}

const adminColumns = `id, email, name, password_hash, is_active, created_at, updated_at`

// FindByEmail fetches an admin by email, case-insensitively.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	return r.findOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE lower(email) = $1`, strings.ToLower(email))
}

// FindByID fetches an admin by id.
func (r *PGRepository) FindByID(ctx context.Context, id uuid.UUID) (*Admin, error) {
	return r.findOne(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
}

func (r *PGRepository) findOne(ctx context.Context, query string, arg any) (*Admin, error) {
	var a Admin
	err := r.db.QueryRow(ctx, query, arg).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: find admin: %w", err)
	}
	return &a, nil
}

// UpsertAdmin inserts the admin or refreshes name, hash and activity by email.
func (r *PGRepository) UpsertAdmin(ctx context.Context, admin Admin) (*Admin, error) {
	var out Admin
	err := r.db.QueryRow(ctx, `INSERT INTO admins (`+adminColumns+`)
VALUES ($1, lower($2), $3, $4, $5, $6, $6)
ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash,
  is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at
RETURNING `+adminColumns,
		admin.ID, admin.Email, admin.Name, admin.PasswordHash, admin.IsActive, admin.CreatedAt,
	).Scan(&out.ID, &out.Email, &out.Name, &out.PasswordHash, &out.IsActive, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("auth: upsert admin: %w", err)
	}
	return &out, nil
}

// CreateSession persists a login session for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, adminID uuid.UUID, expiresAt time.Time, ip, ua string) error {
	_, err := r.db.Exec(ctx, `INSERT INTO admin_sessions (id, admin_id, created_at, expires_at, ip, user_agent)
VALUES ($1, $2, NOW(), $3, NULLIF($4, ''), NULLIF($5, ''))`, id, adminID, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM admin_sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
