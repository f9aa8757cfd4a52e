package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/ledger"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
)

// Repository opens payment transactions.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository is the transactional view used when recording a payment.
type TxRepository interface {
	LockDue(ctx context.Context, id uuid.UUID) (dues.Due, error)
	InsertPayment(ctx context.Context, p dues.Payment) (dues.Payment, error)
	SetDueStatus(ctx context.Context, id uuid.UUID, status dues.DueStatus, at time.Time) error
	AppendLedger(ctx context.Context, e ledger.Entry) (ledger.Entry, error)
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
		return fn(ctx, &txRepository{tx: tx, dues: dues.NewStore(tx), ledger: ledger.NewStore(tx)})
	})
}

type txRepository struct {
	tx     pgx.Tx
	dues   *dues.Store
	ledger *ledger.Store
}

func (r *txRepository) LockDue(ctx context.Context, id uuid.UUID) (dues.Due, error) {
	return r.dues.FindWithPayments(ctx, id, true)
}

func (r *txRepository) InsertPayment(ctx context.Context, p dues.Payment) (dues.Payment, error) {
	_, err := r.tx.Exec(ctx, `INSERT INTO payments (id, due_id, amount, payment_date, payment_method, reference_no, received_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.DueID, p.Amount, p.PaymentDate, p.PaymentMethod, p.ReferenceNo, p.ReceivedBy, p.CreatedAt)
	if err != nil {
		return dues.Payment{}, fmt.Errorf("payments: insert: %w", err)
	}
	return p, nil
}

func (r *txRepository) SetDueStatus(ctx context.Context, id uuid.UUID, status dues.DueStatus, at time.Time) error {
	return r.dues.SetStatus(ctx, id, status, at)
}

func (r *txRepository) AppendLedger(ctx context.Context, e ledger.Entry) (ledger.Entry, error) {
	return r.ledger.Append(ctx, e)
}
