package dues

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/ledger"
)

// Repository exposes due persistence to the service.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id uuid.UUID) (Due, error)
	List(ctx context.Context, filters ListFilters) ([]Due, error)
	MarkOverdue(ctx context.Context, before, at time.Time) ([]Due, error)
}

// TxRepository is the transactional view used by create and update.
type TxRepository interface {
	HouseholdByID(ctx context.Context, id uuid.UUID) (households.Household, error)
	FindDue(ctx context.Context, id uuid.UUID) (Due, error)
	FindDueByPeriod(ctx context.Context, householdID uuid.UUID, t DueType, month, year int, excludeID *uuid.UUID) (*Due, error)
	CreateDue(ctx context.Context, d Due) (Due, error)
	UpdateDue(ctx context.Context, d Due) (Due, error)
	AppendLedger(ctx context.Context, e ledger.Entry) (ledger.Entry, error)
	UpdateLedgerByReference(ctx context.Context, refType ledger.ReferenceType, refID uuid.UUID, amounts ledger.Amounts) (int64, error)
}
