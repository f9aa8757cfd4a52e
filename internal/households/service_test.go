package households

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

type memoryRepo struct {
	items map[uuid.UUID]Household
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[uuid.UUID]Household)}
}

func (r *memoryRepo) Create(_ context.Context, h Household) (Household, error) {
	for _, existing := range r.items {
		if existing.Block == h.Block && existing.Lot == h.Lot {
			return Household{}, ErrDuplicate
		}
	}
	r.items[h.ID] = h
	return h, nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (Household, error) {
	h, ok := r.items[id]
	if !ok {
		return Household{}, ErrNotFound
	}
	return h, nil
}

func (r *memoryRepo) List(_ context.Context, filters ListFilters) ([]Household, int, error) {
	var out []Household
	for _, h := range r.items {
		if filters.Status != "" && h.Status != filters.Status {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Block+out[i].Lot < out[j].Block+out[j].Lot })
	return out, len(out), nil
}

func (r *memoryRepo) UpdateStatus(_ context.Context, id uuid.UUID, status Status, at time.Time) error {
	h, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	h.Status = status
	h.UpdatedAt = at
	r.items[id] = h
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService() (*Service, *memoryRepo, *recordingAudit) {
	repo := newMemoryRepo()
	audit := &recordingAudit{}
	svc := NewService(repo, audit, nil)
	svc.WithNow(func() time.Time { return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC) })
	return svc, repo, audit
}

func validInput() CreateInput {
	return CreateInput{
		Block:   "5",
		Lot:     "12",
		Type:    "Single Detached",
		Status:  StatusActive,
		Address: "Blk 5 Lot 12 Mabini St.",
	}
}

func TestCreateHousehold(t *testing.T) {
	svc, repo, audit := newTestService()
	actor := uuid.New()

	created, err := svc.Create(context.Background(), actor, validInput())
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.True(t, created.Billable())
	require.Len(t, repo.items, 1)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "household.create", audit.logs[0].Action)
	require.Equal(t, actor, audit.logs[0].ActorID)
}

func TestCreateHouseholdValidation(t *testing.T) {
	svc, repo, _ := newTestService()

	in := validInput()
	in.Address = "abc"
	in.Status = "Demolished"
	in.PWDCount = -1

	_, err := svc.Create(context.Background(), uuid.New(), in)
	require.ErrorIs(t, err, ErrInvalid)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "address")
	require.Contains(t, verr.Fields, "status")
	require.Contains(t, verr.Fields, "pwdCount")
	require.Empty(t, repo.items)
}

func TestCreateHouseholdDuplicateBlockLot(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Create(context.Background(), uuid.New(), validInput())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), uuid.New(), validInput())
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestChangeStatus(t *testing.T) {
	svc, repo, audit := newTestService()
	created, err := svc.Create(context.Background(), uuid.New(), validInput())
	require.NoError(t, err)

	updated, err := svc.ChangeStatus(context.Background(), uuid.New(), created.ID, StatusInput{Status: StatusVacant})
	require.NoError(t, err)
	require.Equal(t, StatusVacant, updated.Status)
	require.False(t, updated.Billable())
	require.Equal(t, StatusVacant, repo.items[created.ID].Status)
	require.Len(t, audit.logs, 2)

	_, err = svc.ChangeStatus(context.Background(), uuid.New(), uuid.New(), StatusInput{Status: StatusActive})
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.ChangeStatus(context.Background(), uuid.New(), created.ID, StatusInput{Status: "Gone"})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _, _ := newTestService()
	_, _, err := svc.List(context.Background(), ListFilters{Status: "Haunted"})
	require.ErrorIs(t, err, ErrInvalid)
}
