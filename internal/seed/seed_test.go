package seed

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/auth"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
)

type stubAdmins struct{ id uuid.UUID }

func (s stubAdmins) EnsureAdmin(_ context.Context, email, name, _ string) (*auth.Admin, error) {
	return &auth.Admin{ID: s.id, Email: email, Name: name, IsActive: true}, nil
}

type stubHouseholds struct {
	created map[string]households.Household
}

func (s *stubHouseholds) Create(_ context.Context, _ uuid.UUID, in households.CreateInput) (households.Household, error) {
	key := in.Block + "-" + in.Lot
	if _, ok := s.created[key]; ok {
		return households.Household{}, households.ErrDuplicate
	}
	h := households.Household{ID: uuid.New(), Block: in.Block, Lot: in.Lot, Status: in.Status}
	s.created[key] = h
	return h, nil
}

func (s *stubHouseholds) List(_ context.Context, f households.ListFilters) ([]households.Household, int, error) {
	var out []households.Household
	for _, h := range s.created {
		if f.Status == "" || h.Status == f.Status {
			out = append(out, h)
		}
	}
	return out, len(out), nil
}

type stubDues struct {
	seen     map[uuid.UUID]bool
	payloads []dues.Payload
}

func (s *stubDues) Submit(_ context.Context, _ uuid.UUID, p dues.Payload, _ *uuid.UUID) dues.Result {
	s.payloads = append(s.payloads, p)
	if s.seen[p.HouseholdID] {
		return dues.Result{Success: false, Code: dues.KindDuplicateDue}
	}
	s.seen[p.HouseholdID] = true
	return dues.Result{Success: true}
}

func (s *stubDues) Location() *time.Location { return time.UTC }

func TestSeederRunIsIdempotent(t *testing.T) {
	hh := &stubHouseholds{created: map[string]households.Household{}}
	dd := &stubDues{seen: map[uuid.UUID]bool{}}
	seeder := Seeder{Admins: stubAdmins{id: uuid.New()}, Households: hh, Dues: dd}
	opts := Options{
		AdminEmail:    "admin@hoa.local",
		AdminName:     "Admin",
		AdminPassword: "changeme123",
		Now:           time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC),
		Out:           &bytes.Buffer{},
	}

	first, err := seeder.Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, len(sampleHouseholds), first.HouseholdsCreated)
	require.Equal(t, 3, first.DuesCreated)

	p := dd.payloads[0]
	require.Equal(t, dues.TypeMonthlyDues, p.Type)
	require.Equal(t, "500", p.Amount.String())
	require.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), p.DueDate)
	require.Equal(t, 2, p.FiscalMonth)
	require.Equal(t, 2024, p.FiscalYear)

	second, err := seeder.Run(context.Background(), opts)
	require.NoError(t, err)
	require.Zero(t, second.HouseholdsCreated)
	require.Zero(t, second.DuesCreated)
	require.Equal(t, 3, second.DuesSkipped)
}
