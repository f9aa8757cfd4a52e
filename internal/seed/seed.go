// Package seed provisions a demo association: one admin, a handful of
// households and the current month's dues for every billable one.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/auth"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
)

// AdminProvisioner creates or refreshes admin accounts.
type AdminProvisioner interface {
	EnsureAdmin(ctx context.Context, email, name, password string) (*auth.Admin, error)
}

// HouseholdRegistrar creates and lists households.
type HouseholdRegistrar interface {
	Create(ctx context.Context, actor uuid.UUID, in households.CreateInput) (households.Household, error)
	List(ctx context.Context, filters households.ListFilters) ([]households.Household, int, error)
}

// DueSubmitter runs due submissions.
type DueSubmitter interface {
	Submit(ctx context.Context, actor uuid.UUID, p dues.Payload, existingID *uuid.UUID) dues.Result
	Location() *time.Location
}

// Options controls the seeded admin and monthly amount.
type Options struct {
	AdminEmail    string
	AdminName     string
	AdminPassword string
	MonthlyAmount decimal.Decimal
	Now           time.Time
	Out           io.Writer
}

// Summary reports what a run created.
type Summary struct {
	AdminID           uuid.UUID
	HouseholdsCreated int
	DuesCreated       int
	DuesSkipped       int
}

// Seeder wires the services used by Run.
type Seeder struct {
	Admins     AdminProvisioner
	Households HouseholdRegistrar
	Dues       DueSubmitter
}

var sampleHouseholds = []households.CreateInput{
	{Block: "1", Lot: "1", Type: "Single Detached", Status: households.StatusActive, Address: "Blk 1 Lot 1 Sampaguita St.", SeniorCitizenCount: 1},
	{Block: "1", Lot: "2", Type: "Single Detached", Status: households.StatusActive, Address: "Blk 1 Lot 2 Sampaguita St."},
	{Block: "2", Lot: "1", Type: "Townhouse", Status: households.StatusActive, Address: "Blk 2 Lot 1 Narra Ave.", PWDCount: 1},
	{Block: "2", Lot: "2", Type: "Townhouse", Status: households.StatusVacant, Address: "Blk 2 Lot 2 Narra Ave."},
	{Block: "3", Lot: "4", Type: "Duplex", Status: households.StatusInactive, Address: "Blk 3 Lot 4 Molave Rd.", SoloParentCount: 1},
}

// Run is idempotent: existing households and dues for the period are skipped.
func (s Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.MonthlyAmount.IsZero() {
		opts.MonthlyAmount = decimal.NewFromInt(500)
	}

	fmt.Fprintln(opts.Out, "→ Seeding admin...")
	admin, err := s.Admins.EnsureAdmin(ctx, opts.AdminEmail, opts.AdminName, opts.AdminPassword)
	if err != nil {
		return sum, fmt.Errorf("seed admin: %w", err)
	}
	sum.AdminID = admin.ID

	fmt.Fprintln(opts.Out, "→ Seeding households...")
	for _, in := range sampleHouseholds {
		_, err := s.Households.Create(ctx, admin.ID, in)
		switch {
		case err == nil:
			sum.HouseholdsCreated++
		case errors.Is(err, households.ErrDuplicate):
		default:
			return sum, fmt.Errorf("seed household %s-%s: %w", in.Block, in.Lot, err)
		}
	}

	fmt.Fprintln(opts.Out, "→ Seeding monthly dues...")
	list, _, err := s.Households.List(ctx, households.ListFilters{Status: households.StatusActive, Page: 1, Limit: 100})
	if err != nil {
		return sum, fmt.Errorf("seed list households: %w", err)
	}
	loc := s.Dues.Location()
	now := opts.Now.In(loc)
	dueDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, -1)
	for _, h := range list {
		res := s.Dues.Submit(ctx, admin.ID, dues.Payload{
			HouseholdID: h.ID,
			Type:        dues.TypeMonthlyDues,
			Amount:      opts.MonthlyAmount,
			DueDate:     dueDate,
			FiscalMonth: int(now.Month()),
			FiscalYear:  now.Year(),
			Status:      dues.StatusUnpaid,
		}, nil)
		switch {
		case res.Success:
			sum.DuesCreated++
		case res.Code == dues.KindDuplicateDue:
			sum.DuesSkipped++
		default:
			return sum, fmt.Errorf("seed due for %s-%s: %s", h.Block, h.Lot, res.Error)
		}
	}

	fmt.Fprintf(opts.Out, "✓ Seed complete at %s\n", opts.Now.Format(time.RFC3339))
	return sum, nil
}
