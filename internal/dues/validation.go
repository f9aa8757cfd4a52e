package dues

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
)

const (
	minFiscalYear = 2000
	maxFiscalYear = 2100
)

// checkShape rejects payloads that can never be valid regardless of stored state.
func checkShape(p Payload) error {
	switch {
	case !p.Type.Valid():
		return invalid(KindInvalidPayload, fmt.Sprintf("Unknown due type %q", p.Type), "type")
	case !p.Status.Valid():
		return invalid(KindInvalidPayload, fmt.Sprintf("Unknown due status %q", p.Status), "status")
	case p.DueDate.IsZero():
		return invalid(KindInvalidPayload, "Due date is required", "dueDate")
	case p.LateFee.IsNegative():
		return invalid(KindInvalidPayload, "Late fee cannot be negative", "lateFee")
	case !wholeCents(p.Amount):
		return invalid(KindInvalidPayload, "Amount cannot have more than 2 decimal places", "amount")
	case !wholeCents(p.LateFee):
		return invalid(KindInvalidPayload, "Late fee cannot have more than 2 decimal places", "lateFee")
	case p.MeterReading != nil && !wholeCents(*p.MeterReading),
		p.PreviousReading != nil && !wholeCents(*p.PreviousReading):
		return invalid(KindInvalidPayload, "Meter readings cannot have more than 2 decimal places", "meterReading", "previousReading")
	}
	return nil
}

// wholeCents reports whether d is representable in a NUMERIC(14,2) column unchanged.
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// chain runs the ordered checks against a payload. existing is nil on create.
type chain struct {
	tx       TxRepository
	today    time.Time
	loc      *time.Location
	existing *Due
}

func (c chain) run(ctx context.Context, p Payload) error {
	if err := c.household(ctx, p.HouseholdID); err != nil {
		return err
	}
	if err := checkWaterBill(p); err != nil {
		return err
	}
	if err := c.duplicate(ctx, p); err != nil {
		return err
	}
	if err := checkFiscalPeriod(p.FiscalMonth, p.FiscalYear); err != nil {
		return err
	}
	if err := checkAmount(p); err != nil {
		return err
	}
	if c.existing == nil || !StartOfDay(c.existing.DueDate, c.loc).Equal(StartOfDay(p.DueDate, c.loc)) {
		if err := checkDueDate(p, c.today, c.loc); err != nil {
			return err
		}
	}
	if c.existing != nil {
		return checkPaymentLock(*c.existing, p)
	}
	return nil
}

func (c chain) household(ctx context.Context, id uuid.UUID) error {
	h, err := c.tx.HouseholdByID(ctx, id)
	if errors.Is(err, households.ErrNotFound) {
		return invalid(KindHouseholdInvalid, "Household does not exist", "householdId")
	}
	if err != nil {
		return err
	}
	if !h.Billable() {
		return invalid(KindHouseholdInvalid, "Household is not active", "householdId")
	}
	return nil
}

func checkWaterBill(p Payload) error {
	if p.Type != TypeWaterBill {
		return nil
	}
	if p.MeterReading == nil || p.PreviousReading == nil {
		return invalid(KindWaterBillFieldsInvalid, "Meter readings are required for water bills", "meterReading", "previousReading")
	}
	if p.MeterReading.IsNegative() || p.PreviousReading.IsNegative() {
		return invalid(KindWaterBillFieldsInvalid, "Meter readings cannot be negative", "meterReading", "previousReading")
	}
	if p.MeterReading.LessThan(*p.PreviousReading) {
		return invalid(KindWaterBillFieldsInvalid, "Current reading cannot be less than previous reading", "meterReading")
	}
	return nil
}

func (c chain) duplicate(ctx context.Context, p Payload) error {
	var exclude *uuid.UUID
	if c.existing != nil {
		exclude = &c.existing.ID
	}
	found, err := c.tx.FindDueByPeriod(ctx, p.HouseholdID, p.Type, p.FiscalMonth, p.FiscalYear, exclude)
	if err != nil {
		return err
	}
	if found != nil {
		return duplicateError(p.Type)
	}
	return nil
}

func duplicateError(t DueType) *ValidationError {
	return invalid(KindDuplicateDue,
		fmt.Sprintf("A %s already exists for this household and fiscal period", t.phrase()),
		"type", "fiscalMonth", "fiscalYear")
}

func checkFiscalPeriod(month, year int) error {
	if month < 1 || month > 12 {
		return invalid(KindFiscalPeriodInvalid, "Fiscal month must be between 1 and 12", "fiscalMonth")
	}
	if year < minFiscalYear || year > maxFiscalYear {
		return invalid(KindFiscalPeriodInvalid, fmt.Sprintf("Fiscal year must be between %d and %d", minFiscalYear, maxFiscalYear), "fiscalYear")
	}
	return nil
}

func checkAmount(p Payload) error {
	if !p.Amount.IsPositive() {
		return invalid(KindAmountTooLow, "Amount must be greater than 0", "amount")
	}
	minimum := p.Type.MinimumAmount()
	if p.Amount.LessThan(minimum) {
		return invalid(KindAmountTooLow, fmt.Sprintf("Amount for %s must be at least %s", p.Type.phrase(), minimum.String()), "amount")
	}
	return nil
}

func checkDueDate(p Payload, today time.Time, loc *time.Location) error {
	if p.Type.AllowsBackdating() {
		return nil
	}
	if StartOfDay(p.DueDate, loc).Before(today) {
		return invalid(KindDueDateInPast, "Due date cannot be in the past for this due type", "dueDate")
	}
	return nil
}

func checkPaymentLock(existing Due, p Payload) error {
	if len(existing.Payments) == 0 {
		return nil
	}
	var changed []string
	if !existing.Amount.Equal(p.Amount) {
		changed = append(changed, "amount")
	}
	if existing.Type != p.Type {
		changed = append(changed, "type")
	}
	if existing.FiscalMonth != p.FiscalMonth {
		changed = append(changed, "fiscalMonth")
	}
	if existing.FiscalYear != p.FiscalYear {
		changed = append(changed, "fiscalYear")
	}
	if len(changed) == 0 {
		return nil
	}
	return invalid(KindProtectedFieldsLocked,
		fmt.Sprintf("Cannot modify %s after payments have been made", joinFields(changed)),
		changed...)
}
