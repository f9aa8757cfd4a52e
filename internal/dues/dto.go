package dues

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DueForm is the JSON body accepted by the create and update endpoints.
type DueForm struct {
	HouseholdID     string           `json:"householdId" validate:"required,uuid"`
	Type            string           `json:"type" validate:"required,oneof=MONTHLY_DUES WATER_BILL ELECTRICITY SPECIAL_ASSESSMENT ARREARAGES PENALTY"`
	Amount          decimal.Decimal  `json:"amount"`
	DueDate         string           `json:"dueDate" validate:"required"`
	FiscalMonth     int              `json:"fiscalMonth"`
	FiscalYear      int              `json:"fiscalYear"`
	Description     *string          `json:"description"`
	Status          string           `json:"status" validate:"required,oneof=UNPAID PARTIAL PAID OVERDUE WAIVED"`
	LateFee         decimal.Decimal  `json:"lateFee"`
	MeterReading    *decimal.Decimal `json:"meterReading"`
	PreviousReading *decimal.Decimal `json:"previousReading"`
}

var dueDateLayouts = []string{"2006-01-02", time.RFC3339}

// Payload converts the form. Date-only values are read in loc.
func (f DueForm) Payload(loc *time.Location) (Payload, error) {
	householdID, err := uuid.Parse(f.HouseholdID)
	if err != nil {
		return Payload{}, invalid(KindInvalidPayload, "Household is required", "householdId")
	}
	dueDate, err := parseDueDate(f.DueDate, loc)
	if err != nil {
		return Payload{}, invalid(KindInvalidPayload, fmt.Sprintf("Invalid due date %q", f.DueDate), "dueDate")
	}
	return Payload{
		HouseholdID:     householdID,
		Type:            DueType(f.Type),
		Amount:          f.Amount,
		DueDate:         dueDate,
		FiscalMonth:     f.FiscalMonth,
		FiscalYear:      f.FiscalYear,
		Description:     f.Description,
		Status:          DueStatus(f.Status),
		LateFee:         f.LateFee,
		MeterReading:    f.MeterReading,
		PreviousReading: f.PreviousReading,
	}, nil
}

func parseDueDate(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	var lastErr error
	for _, layout := range dueDateLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
