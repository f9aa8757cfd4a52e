package dues

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DueType enumerates the kinds of billable charges.
type DueType string

const (
	TypeMonthlyDues       DueType = "MONTHLY_DUES"
	TypeWaterBill         DueType = "WATER_BILL"
	TypeElectricity       DueType = "ELECTRICITY"
	TypeSpecialAssessment DueType = "SPECIAL_ASSESSMENT"
	TypeArrearages        DueType = "ARREARAGES"
	TypePenalty           DueType = "PENALTY"
)

// DueTypes lists every known due type in display order.
var DueTypes = []DueType{
	TypeMonthlyDues,
	TypeWaterBill,
	TypeElectricity,
	TypeSpecialAssessment,
	TypeArrearages,
	TypePenalty,
}

// Valid reports whether t is a known due type.
func (t DueType) Valid() bool {
	switch t {
	case TypeMonthlyDues, TypeWaterBill, TypeElectricity, TypeSpecialAssessment, TypeArrearages, TypePenalty:
		return true
	}
	return false
}

// MinimumAmount is the smallest amount accepted for the type.
func (t DueType) MinimumAmount() decimal.Decimal {
	switch t {
	case TypeMonthlyDues:
		return decimal.NewFromInt(100)
	case TypeWaterBill, TypeElectricity:
		return decimal.NewFromInt(50)
	case TypeSpecialAssessment, TypeArrearages, TypePenalty:
		return decimal.NewFromInt(1)
	default:
		return decimal.NewFromInt(1)
	}
}

// AllowsBackdating reports whether a due of this type may fall before today.
func (t DueType) AllowsBackdating() bool {
	switch t {
	case TypeArrearages, TypePenalty:
		return true
	case TypeMonthlyDues, TypeWaterBill, TypeElectricity, TypeSpecialAssessment:
		return false
	default:
		return false
	}
}

// phrase renders the type for inline messages, e.g. "monthly dues".
func (t DueType) phrase() string {
	return strings.Replace(strings.ToLower(string(t)), "_", " ", 1)
}

// Label renders the type for display, e.g. "Monthly Dues".
func (t DueType) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(strings.ToLower(string(t)), "_", " "))
}

// DueStatus enumerates the payment state of a due.
type DueStatus string

const (
	StatusUnpaid  DueStatus = "UNPAID"
	StatusPartial DueStatus = "PARTIAL"
	StatusPaid    DueStatus = "PAID"
	StatusOverdue DueStatus = "OVERDUE"
	StatusWaived  DueStatus = "WAIVED"
)

// Valid reports whether s is a known status.
func (s DueStatus) Valid() bool {
	switch s {
	case StatusUnpaid, StatusPartial, StatusPaid, StatusOverdue, StatusWaived:
		return true
	}
	return false
}

// AcceptsPayment reports whether payments may still be recorded.
func (s DueStatus) AcceptsPayment() bool {
	switch s {
	case StatusUnpaid, StatusPartial, StatusOverdue:
		return true
	case StatusPaid, StatusWaived:
		return false
	default:
		return false
	}
}

// Payment is money received against a due. Payments are immutable.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	DueID         uuid.UUID       `json:"dueId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"paymentDate"`
	PaymentMethod string          `json:"paymentMethod"`
	ReferenceNo   *string         `json:"referenceNo,omitempty"`
	ReceivedBy    *string         `json:"receivedBy,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Due is a billable charge against a household for one fiscal period.
type Due struct {
	ID              uuid.UUID        `json:"id"`
	HouseholdID     uuid.UUID        `json:"householdId"`
	Type            DueType          `json:"type"`
	Amount          decimal.Decimal  `json:"amount"`
	DueDate         time.Time        `json:"dueDate"`
	FiscalMonth     int              `json:"fiscalMonth"`
	FiscalYear      int              `json:"fiscalYear"`
	Status          DueStatus        `json:"status"`
	LateFee         decimal.Decimal  `json:"lateFee"`
	Description     *string          `json:"description,omitempty"`
	MeterReading    *decimal.Decimal `json:"meterReading"`
	PreviousReading *decimal.Decimal `json:"previousReading"`
	AmountPaid      decimal.Decimal  `json:"amountPaid"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	Payments        []Payment        `json:"payments,omitempty"`
}

// TotalPaid sums the loaded payments, falling back to the aggregated amount.
func (d Due) TotalPaid() decimal.Decimal {
	if len(d.Payments) == 0 {
		return d.AmountPaid
	}
	total := decimal.Zero
	for _, p := range d.Payments {
		total = total.Add(p.Amount)
	}
	return total
}

// Outstanding is the unpaid portion of the due amount.
func (d Due) Outstanding() decimal.Decimal {
	return d.Amount.Sub(d.TotalPaid())
}

// Payload is a full create or replace request for a due.
type Payload struct {
	HouseholdID     uuid.UUID
	Type            DueType
	Amount          decimal.Decimal
	DueDate         time.Time
	FiscalMonth     int
	FiscalYear      int
	Description     *string
	Status          DueStatus
	LateFee         decimal.Decimal
	MeterReading    *decimal.Decimal
	PreviousReading *decimal.Decimal
}

// apply copies the payload onto d. Meter readings are kept for water bills only.
func (p Payload) apply(d *Due) {
	d.HouseholdID = p.HouseholdID
	d.Type = p.Type
	d.Amount = p.Amount
	d.DueDate = p.DueDate
	d.FiscalMonth = p.FiscalMonth
	d.FiscalYear = p.FiscalYear
	d.Description = p.Description
	d.Status = p.Status
	d.LateFee = p.LateFee
	d.MeterReading = nil
	d.PreviousReading = nil
	if p.Type == TypeWaterBill {
		d.MeterReading = p.MeterReading
		d.PreviousReading = p.PreviousReading
	}
}

// ListFilters narrows the dues listing.
type ListFilters struct {
	Status      DueStatus
	Type        DueType
	HouseholdID *uuid.UUID
	FiscalMonth int
	FiscalYear  int
}

// Totals summarise a listing.
type Totals struct {
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`
	TotalUnpaid  decimal.Decimal `json:"totalUnpaid"`
	OverdueCount int             `json:"overdueCount"`
}

// Listing is a filtered set of dues with totals.
type Listing struct {
	Dues   []Due  `json:"dues"`
	Totals Totals `json:"totals"`
}

// Summarise computes listing totals. Late fees count towards the amount owed.
func Summarise(items []Due) Totals {
	var t Totals
	for _, d := range items {
		t.TotalAmount = t.TotalAmount.Add(d.Amount).Add(d.LateFee)
		t.TotalPaid = t.TotalPaid.Add(d.TotalPaid())
		if d.Status == StatusOverdue {
			t.OverdueCount++
		}
	}
	t.TotalUnpaid = t.TotalAmount.Sub(t.TotalPaid)
	return t
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
