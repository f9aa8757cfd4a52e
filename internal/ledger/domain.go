package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReferenceType names the document a ledger entry was posted for.
type ReferenceType string

const (
	ReferenceDue     ReferenceType = "DUE"
	ReferencePayment ReferenceType = "PAYMENT"
)

// Valid reports whether the reference type is known.
func (r ReferenceType) Valid() bool {
	switch r {
	case ReferenceDue, ReferencePayment:
		return true
	}
	return false
}

// Entry is one line of a household ledger. Entries are never deleted; DUE
// entries have their debit and balance resynchronised when the due amount moves.
type Entry struct {
	ID              uuid.UUID       `json:"id"`
	HouseholdID     uuid.UUID       `json:"householdId"`
	TransactionDate time.Time       `json:"transactionDate"`
	Description     string          `json:"description"`
	Debit           decimal.Decimal `json:"debit"`
	Credit          decimal.Decimal `json:"credit"`
	Balance         decimal.Decimal `json:"balance"`
	ReferenceType   ReferenceType   `json:"referenceType"`
	ReferenceID     uuid.UUID       `json:"referenceId"`
	CreatedBy       uuid.UUID       `json:"createdBy"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Amounts are the fields rewritten by a bulk update keyed by reference.
type Amounts struct {
	Debit   decimal.Decimal
	Balance decimal.Decimal
}

// Statement summarises a household's ledger.
type Statement struct {
	HouseholdID uuid.UUID       `json:"householdId"`
	Entries     []Entry         `json:"entries"`
	TotalDebit  decimal.Decimal `json:"totalDebit"`
	TotalCredit decimal.Decimal `json:"totalCredit"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// BuildStatement totals the entries.
func BuildStatement(householdID uuid.UUID, entries []Entry) Statement {
	st := Statement{HouseholdID: householdID, Entries: entries}
	if st.Entries == nil {
		st.Entries = []Entry{}
	}
	for _, e := range entries {
		st.TotalDebit = st.TotalDebit.Add(e.Debit)
		st.TotalCredit = st.TotalCredit.Add(e.Credit)
	}
	st.Outstanding = st.TotalDebit.Sub(st.TotalCredit)
	return st
}

// ErrInvalidEntry is returned when an entry is missing required fields.
var ErrInvalidEntry = errors.New("ledger: invalid entry")
