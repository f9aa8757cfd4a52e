package dues

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/ledger"
)

// memoryState is the whole fake database. Transactions work on a clone that
// replaces the committed state only when the callback succeeds.
type memoryState struct {
	households map[uuid.UUID]households.Household
	dues       map[uuid.UUID]Due
	payments   map[uuid.UUID][]Payment
	ledger     []ledger.Entry
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		households: make(map[uuid.UUID]households.Household, len(s.households)),
		dues:       make(map[uuid.UUID]Due, len(s.dues)),
		payments:   make(map[uuid.UUID][]Payment, len(s.payments)),
		ledger:     append([]ledger.Entry(nil), s.ledger...),
	}
	for k, v := range s.households {
		out.households[k] = v
	}
	for k, v := range s.dues {
		out.dues[k] = v
	}
	for k, v := range s.payments {
		out.payments[k] = append([]Payment(nil), v...)
	}
	return out
}

type memoryRepo struct {
	mu    sync.Mutex
	state *memoryState

	failAppendLedger error
	failUpdateLedger error
	// hidePeriodLookups makes FindDueByPeriod miss, simulating a concurrent
	// insert that only the unique constraint catches.
	hidePeriodLookups bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: &memoryState{
		households: make(map[uuid.UUID]households.Household),
		dues:       make(map[uuid.UUID]Due),
		payments:   make(map[uuid.UUID][]Payment),
	}}
}

func (r *memoryRepo) addHousehold(status households.Status) uuid.UUID {
	id := uuid.New()
	r.state.households[id] = households.Household{ID: id, Block: "1", Lot: id.String()[:4], Status: status}
	return id
}

func (r *memoryRepo) addPayment(dueID uuid.UUID, amount string) {
	r.state.payments[dueID] = append(r.state.payments[dueID], Payment{
		ID:            uuid.New(),
		DueID:         dueID,
		Amount:        decimal.RequireFromString(amount),
		PaymentDate:   time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
		PaymentMethod: "CASH",
	})
}

func (r *memoryRepo) ledgerFor(refID uuid.UUID) []ledger.Entry {
	var out []ledger.Entry
	for _, e := range r.state.ledger {
		if e.ReferenceID == refID {
			out = append(out, e)
		}
	}
	return out
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	work := r.state.clone()
	if err := fn(ctx, &memoryTx{repo: r, state: work}); err != nil {
		return err
	}
	r.state = work
	return nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (Due, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return (&memoryTx{repo: r, state: r.state}).load(id)
}

func (r *memoryRepo) List(_ context.Context, filters ListFilters) ([]Due, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Due
	for _, d := range r.state.dues {
		if filters.Status != "" && d.Status != filters.Status {
			continue
		}
		if filters.Type != "" && d.Type != filters.Type {
			continue
		}
		if filters.HouseholdID != nil && d.HouseholdID != *filters.HouseholdID {
			continue
		}
		paid := decimal.Zero
		for _, p := range r.state.payments[d.ID] {
			paid = paid.Add(p.Amount)
		}
		d.AmountPaid = paid
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepo) MarkOverdue(_ context.Context, before, at time.Time) ([]Due, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Due
	for id, d := range r.state.dues {
		if (d.Status == StatusUnpaid || d.Status == StatusPartial) && d.DueDate.Before(before) {
			d.Status = StatusOverdue
			d.UpdatedAt = at
			r.state.dues[id] = d
			out = append(out, d)
		}
	}
	return out, nil
}

type memoryTx struct {
	repo  *memoryRepo
	state *memoryState
}

func (t *memoryTx) HouseholdByID(_ context.Context, id uuid.UUID) (households.Household, error) {
	h, ok := t.state.households[id]
	if !ok {
		return households.Household{}, households.ErrNotFound
	}
	return h, nil
}

func (t *memoryTx) load(id uuid.UUID) (Due, error) {
	d, ok := t.state.dues[id]
	if !ok {
		return Due{}, ErrDueNotFound
	}
	d.Payments = append([]Payment(nil), t.state.payments[id]...)
	d.AmountPaid = d.TotalPaid()
	return d, nil
}

func (t *memoryTx) FindDue(_ context.Context, id uuid.UUID) (Due, error) {
	return t.load(id)
}

func (t *memoryTx) FindDueByPeriod(_ context.Context, householdID uuid.UUID, dt DueType, month, year int, excludeID *uuid.UUID) (*Due, error) {
	if t.repo.hidePeriodLookups {
		return nil, nil
	}
	for _, d := range t.state.dues {
		if excludeID != nil && d.ID == *excludeID {
			continue
		}
		if d.HouseholdID == householdID && d.Type == dt && d.FiscalMonth == month && d.FiscalYear == year {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

func (t *memoryTx) violatesPeriod(d Due) bool {
	for _, other := range t.state.dues {
		if other.ID != d.ID && other.HouseholdID == d.HouseholdID && other.Type == d.Type &&
			other.FiscalMonth == d.FiscalMonth && other.FiscalYear == d.FiscalYear {
			return true
		}
	}
	return false
}

func (t *memoryTx) CreateDue(_ context.Context, d Due) (Due, error) {
	if t.violatesPeriod(d) {
		return Due{}, duplicateError(d.Type)
	}
	t.state.dues[d.ID] = d
	return d, nil
}

func (t *memoryTx) UpdateDue(_ context.Context, d Due) (Due, error) {
	if _, ok := t.state.dues[d.ID]; !ok {
		return Due{}, ErrDueNotFound
	}
	if t.violatesPeriod(d) {
		return Due{}, duplicateError(d.Type)
	}
	t.state.dues[d.ID] = d
	return d, nil
}

func (t *memoryTx) AppendLedger(_ context.Context, e ledger.Entry) (ledger.Entry, error) {
	if t.repo.failAppendLedger != nil {
		return ledger.Entry{}, t.repo.failAppendLedger
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	t.state.ledger = append(t.state.ledger, e)
	return e, nil
}

func (t *memoryTx) UpdateLedgerByReference(_ context.Context, refType ledger.ReferenceType, refID uuid.UUID, amounts ledger.Amounts) (int64, error) {
	if t.repo.failUpdateLedger != nil {
		return 0, t.repo.failUpdateLedger
	}
	var n int64
	for i, e := range t.state.ledger {
		if e.ReferenceType == refType && e.ReferenceID == refID {
			t.state.ledger[i].Debit = amounts.Debit
			t.state.ledger[i].Balance = amounts.Balance
			n++
		}
	}
	return n, nil
}

var errLedgerDown = errors.New("ledger_entries: connection reset by peer")
