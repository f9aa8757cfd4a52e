package dues

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/ledger"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Invalidator signals that cached dues views are stale.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// ListingCache caches listings and can be invalidated.
type ListingCache interface {
	Invalidator
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

// SubmissionRecorder counts submission outcomes.
type SubmissionRecorder interface {
	ObserveSubmission(operation, outcome string)
}

// ServiceParams wires the service collaborators. Only Repo is required.
type ServiceParams struct {
	Repo     Repository
	Audit    AuditPort
	Cache    ListingCache
	Metrics  SubmissionRecorder
	Logger   *slog.Logger
	Location *time.Location
}

// Service implements the dues workflow.
type Service struct {
	repo    Repository
	audit   AuditPort
	cache   ListingCache
	metrics SubmissionRecorder
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewService constructs the dues service.
func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := p.Location
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:    p.Repo,
		audit:   p.Audit,
		cache:   p.Cache,
		metrics: p.Metrics,
		logger:  logger.With(slog.String("component", "dues")),
		loc:     loc,
		now:     time.Now,
	}
}

// WithNow overrides the clock, used in tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Location is the zone used to decide what "today" means.
func (s *Service) Location() *time.Location {
	return s.loc
}

func (s *Service) today() time.Time {
	return StartOfDay(s.now(), s.loc)
}

// Create validates the payload and writes the due together with its ledger entry.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, p Payload) (Due, error) {
	if err := checkShape(p); err != nil {
		return Due{}, err
	}
	var created Due
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c := chain{tx: tx, today: s.today(), loc: s.loc}
		if err := c.run(ctx, p); err != nil {
			return err
		}

		now := s.now().UTC()
		due := Due{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
		p.apply(&due)
		due, err := tx.CreateDue(ctx, due)
		if err != nil {
			return err
		}
		_, err = tx.AppendLedger(ctx, ledger.Entry{
			HouseholdID:     due.HouseholdID,
			TransactionDate: now,
			Description:     "Due created: " + string(due.Type),
			Debit:           due.Amount,
			Balance:         due.Amount,
			ReferenceType:   ledger.ReferenceDue,
			ReferenceID:     due.ID,
			CreatedBy:       actor,
			CreatedAt:       now,
		})
		if err != nil {
			return err
		}
		created = due
		return nil
	})
	if err != nil {
		return Due{}, classify("create", err)
	}

	s.record(ctx, actor, "due.create", created.ID, map[string]any{
		"household_id": created.HouseholdID.String(),
		"type":         string(created.Type),
		"amount":       created.Amount.String(),
		"period":       period(created),
	})
	return created, nil
}

// Update replaces the due and resynchronises its ledger entries when the amount moves.
func (s *Service) Update(ctx context.Context, actor uuid.UUID, id uuid.UUID, p Payload) (Due, error) {
	if err := checkShape(p); err != nil {
		return Due{}, err
	}
	var (
		updated  Due
		previous Due
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.FindDue(ctx, id)
		if err != nil {
			return err
		}
		c := chain{tx: tx, today: s.today(), loc: s.loc, existing: &existing}
		if err := c.run(ctx, p); err != nil {
			return err
		}

		due := existing
		due.Payments = nil
		p.apply(&due)
		due.UpdatedAt = s.now().UTC()
		due, err = tx.UpdateDue(ctx, due)
		if err != nil {
			return err
		}
		if !existing.Amount.Equal(due.Amount) {
			if _, err := tx.UpdateLedgerByReference(ctx, ledger.ReferenceDue, due.ID, resyncAmounts(existing, due)); err != nil {
				return err
			}
		}
		due.Payments = existing.Payments
		due.AmountPaid = existing.TotalPaid()
		previous = existing
		updated = due
		return nil
	})
	if err != nil {
		return Due{}, classify("update", err)
	}

	meta := map[string]any{"type": string(updated.Type), "status": string(updated.Status)}
	if !previous.Amount.Equal(updated.Amount) {
		meta["amount_from"] = previous.Amount.String()
		meta["amount_to"] = updated.Amount.String()
	}
	s.record(ctx, actor, "due.update", updated.ID, meta)
	return updated, nil
}

// resyncAmounts computes the DUE ledger amounts after the due amount changed.
func resyncAmounts(existing, updated Due) ledger.Amounts {
	return ledger.Amounts{
		Debit:   updated.Amount,
		Balance: updated.Amount.Sub(existing.TotalPaid()),
	}
}

// Submit dispatches to Create or Update and reports the outcome as a Result.
func (s *Service) Submit(ctx context.Context, actor uuid.UUID, p Payload, existingID *uuid.UUID) Result {
	op := "create"
	var (
		due Due
		err error
	)
	if existingID != nil {
		op = "update"
		due, err = s.Update(ctx, actor, *existingID, p)
	} else {
		due, err = s.Create(ctx, actor, p)
	}
	if err != nil {
		res := failure(op, err)
		if res.Code == KindPersistence {
			s.logger.Error("due submission failed", slog.String("operation", op), slog.Any("error", err))
		}
		s.observe(op, string(res.Code))
		return res
	}

	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("dues cache bump failed", slog.Any("error", err))
		}
	}
	s.observe(op, "success")
	return success(op, due)
}

// Get returns a due with its payments.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Due, error) {
	return s.repo.Get(ctx, id)
}

// List returns the filtered dues with totals, served from cache when possible.
func (s *Service) List(ctx context.Context, filters ListFilters) (Listing, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return Listing{}, invalid(KindInvalidPayload, "Unknown due status", "status")
	}
	if filters.Type != "" && !filters.Type.Valid() {
		return Listing{}, invalid(KindInvalidPayload, "Unknown due type", "type")
	}
	load := func(ctx context.Context) (any, error) {
		items, err := s.repo.List(ctx, filters)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []Due{}
		}
		return Listing{Dues: items, Totals: Summarise(items)}, nil
	}
	if s.cache == nil {
		v, err := load(ctx)
		if err != nil {
			return Listing{}, err
		}
		return v.(Listing), nil
	}
	key, err := s.cache.BuildKey(ctx, listingKeyParts(filters)...)
	if err != nil {
		return Listing{}, err
	}
	var out Listing
	if err := s.cache.FetchJSON(ctx, key, &out, load); err != nil {
		return Listing{}, err
	}
	return out, nil
}

// SweepResult reports the dues flipped to OVERDUE by a sweep.
type SweepResult struct {
	Cutoff time.Time
	Dues   []Due
}

// MarkOverdue flips unpaid dues whose due date is before today to OVERDUE.
func (s *Service) MarkOverdue(ctx context.Context) (SweepResult, error) {
	cutoff := s.today()
	flipped, err := s.repo.MarkOverdue(ctx, cutoff, s.now().UTC())
	if err != nil {
		return SweepResult{}, err
	}
	if len(flipped) > 0 && s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("dues cache bump failed", slog.Any("error", err))
		}
	}
	return SweepResult{Cutoff: cutoff, Dues: flipped}, nil
}

func listingKeyParts(f ListFilters) []string {
	household := "-"
	if f.HouseholdID != nil {
		household = f.HouseholdID.String()
	}
	return []string{
		"list",
		orDash(string(f.Status)),
		orDash(string(f.Type)),
		household,
		strconv.Itoa(f.FiscalMonth),
		strconv.Itoa(f.FiscalYear),
	}
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

func period(d Due) string {
	return strconv.Itoa(d.FiscalYear) + "-" + strconv.Itoa(d.FiscalMonth)
}

// classify keeps validation and lookup failures as they are and wraps anything
// else as a persistence failure.
func classify(op string, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) || errors.Is(err, ErrDueNotFound) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func (s *Service) observe(op, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveSubmission(op, outcome)
	}
}

func (s *Service) record(ctx context.Context, actor uuid.UUID, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "due",
		EntityID: id.String(),
		Meta:     meta,
		At:       s.now().UTC(),
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
