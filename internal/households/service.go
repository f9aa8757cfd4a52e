package households

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ValidationError carries per-field messages for a rejected household.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return shared.FirstMessage(e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// Service coordinates household registration.
type Service struct {
	repo     Repository
	audit    AuditPort
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService constructs the household service.
func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		audit:    audit,
		logger:   logger,
		validate: shared.NewValidator(),
		now:      time.Now,
	}
}

// WithNow overrides the clock, used in tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create registers a household.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, in CreateInput) (Household, error) {
	in.Block = strings.TrimSpace(in.Block)
	in.Lot = strings.TrimSpace(in.Lot)
	in.Type = strings.TrimSpace(in.Type)
	in.Address = strings.TrimSpace(in.Address)
	if err := s.validate.Struct(in); err != nil {
		return Household{}, &ValidationError{Fields: shared.FieldErrors(err)}
	}

	now := s.now().UTC()
	h := Household{
		ID:                 uuid.New(),
		Block:              in.Block,
		Lot:                in.Lot,
		Type:               in.Type,
		Status:             in.Status,
		Address:            in.Address,
		SeniorCitizenCount: in.SeniorCitizenCount,
		PWDCount:           in.PWDCount,
		SoloParentCount:    in.SoloParentCount,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	created, err := s.repo.Create(ctx, h)
	if err != nil {
		return Household{}, err
	}
	s.record(ctx, actor, "household.create", created.ID, map[string]any{
		"block": created.Block, "lot": created.Lot, "status": created.Status,
	})
	return created, nil
}

// Get returns the household.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Household, error) {
	if id == uuid.Nil {
		return Household{}, ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns households matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters) ([]Household, int, error) {
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, &ValidationError{Fields: map[string]string{"status": fmt.Sprintf("unknown status %q", filters.Status)}}
	}
	return s.repo.List(ctx, filters)
}

// ChangeStatus moves a household between Active, Inactive and Vacant.
func (s *Service) ChangeStatus(ctx context.Context, actor uuid.UUID, id uuid.UUID, in StatusInput) (Household, error) {
	if err := s.validate.Struct(in); err != nil {
		return Household{}, &ValidationError{Fields: shared.FieldErrors(err)}
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return Household{}, err
	}
	if current.Status == in.Status {
		return current, nil
	}
	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, id, in.Status, now); err != nil {
		return Household{}, err
	}
	s.record(ctx, actor, "household.status", id, map[string]any{
		"from": current.Status, "to": in.Status,
	})
	current.Status = in.Status
	current.UpdatedAt = now
	return current, nil
}

func (s *Service) record(ctx context.Context, actor uuid.UUID, action string, id uuid.UUID, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "household",
		EntityID: id.String(),
		Meta:     meta,
		At:       s.now().UTC(),
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}
