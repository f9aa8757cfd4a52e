package payments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/ledger"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// PaymentRecorder counts recorded payments.
type PaymentRecorder interface {
	ObservePayment(status string)
}

// Service records payments against dues.
type Service struct {
	repo        Repository
	audit       AuditPort
	invalidator dues.Invalidator
	metrics     PaymentRecorder
	logger      *slog.Logger
	validate    *validator.Validate
	loc         *time.Location
	now         func() time.Time
}

// NewService constructs the payment service. audit and invalidator may be nil.
func NewService(repo Repository, audit AuditPort, invalidator dues.Invalidator, logger *slog.Logger, loc *time.Location) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:        repo,
		audit:       audit,
		invalidator: invalidator,
		logger:      logger,
		validate:    shared.NewValidator(),
		loc:         loc,
		now:         time.Now,
	}
}

// WithNow overrides the clock, used in tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithMetrics attaches a payment counter.
func (s *Service) WithMetrics(m PaymentRecorder) {
	s.metrics = m
}

// Record stores a payment, moves the due to PARTIAL or PAID and credits the
// household ledger, all in one transaction.
func (s *Service) Record(ctx context.Context, actor uuid.UUID, dueID uuid.UUID, in Input) (Receipt, error) {
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)
	if err := s.validate.Struct(in); err != nil {
		return Receipt{}, &ValidationError{Fields: shared.FieldErrors(err)}
	}
	if !in.Amount.IsPositive() {
		return Receipt{}, &ValidationError{Fields: map[string]string{"amount": "Amount must be greater than 0"}}
	}
	paidOn, err := time.ParseInLocation("2006-01-02", in.PaymentDate, s.loc)
	if err != nil {
		return Receipt{}, &ValidationError{Fields: map[string]string{"paymentDate": "paymentDate must be YYYY-MM-DD"}}
	}
	if paidOn.After(dues.StartOfDay(s.now(), s.loc)) {
		return Receipt{}, &ValidationError{Fields: map[string]string{"paymentDate": "paymentDate cannot be in the future"}}
	}

	var receipt Receipt
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		due, err := tx.LockDue(ctx, dueID)
		if err != nil {
			return err
		}
		if !due.Status.AcceptsPayment() {
			return fmt.Errorf("%w: due is %s", ErrNotPayable, due.Status)
		}
		outstanding := due.Outstanding()
		if in.Amount.GreaterThan(outstanding) {
			return fmt.Errorf("%w: outstanding is %s", ErrOverpayment, outstanding.StringFixed(2))
		}

		now := s.now().UTC()
		payment, err := tx.InsertPayment(ctx, dues.Payment{
			ID:            uuid.New(),
			DueID:         due.ID,
			Amount:        in.Amount,
			PaymentDate:   paidOn,
			PaymentMethod: in.PaymentMethod,
			ReferenceNo:   in.ReferenceNo,
			ReceivedBy:    in.ReceivedBy,
			CreatedAt:     now,
		})
		if err != nil {
			return err
		}

		remaining := outstanding.Sub(in.Amount)
		status := dues.StatusPartial
		if !remaining.IsPositive() {
			status = dues.StatusPaid
		}
		if err := tx.SetDueStatus(ctx, due.ID, status, now); err != nil {
			return err
		}
		if _, err := tx.AppendLedger(ctx, ledger.Entry{
			HouseholdID:     due.HouseholdID,
			TransactionDate: paidOn,
			Description:     "Payment received: " + string(due.Type),
			Credit:          in.Amount,
			Balance:         remaining,
			ReferenceType:   ledger.ReferencePayment,
			ReferenceID:     payment.ID,
			CreatedBy:       actor,
			CreatedAt:       now,
		}); err != nil {
			return err
		}

		due.Status = status
		due.UpdatedAt = now
		due.Payments = append(due.Payments, payment)
		due.AmountPaid = due.TotalPaid()
		receipt = Receipt{Payment: payment, Due: due, Outstanding: remaining}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	if s.metrics != nil {
		s.metrics.ObservePayment(string(receipt.Due.Status))
	}
	if s.invalidator != nil {
		if err := s.invalidator.Bump(ctx); err != nil {
			s.logger.Warn("dues cache bump failed", slog.Any("error", err))
		}
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor,
			Action:   "payment.record",
			Entity:   "due",
			EntityID: dueID.String(),
			Meta: map[string]any{
				"payment_id": receipt.Payment.ID.String(),
				"amount":     receipt.Payment.Amount.String(),
				"method":     receipt.Payment.PaymentMethod,
				"status":     string(receipt.Due.Status),
			},
			At: s.now().UTC(),
		}); err != nil {
			s.logger.Warn("audit record failed", slog.String("action", "payment.record"), slog.Any("error", err))
		}
	}
	return receipt, nil
}
