package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	jobmetrics "github.com/kylemastercoder14/HomeownersAssociation/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// OverdueSweeper is the slice of the dues service the sweep needs.
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context) (dues.SweepResult, error)
}

// EmailEnqueuer queues outbound mail.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// MarkOverdueJob moves unpaid dues past their due date to OVERDUE and mails a
// digest to the treasurer when anything changed.
type MarkOverdueJob struct {
	Dues      OverdueSweeper
	Mail      EmailEnqueuer
	Recipient string
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewMarkOverdueJob wires dependencies for the sweep handler. mail may be nil.
func NewMarkOverdueJob(svc OverdueSweeper, mail EmailEnqueuer, recipient string, logger *slog.Logger, metrics *jobmetrics.Metrics) *MarkOverdueJob {
	return &MarkOverdueJob{
		Dues:      svc,
		Mail:      mail,
		Recipient: strings.TrimSpace(recipient),
		Logger:    logger,
		Metrics:   metrics,
	}
}

// Handle runs the sweep.
func (j *MarkOverdueJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dues == nil {
		return errors.New("mark overdue: handler not configured")
	}
	var payload MarkOverduePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.Trigger == "" {
		payload.Trigger = "schedule"
	}

	tracker := j.metrics().Track(TaskDuesMarkOverdue)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("trigger", payload.Trigger))
	result, err := j.Dues.MarkOverdue(ctx)
	if err != nil {
		resultErr = err
		logger.Error("mark overdue", slog.Any("error", err))
		return resultErr
	}
	j.metrics().AddOverdue(len(result.Dues))
	logger.Info("overdue sweep finished",
		slog.String("cutoff", result.Cutoff.Format("2006-01-02")),
		slog.Int("flipped", len(result.Dues)))

	if len(result.Dues) == 0 || j.Mail == nil || j.Recipient == "" {
		return resultErr
	}
	if _, err := j.Mail.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      j.Recipient,
		Subject: fmt.Sprintf("%d due(s) became overdue", len(result.Dues)),
		Body:    OverdueDigest(result),
	}); err != nil {
		logger.Warn("enqueue overdue digest", slog.Any("error", err))
	}
	return resultErr
}

// OverdueDigest renders a plain-text summary of a sweep.
func OverdueDigest(result dues.SweepResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following dues were due before %s and are now OVERDUE:\n\n", result.Cutoff.Format("January 2, 2006"))
	total := decimal.Zero
	for _, d := range result.Dues {
		outstanding := d.Outstanding()
		total = total.Add(outstanding)
		fmt.Fprintf(&b, "- %s for %02d/%d, household %s: %s outstanding (due %s)\n",
			d.Type.Label(), d.FiscalMonth, d.FiscalYear, d.HouseholdID, formatAmount(outstanding), d.DueDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\nTotal outstanding: %s\n", formatAmount(total))
	return b.String()
}

func formatAmount(d decimal.Decimal) string {
	return "PHP " + d.StringFixed(2)
}

func (j *MarkOverdueJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *MarkOverdueJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
