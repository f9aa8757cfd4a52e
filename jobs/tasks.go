package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/hibiken/asynq"
	"github.com/jordan-wright/email"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskDuesMarkOverdue flips unpaid dues past their due date to OVERDUE.
	TaskDuesMarkOverdue = "dues:mark_overdue"
	// TaskIdempotencyCleanup prunes expired Idempotency-Key claims.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MarkOverduePayload carries the origin of a sweep run for logging.
type MarkOverduePayload struct {
	Trigger string `json:"trigger,omitempty"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewMarkOverdueTask constructs the overdue sweep task.
func NewMarkOverdueTask(payload MarkOverduePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDuesMarkOverdue, data), nil
}

// MailerConfig holds SMTP settings.
type MailerConfig struct {
	Host string
	Port int
	From string
}

// Mailer delivers TaskTypeSendEmail tasks over SMTP.
type Mailer struct {
	addr   string
	from   string
	logger *slog.Logger
	send   func(e *email.Email, addr string) error
}

// NewMailer constructs a Mailer. Delivery is unauthenticated.
func NewMailer(cfg MailerConfig, logger *slog.Logger) *Mailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailer{
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:   cfg.From,
		logger: logger,
		send: func(e *email.Email, addr string) error {
			return e.Send(addr, nil)
		},
	}
}

// Handle processes TaskTypeSendEmail tasks.
func (m *Mailer) Handle(ctx context.Context, t *asynq.Task) error {
	if m == nil {
		return errors.New("mailer: not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if strings.TrimSpace(payload.To) == "" {
		return asynq.SkipRetry
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{payload.To}
	e.Subject = payload.Subject
	e.Text = []byte(payload.Body)
	if err := m.send(e, m.addr); err != nil {
		m.logger.Error("send email", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	m.logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}
