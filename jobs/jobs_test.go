package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jordan-wright/email"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	jobmetrics "github.com/kylemastercoder14/HomeownersAssociation/internal/jobs"
)

type stubSweeper struct {
	result dues.SweepResult
	err    error
	calls  int
}

func (s *stubSweeper) MarkOverdue(context.Context) (dues.SweepResult, error) {
	s.calls++
	return s.result, s.err
}

type recordingEnqueuer struct {
	payloads []SendEmailPayload
}

func (r *recordingEnqueuer) EnqueueSendEmail(_ context.Context, p SendEmailPayload) (*asynq.TaskInfo, error) {
	r.payloads = append(r.payloads, p)
	return &asynq.TaskInfo{}, nil
}

func sweepTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewMarkOverdueTask(MarkOverduePayload{Trigger: "test"})
	require.NoError(t, err)
	return task
}

func overdueDue(amount, paid string) dues.Due {
	return dues.Due{
		ID:          uuid.New(),
		HouseholdID: uuid.New(),
		Type:        dues.TypeMonthlyDues,
		Amount:      decimal.RequireFromString(amount),
		AmountPaid:  decimal.RequireFromString(paid),
		DueDate:     time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		FiscalMonth: 2,
		FiscalYear:  2024,
		Status:      dues.StatusOverdue,
	}
}

func TestMarkOverdueJobEnqueuesDigest(t *testing.T) {
	sweeper := &stubSweeper{result: dues.SweepResult{
		Cutoff: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
		Dues:   []dues.Due{overdueDue("500", "200"), overdueDue("1000", "0")},
	}}
	mail := &recordingEnqueuer{}
	job := NewMarkOverdueJob(sweeper, mail, " treasurer@hoa.local ", slog.Default(), jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), sweepTask(t)))
	require.Equal(t, 1, sweeper.calls)
	require.Len(t, mail.payloads, 1)
	require.Equal(t, "treasurer@hoa.local", mail.payloads[0].To)
	require.Equal(t, "2 due(s) became overdue", mail.payloads[0].Subject)
	require.Contains(t, mail.payloads[0].Body, "Monthly Dues for 02/2024")
	require.Contains(t, mail.payloads[0].Body, "PHP 300.00 outstanding")
	require.Contains(t, mail.payloads[0].Body, "Total outstanding: PHP 1300.00")
}

func TestMarkOverdueJobSkipsDigestWhenNothingFlipped(t *testing.T) {
	sweeper := &stubSweeper{result: dues.SweepResult{Cutoff: time.Now()}}
	mail := &recordingEnqueuer{}
	job := NewMarkOverdueJob(sweeper, mail, "treasurer@hoa.local", nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskDuesMarkOverdue, nil)))
	require.Empty(t, mail.payloads)
}

func TestMarkOverdueJobPropagatesFailure(t *testing.T) {
	boom := errors.New("db down")
	job := NewMarkOverdueJob(&stubSweeper{err: boom}, nil, "", nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.ErrorIs(t, job.Handle(context.Background(), sweepTask(t)), boom)

	job = NewMarkOverdueJob(&stubSweeper{}, nil, "", nil, nil)
	require.ErrorIs(t, job.Handle(context.Background(), asynq.NewTask(TaskDuesMarkOverdue, []byte("{"))), asynq.SkipRetry)
}

func TestMailerHandleSendsEmail(t *testing.T) {
	m := NewMailer(MailerConfig{Host: "127.0.0.1", Port: 1025, From: "no-reply@hoa.local"}, slog.Default())
	var sent *email.Email
	var addr string
	m.send = func(e *email.Email, a string) error {
		sent, addr = e, a
		return nil
	}

	task, err := NewSendEmailTask(SendEmailPayload{To: "treasurer@hoa.local", Subject: "hello", Body: "digest"})
	require.NoError(t, err)
	require.NoError(t, m.Handle(context.Background(), task))
	require.Equal(t, "127.0.0.1:1025", addr)
	require.Equal(t, []string{"treasurer@hoa.local"}, sent.To)
	require.Equal(t, "digest", string(sent.Text))

	empty, err := NewSendEmailTask(SendEmailPayload{Subject: "no recipient"})
	require.NoError(t, err)
	require.ErrorIs(t, m.Handle(context.Background(), empty), asynq.SkipRetry)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHealthEndpoint(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/jobs", NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, nil).MountRoutes)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body queueHealth
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 3, body.Pending)

	r = chi.NewRouter()
	r.Route("/jobs", NewHandler(stubInspector{err: errors.New("redis down")}, nil).MountRoutes)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubPruner struct {
	olderThan time.Duration
}

func (s *stubPruner) Cleanup(_ context.Context, olderThan time.Duration) error {
	s.olderThan = olderThan
	return nil
}

func TestIdempotencyCleanupUsesRetention(t *testing.T) {
	pruner := &stubPruner{}
	job := NewIdempotencyCleanupJob(pruner, 0, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	require.Equal(t, 7*24*time.Hour, pruner.olderThan)
}

func TestNewWorkerValidatesRegistrations(t *testing.T) {
	mr := miniredis.RunT(t)
	opts := asynq.RedisClientOpt{Addr: mr.Addr()}
	noop := func(context.Context, *asynq.Task) error { return nil }

	_, err := NewWorker(WorkerConfig{RedisOpts: opts, Handlers: []TaskHandler{{Type: TaskDuesMarkOverdue}}})
	require.ErrorContains(t, err, "incomplete handler")

	_, err = NewWorker(WorkerConfig{
		RedisOpts: opts,
		Handlers:  []TaskHandler{{Type: TaskDuesMarkOverdue, Handler: noop}},
		Cron:      []CronRegistration{{Spec: "not a cron", Task: asynq.NewTask(TaskDuesMarkOverdue, nil)}},
	})
	require.ErrorContains(t, err, TaskDuesMarkOverdue)

	w, err := NewWorker(WorkerConfig{
		RedisOpts: opts,
		Location:  time.UTC,
		Handlers:  []TaskHandler{{Type: TaskDuesMarkOverdue, Handler: noop}},
		Cron:      []CronRegistration{{Spec: "5 0 * * *", Task: asynq.NewTask(TaskDuesMarkOverdue, nil)}},
	})
	require.NoError(t, err)
	require.NotNil(t, w.scheduler)
}
