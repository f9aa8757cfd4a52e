package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/app"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	jobmetrics "github.com/kylemastercoder14/HomeownersAssociation/internal/jobs"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/cache"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
	"github.com/kylemastercoder14/HomeownersAssociation/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.DBOptions())
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisOptions())
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := cfg.AsynqRedis()
	client := jobs.NewClient(redisOpts)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	duesService := dues.NewService(dues.ServiceParams{
		Repo:     dues.NewRepository(pool),
		Audit:    shared.NewAuditLogger(pool),
		Cache:    cache.NewVersioned(redisClient, "hoa:dues", cfg.DuesCacheTTL),
		Logger:   logger,
		Location: cfg.Location(),
	})

	metrics := jobmetrics.NewMetrics(nil)
	mailer := jobs.NewMailer(jobs.MailerConfig{Host: cfg.SMTPHost, Port: cfg.SMTPPort, From: cfg.SMTPFrom}, logger)
	overdueJob := jobs.NewMarkOverdueJob(duesService, client, cfg.TreasurerEmail, logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewIdempotencyStore(pool), 0, logger, metrics)

	overdueTask, err := jobs.NewMarkOverdueTask(jobs.MarkOverduePayload{Trigger: "schedule"})
	if err != nil {
		logger.Error("build overdue task", slog.Any("error", err))
		os.Exit(1)
	}

	cleanupTask := asynq.NewTask(jobs.TaskIdempotencyCleanup, nil)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Location:    cfg.Location(),
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailer.Handle},
			{Type: jobs.TaskDuesMarkOverdue, Handler: overdueJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.OverdueSweepCron, Task: overdueTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("overdue_cron", cfg.OverdueSweepCron))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
