package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/app"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/audit"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/auth"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/ledger"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/observability"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/payments"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/cache"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
	"github.com/kylemastercoder14/HomeownersAssociation/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	loc := cfg.Location()

	dbpool, err := db.New(ctx, cfg.DBOptions())
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "hoa_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	duesCache := cache.NewVersioned(redisClient, "hoa:dues", cfg.DuesCacheTTL)
	go func() {
		if err := duesCache.ListenForInvalidation(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("dues cache invalidation listener stopped", slog.Any("error", err))
		}
	}()

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, sessionManager)

	householdService := households.NewService(households.NewStore(dbpool), auditLogger, logger)
	householdHandler := households.NewHandler(logger, householdService)

	ledgerService := ledger.NewService(ledger.NewStore(dbpool), householdService, duesCache)
	ledgerHandler := ledger.NewHandler(logger, ledgerService, loc)

	duesService := dues.NewService(dues.ServiceParams{
		Repo:     dues.NewRepository(dbpool),
		Audit:    auditLogger,
		Cache:    duesCache,
		Metrics:  metrics,
		Logger:   logger,
		Location: loc,
	})
	duesHandler := dues.NewHandler(logger, duesService)

	paymentService := payments.NewService(payments.NewRepository(dbpool), auditLogger, duesCache, logger, loc)
	paymentService.WithMetrics(metrics)
	paymentHandler := payments.NewHandler(logger, paymentService).WithIdempotency(shared.NewIdempotencyStore(dbpool))

	auditHandler := audit.NewHandler(logger, audit.NewService(audit.NewStore(dbpool)), loc)

	inspector := asynq.NewInspector(cfg.AsynqRedis())
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		Metrics:        metrics,
		AuthHandler:    authHandler,
		JobHandler:     jobHandler,
		RequireAdmin:   authHandler.RequireAdmin,
		Protected: []app.RouteMounter{
			householdHandler,
			ledgerHandler,
			duesHandler,
			paymentHandler,
			auditHandler,
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", loc.String()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
