package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/app"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/auth"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/households"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/db"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/platform/migrations"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/seed"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	pool, err := db.New(ctx, cfg.DBOptions())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	fmt.Println("→ Applying migrations...")
	if _, err := migrations.Apply(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	audit := shared.NewAuditLogger(pool)
	seeder := seed.Seeder{
		Admins:     auth.NewService(auth.NewRepository(pool)),
		Households: households.NewService(households.NewStore(pool), audit, logger),
		Dues: dues.NewService(dues.ServiceParams{
			Repo:     dues.NewRepository(pool),
			Audit:    audit,
			Logger:   logger,
			Location: cfg.Location(),
		}),
	}
	if _, err := seeder.Run(ctx, seed.Options{
		AdminEmail:    getenv("SEED_ADMIN_EMAIL", "admin@hoa.local"),
		AdminName:     "HOA Administrator",
		AdminPassword: getenv("SEED_ADMIN_PASSWORD", "changeme123"),
		Out:           os.Stdout,
	}); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
