package main

import (
	"context"
	"log/slog"
	"os"

	"socioai/internal/config"
	"socioai/internal/db"
	"socioai/internal/repository"
	"socioai/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	gormDB, err := db.Open(db.Options{Driver: cfg.DBDriver, DSN: cfg.DBDSN, LogQueries: cfg.DBLog})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Run migrations to ensure schema is up to date
	if err := db.Migrate(gormDB); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	res, err := seed.Run(context.Background(), repository.NewStore(gormDB), cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
	slog.Info("seed finished", "roles_created", res.RolesCreated, "admin_created", res.AdminCreated, "admin_updated", res.AdminUpdated)
}
