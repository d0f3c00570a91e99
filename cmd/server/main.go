package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"socioai/docs"
	"socioai/internal/auth"
	"socioai/internal/authz"
	"socioai/internal/cache"
	"socioai/internal/config"
	"socioai/internal/db"
	"socioai/internal/handler"
	"socioai/internal/jobs"
	"socioai/internal/repository"
	"socioai/internal/router"
	"socioai/internal/service"
)

// @title SocioAI Personal Finance API
// @version 1.0
// @description Savings goals with a ledger of signed entries, per-user authorization and monthly cash-flow reports.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run owns every resource of the process so its deferred cleanup always
// executes before main decides the exit code.
func run(cfg *config.Config, logger *slog.Logger) error {
	gormDB, err := db.Open(db.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DBDSN,
		LogQueries:   cfg.DBLog,
		MaxOpenConns: cfg.DBMaxOpenConns,
	})
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}

	if cfg.ResetDB {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		db.Reset(gormDB)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()

	store := repository.NewStore(gormDB)
	gate := authz.NewGate(store.Owners(), logger)

	// Initialize auth components
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)

	// Initialize services
	ledger := service.NewGoalLedger(store, logger)
	authService := service.NewAuthService(store.Users(), store.Roles(), jwtService, tokenStore)
	userService := service.NewUserService(store, cacheClient)
	reportService := service.NewReportService(store)

	e := echo.New()
	router.Register(e, router.Deps{
		Config:     cfg,
		Logger:     logger,
		JWT:        jwtService,
		Tokens:     tokenStore,
		Identities: userService,
		Health: func(ctx context.Context) error {
			return errors.Join(store.Ping(ctx), cacheClient.Ping(ctx))
		},
	}, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		User:     handler.NewUserHandler(userService),
		Role:     handler.NewRoleHandler(service.NewRoleService(store)),
		Category: handler.NewCategoryHandler(service.NewCategoryService(store, gate), reportService),
		Goal:     handler.NewGoalHandler(service.NewGoalService(store, gate)),
		Entry:    handler.NewEntryHandler(service.NewEntryService(store, ledger, gate)),
		Income:   handler.NewIncomeHandler(service.NewIncomeService(store, gate)),
		Expense:  handler.NewExpenseHandler(service.NewExpenseService(store, gate)),
		Report:   handler.NewReportHandler(reportService),
	})

	scheduler, err := jobs.StartScheduler(cfg.ReconcileSchedule, jobs.ReconcileJob(ledger, logger))
	if err != nil {
		return fmt.Errorf("start reconcile scheduler %q: %w", cfg.ReconcileSchedule, err)
	}
	defer scheduler.Stop()

	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
		docs.SwaggerInfo.Host = host
	}
	logger.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serve(e, ":"+cfg.ServerPort, quit, 10*time.Second, logger)
}

// serve runs e until a signal arrives on quit or the listener fails, then
// shuts it down within timeout.
func serve(e *echo.Echo, addr string, quit <-chan os.Signal, timeout time.Duration, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server start: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
