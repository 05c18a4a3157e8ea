package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-task-tracker/internal/auth"
	"go-task-tracker/internal/config"
	"go-task-tracker/internal/database"
	"go-task-tracker/internal/handler"
	"go-task-tracker/internal/middleware"
	"go-task-tracker/internal/repository"
	"go-task-tracker/internal/router"
	"go-task-tracker/internal/service"
)

const shutdownGracePeriod = 15 * time.Second

type App struct {
	cfg    *config.Config
	db     *database.DB
	server *http.Server
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	tokens, err := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("building token manager: %w", err)
	}
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	userRepo := repository.NewUserRepository(db.Pool)
	todoRepo := repository.NewTodoRepository(db.Pool)
	auditRepo := repository.NewAuditRepository(db.Pool)

	auditService := service.NewAuditService(auditRepo)
	authService := service.NewAuthService(userRepo, hasher, tokens, auditService)
	todoService := service.NewTodoService(todoRepo, auditService)

	handlerMux := router.New(router.Dependencies{
		Config:       cfg,
		Auth:         middleware.NewAuthMiddleware(tokens),
		RateLimit:    middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM),
		AuthHandler:  handler.NewAuthHandler(authService),
		TodoHandler:  handler.NewTodoHandler(todoService),
		UserHandler:  handler.NewUserHandler(authService),
		AuditHandler: handler.NewAuditHandler(auditService),
		Health:       healthHandler(db),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlerMux,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{cfg: cfg, db: db, server: server}, nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down gracefully within the grace period.
func (a *App) Run() error {
	errCh := make(chan error, 1)

	go func() {
		slog.Info("server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.db.Close()
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()

	err := a.server.Shutdown(ctx)
	a.db.Close()
	if err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func healthHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if err := db.Health(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"unhealthy"}`)
			return
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"healthy"}`)
	}
}
