// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the aula authentication API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to the user directory (MongoDB, or PostgreSQL plus migrations).
//  4. Build the in-memory session store and login throttle.
//  5. Wire metrics, health probes and HTTP handlers.
//  6. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/taibuivan/aula/internal/api"
	"github.com/taibuivan/aula/internal/platform/clock"
	"github.com/taibuivan/aula/internal/platform/config"
	"github.com/taibuivan/aula/internal/platform/constants"
	"github.com/taibuivan/aula/internal/platform/metrics"
	"github.com/taibuivan/aula/internal/platform/migration"
	mongostore "github.com/taibuivan/aula/internal/platform/mongo"
	pgstore "github.com/taibuivan/aula/internal/platform/postgres"
	"github.com/taibuivan/aula/internal/platform/sec"
	"github.com/taibuivan/aula/internal/session"
	"github.com/taibuivan/aula/internal/throttle"
	"github.com/taibuivan/aula/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("[aula] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("user_store", cfg.UserStore),
		slog.Duration("session_timeout", cfg.SessionTimeout),
		slog.Duration("lockout_duration", cfg.LockoutDuration),
		slog.Int("max_login_attempts", cfg.MaxLoginAttempts),
	)

	// Root context lives until shutdown; startup gets its own deadline.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, constants.GlobalRequestTimeout)
	defer startupCancel()

	// ── 3. User Directory ─────────────────────────────────────────────────
	directory, closeDirectory := openDirectory(startupCtx, cfg, log)
	defer closeDirectory()

	// ── 4. Session & Lockout State ────────────────────────────────────────
	systemClock := clock.System{}
	sessions := session.NewStore(cfg.SessionTimeout, systemClock, sec.UUIDTokens{})
	limiter := throttle.New(cfg.MaxLoginAttempts, cfg.LockoutDuration, systemClock)
	hasher := sec.NewPasswordHasher(cfg.BcryptCost)

	// ── 5. Metrics ────────────────────────────────────────────────────────
	var (
		observer       auth.Observer
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		registry := metrics.NewRegistry()
		observer = metrics.NewAuth(registry)
		metrics.RegisterSessionGauge(registry, sessions.Len)
		metricsHandler = metrics.Handler(registry)
	}

	// ── 6. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		UserStore:      cfg.UserStore,
		CheckUserStore: directory.Ping,
	}, log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(auth.Dependencies{
		Directory: directory,
		Hasher:    hasher,
		Sessions:  sessions,
		Throttle:  limiter,
		Clock:     systemClock,
		Observer:  observer,
	})

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Metrics:   metricsHandler,
		Auth:      auth.NewHandler(authService),
	})

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly", slog.Int("sessions_dropped", sessions.Len()))
}

// openDirectory connects the configured user directory and returns its closer.
func openDirectory(ctx context.Context, cfg *config.Config, log *slog.Logger) (auth.UserDirectory, func()) {
	switch cfg.UserStore {
	case constants.StorePostgres:
		pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
		must(log, err, "connect to postgres")

		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			pool.Close()
			must(log, err, "run migrations")
		}

		return auth.NewPostgresUserDirectory(pool), func() {
			log.Info("closing postgres pool")
			pool.Close()
		}

	default:
		client, err := mongostore.NewClient(ctx, cfg.MongoURI, log)
		must(log, err, "connect to mongo")

		return auth.NewMongoUserDirectory(client.Database(cfg.MongoDatabase)), func() {
			log.Info("closing mongo client")
			disconnectCtx, cancel := context.WithTimeout(context.Background(), constants.StoreConnectTimeout)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Error("mongo disconnect error", slog.Any("error", err))
			}
		}
	}
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", "aula"))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
