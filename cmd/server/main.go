package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sheetcheck/internal/config"
	"github.com/JonMunkholm/sheetcheck/internal/core"
	"github.com/JonMunkholm/sheetcheck/internal/export"
	"github.com/JonMunkholm/sheetcheck/internal/logging"
	"github.com/JonMunkholm/sheetcheck/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, closer := logging.Setup(cfg.Logging)
	defer closer.Close()
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"session_max", cfg.Session.MaxSessions,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"db_export", cfg.Export.Enabled(),
	)

	ctx := context.Background()

	var sink *export.PostgresSink
	if cfg.Export.Enabled() {
		pool, err := connectExportDB(ctx, cfg.Export)
		if err != nil {
			slog.Error("failed to connect export database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		sink = export.NewPostgresSink(pool, logger)
		if cfg.Export.EnsureSchema {
			if err := sink.EnsureSchema(ctx); err != nil {
				slog.Error("failed to create export schema", "error", err)
				os.Exit(1)
			}
		}
		slog.Info("database export enabled")
	}

	sessions := core.NewSessionManager(core.SessionManagerConfig{
		MaxSessions: cfg.Session.MaxSessions,
		IdleTTL:     cfg.Session.IdleTTL,
		Logger:      logger,
	})
	parses := core.NewParseLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	go sessions.StartJanitor(jobCtx, cfg.Session.JanitorInterval)

	server := web.NewServer(cfg, sessions, parses, sink)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight parses to complete (with timeout)
		if status := parses.Status(); status.Active > 0 {
			slog.Info("waiting for uploads to complete", "active", status.Active)
			if err := parses.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("uploads did not complete in time", "error", err)
			} else {
				slog.Info("all uploads completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
	}
}

// connectExportDB opens and pings the pool behind the export sink.
func connectExportDB(ctx context.Context, cfg config.ExportConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
