// Package main is the entry point of the CodeTrack backend API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codetrack-hub/codetrack-backend/config"
	"github.com/codetrack-hub/codetrack-backend/internal/application/command"
	"github.com/codetrack-hub/codetrack-backend/internal/application/query"
	"github.com/codetrack-hub/codetrack-backend/internal/infrastructure/external/github"
	"github.com/codetrack-hub/codetrack-backend/internal/infrastructure/external/leetcode"
	"github.com/codetrack-hub/codetrack-backend/internal/infrastructure/external/stats"
	"github.com/codetrack-hub/codetrack-backend/internal/infrastructure/persistence/postgres"
	"github.com/codetrack-hub/codetrack-backend/internal/infrastructure/persistence/redis"
	httpapi "github.com/codetrack-hub/codetrack-backend/internal/interface/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	logger.Info("starting",
		slog.String("app", cfg.App.Name),
		slog.String("env", string(cfg.App.Environment)),
		slog.String("version", cfg.App.Version),
	)

	// ── PostgreSQL ──────────────────────────────────────────────────────────
	conn, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	if err := postgres.NewMigrator(conn, logger).Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	groupRepo := postgres.NewGroupRepository(conn)
	studentRepo := postgres.NewStudentRepository(conn)
	statsRepo := postgres.NewStatsRepository(conn)
	notifRepo := postgres.NewNotificationRepository(conn)

	// ── Redis (optional) ────────────────────────────────────────────────────
	// Without Redis the combined view is read from Postgres every time and
	// concurrent sync runs on one group are merely wasteful.
	var viewCache query.ViewCache = query.NoopViewCache{}
	var invalidator command.ViewInvalidator = command.NoopInvalidator{}
	var syncLock command.SyncLocker = command.NoopSyncLock{}
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled && cfg.Redis.URL != "" {
		redisCache, err = redis.NewCache(cfg.Redis)
		if err != nil {
			logger.Warn("redis unavailable, running without cache",
				slog.String("error", err.Error()))
		} else {
			defer func() { _ = redisCache.Close() }()
			groupCache := redis.NewGroupDataCache(redisCache, cfg.Redis.CombinedTTL, logger)
			viewCache = groupCache
			invalidator = groupCache
			syncLock = redis.NewSyncLock(redisCache, cfg.Redis.SyncLockTTL)
		}
	}

	// ── Upstream stats services ─────────────────────────────────────────────
	provider := stats.NewProvider(
		github.NewClient(cfg.GitHub, logger),
		leetcode.NewClient(cfg.LeetCode, logger),
		logger,
	)

	// ── Application handlers ────────────────────────────────────────────────
	syncCfg := command.SyncGroupConfig{
		MaxWorkers:        cfg.Sync.Workers,
		BatchSize:         cfg.Sync.UpsertBatchSize,
		MaxRetries:        cfg.Sync.UpsertMaxRetries,
		RetryBaseDelay:    cfg.Sync.UpsertRetryBaseDelay,
		InactiveAfterDays: cfg.Sync.InactiveAfterDays,
	}

	deps := httpapi.Dependencies{
		EnsureGroup:   command.NewEnsureGroupHandler(groupRepo),
		EnsureStats:   command.NewEnsureStatsHandler(groupRepo),
		UpsertStudent: command.NewUpsertStudentHandler(studentRepo, invalidator),
		SyncGroup: command.NewSyncGroupHandler(
			groupRepo, studentRepo, statsRepo, notifRepo, provider,
			syncLock, invalidator, syncCfg, logger),
		AddNotification:    command.NewAddNotificationHandler(groupRepo, studentRepo, notifRepo),
		RemoveNotification: command.NewRemoveNotificationHandler(notifRepo),
		GroupData:          query.NewGetGroupDataHandler(groupRepo, statsRepo, viewCache),
		ListGroups:         query.NewListGroupsHandler(groupRepo),
		LastUpdate:         query.NewLastUpdateHandler(groupRepo),
		ListNotifications:  query.NewListNotificationsHandler(notifRepo),
		Logger:             logger,
		HealthChecker:      newHealthChecker(cfg.App.Version, conn, redisCache),
	}

	server := httpapi.NewServer(cfg.HTTP, cfg.Auth, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("stopped")
	return nil
}

// newLogger builds the process logger from app config.
func newLogger(cfg config.AppConfig) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// newHealthChecker probes the stores the service depends on. Redis is
// optional and only probed when configured.
func newHealthChecker(version string, conn *postgres.Connection, cache *redis.Cache) *httpapi.HealthChecker {
	hc := httpapi.NewHealthChecker(version, 5*time.Second)
	hc.AddCheck("postgres", conn.Ping)
	if cache != nil {
		hc.AddCheck("redis", cache.Ping)
	}
	return hc
}
