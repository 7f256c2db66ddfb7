package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ratex/internal/assignment"
	"ratex/internal/commands"
	"ratex/internal/discord"
	"ratex/internal/repository"
	"ratex/internal/scheduler"
	"ratex/migrations"
	"ratex/pkg/audit"
	"ratex/pkg/cache"
	"ratex/pkg/config"
	"ratex/pkg/database"
	"ratex/pkg/logger"
	"ratex/pkg/metrics"
	"ratex/pkg/ratelimit"
	"ratex/pkg/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("error")
		logger.Fatal("Failed to load config", "error", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	logger.Log.Info("Starting ratex",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Телеметрия
	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.Tracing.ServiceName,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("Failed to init telemetry", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Log.Warn("Failed to shutdown telemetry", "error", err)
				}
			}()
		}
	}

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	metrics.Get().SetServiceInfo(cfg.App.Version, cfg.App.Environment)

	if cfg.Metrics.Enabled {
		go func() {
			logger.Log.Info("Metrics server listening", "port", cfg.Metrics.Port)
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil {
				logger.Log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Хранилище
	repos, err := repository.NewRepositories(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err)
	}
	defer repos.Close()

	if db := repos.DB(); db != nil && cfg.Database.AutoMigrate {
		if err := database.RunMigrations(ctx, db.Pool(), &cfg.Database, migrations.FS, "postgres"); err != nil {
			logger.Fatal("Failed to run migrations", "error", err)
		}
	}
	logger.Info("Storage initialized", "driver", cfg.Database.Driver)

	// Аудит команд
	auditLogger, err := audit.New(&audit.Config{
		Enabled:     cfg.Audit.Enabled,
		Backend:     cfg.Audit.Backend,
		FilePath:    cfg.Audit.FilePath,
		BufferSize:  cfg.Audit.BufferSize,
		FlushPeriod: cfg.Audit.FlushPeriod,
	})
	if err != nil {
		logger.Fatal("Failed to initialize audit log", "error", err)
	}
	defer func() {
		if err := auditLogger.Close(); err != nil {
			logger.Log.Warn("Failed to close audit log", "error", err)
		}
	}()
	audit.SetGlobal(auditLogger)

	// Cooldown команд
	var limits *ratelimit.CommandLimits
	if cfg.RateLimit.Enabled {
		limits = ratelimit.NewCommandLimits(&ratelimit.Config{
			Requests:        cfg.RateLimit.Requests,
			Window:          cfg.RateLimit.Window,
			Strategy:        cfg.RateLimit.Strategy,
			Backend:         cfg.RateLimit.Backend,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
			RedisAddr:       cfg.RateLimit.RedisAddr,
		})
	}

	// Кэш имён гильдий для отчётов
	guildCache, err := cache.New(cache.FromConfig(&cfg.Cache))
	if err != nil {
		logger.Fatal("Failed to initialize cache", "error", err)
	}
	defer func() {
		if err := guildCache.Close(); err != nil {
			logger.Log.Warn("Failed to close cache", "error", err)
		}
	}()
	guildNames := cache.NewGuildNameCache(guildCache, cfg.Cache.DefaultTTL)

	engine := assignment.NewEngine(nil)

	mux := discord.NewMux(discord.CommandMiddleware(&discord.MiddlewareConfig{
		EnableTracing: cfg.Tracing.Enabled,
		EnableAudit:   cfg.Audit.Enabled,
		Limits:        limits,
		AuditLogger:   auditLogger,
	}), cfg.Scheduler.ConfirmTimeout)

	session, err := discord.NewSession(&cfg.Discord, mux, guildNames)
	if err != nil {
		logger.Fatal("Failed to create gateway session", "error", err)
	}

	handlers := commands.New(commands.Config{
		Exchanges:      repos.Exchanges,
		Submissions:    repos.Submissions,
		Played:         repos.Played,
		Platform:       session,
		Engine:         engine,
		Export:         cfg.Export,
		ConfirmTimeout: cfg.Scheduler.ConfirmTimeout,
	})
	handlers.Route(mux)

	// Планировщик подписывается на изменения расписания при создании,
	// поэтому собирается до открытия gateway соединения.
	sched := scheduler.New(scheduler.Config{
		Exchanges:      repos.Exchanges,
		Submissions:    repos.Submissions,
		Played:         repos.Played,
		Platform:       session,
		Engine:         engine,
		StartThreshold: cfg.Scheduler.StartThreshold,
		EndThreshold:   cfg.Scheduler.EndThreshold,
		DefaultSleep:   cfg.Scheduler.DefaultSleep,
	})

	if err := session.Start(ctx); err != nil {
		logger.Fatal("Failed to start gateway session", "error", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Log.Warn("Failed to close gateway session", "error", err)
		}
	}()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Error("Scheduler exited with error", "error", err)
		}
	}()

	logger.Log.Info("ratex is up", "commands", len(mux.Commands()))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	cancel()

	// Планировщик должен остановиться до закрытия пула соединений
	select {
	case <-schedDone:
	case <-time.After(shutdownTimeout):
		logger.Log.Warn("Scheduler did not stop in time")
	}

	logger.Log.Info("Stopped")
}
