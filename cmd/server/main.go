package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/statsetl/internal/config"
	"github.com/JonMunkholm/statsetl/internal/etl"
	"github.com/JonMunkholm/statsetl/internal/load"
	"github.com/JonMunkholm/statsetl/internal/logging"
	"github.com/JonMunkholm/statsetl/internal/metrics"
	"github.com/JonMunkholm/statsetl/internal/migrations"
	"github.com/JonMunkholm/statsetl/internal/sheet"
	"github.com/JonMunkholm/statsetl/internal/store/postgres"
	"github.com/JonMunkholm/statsetl/internal/validation"
	"github.com/JonMunkholm/statsetl/internal/web"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("configuration loaded", "config", cfg.String())

	thresholds, err := cfg.Thresholds()
	if err != nil {
		logger.Error("failed to load validation thresholds", "path", cfg.Validation.ConfigPath, "error", err)
		os.Exit(1)
	}

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(cfg.Database.URL); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		version, _, _ := migrations.Version(cfg.Database.URL)
		logger.Info("migrations applied", "version", version)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		logger.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := postgres.New(pool)
	loader := load.NewLoader(store,
		load.WithUnitTimeout(cfg.Run.UnitTimeout),
		load.WithLogger(logger),
		load.WithObserver(m),
	)
	orch := etl.NewOrchestrator(sheet.NewReader(logger), validation.NewPipeline(thresholds), loader, logger)
	service := etl.NewService(orch, etl.ServiceConfig{
		MaxConcurrent: cfg.Run.MaxConcurrent,
		MaxWait:       cfg.Run.MaxWaitTime,
		RunTimeout:    cfg.Run.Timeout,
		Retention:     cfg.Run.Retention,
	}, logger, m)
	metrics.ActiveRuns(reg, service)

	server := web.NewServer(service, cfg, web.Options{
		Pinger:  store,
		Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if status := service.LimiterStatus(); status.Active > 0 {
			logger.Info("waiting for runs to complete", "active", status.Active)
			if err := service.WaitForRuns(shutdownCtx); err != nil {
				logger.Warn("runs did not complete in time", "error", err)
			} else {
				logger.Info("all runs completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", "error", err)
		}
	}()

	logger.Info("server starting", "addr", cfg.Server.Addr(), "home_team", thresholds.HomeTeam)
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
