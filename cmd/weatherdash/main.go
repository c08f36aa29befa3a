// Package main provides the entrypoint for the weatherdash view host.
package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/weatherdash/weatherdash/internal/api"
	"github.com/weatherdash/weatherdash/internal/api/feed"
	"github.com/weatherdash/weatherdash/internal/api/handler"
	"github.com/weatherdash/weatherdash/internal/api/middleware"
	"github.com/weatherdash/weatherdash/internal/app"
	"github.com/weatherdash/weatherdash/internal/config"
	"github.com/weatherdash/weatherdash/internal/dashboard"
	"github.com/weatherdash/weatherdash/internal/database"
	"github.com/weatherdash/weatherdash/internal/featureflags"
	"github.com/weatherdash/weatherdash/internal/mapview"
	"github.com/weatherdash/weatherdash/internal/persistence"
	"github.com/weatherdash/weatherdash/internal/provider/resilience"
	"github.com/weatherdash/weatherdash/internal/scheduler"
	"github.com/weatherdash/weatherdash/internal/storage"
	"github.com/weatherdash/weatherdash/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "weatherdash"

func main() {
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting weatherdash")

	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		Mode:           "host",
		StorageBackend: cfg.StorageBackend,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.OTelEnabled {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}
	providerMetrics, err := telemetry.NewProviderMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize provider metrics")
		os.Exit(1)
	}

	// View state storage. The postgres backend also holds the feature flags.
	var pool *pgxpool.Pool
	if cfg.StorageBackend == storage.BackendPostgres {
		pool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		log.Info().
			Str("host", cfg.Database.Host).
			Int("port", cfg.Database.Port).
			Str("database", cfg.Database.Database).
			Msg("database connected")
	}

	store, err := storage.Open(ctx, storage.Config{
		Backend:    cfg.StorageBackend,
		SQLitePath: cfg.SQLitePath,
		Pool:       pool,
		Logger:     log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open view state storage")
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	var ffRepo featureflags.Repository = featureflags.NewInMemoryRepository()
	if pool != nil {
		pgRepo := featureflags.NewPostgresRepository(pool)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to prepare feature flag schema")
		}
		ffRepo = pgRepo
	}
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: ffRepo,
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	registry := resilience.NewRegistry()
	providers := app.NewProviders(app.ProvidersConfig{
		Config:       cfg,
		Registry:     registry,
		FeatureFlags: ffService,
		Metrics:      providerMetrics,
		Logger:       log,
	})
	weatherService := providers.Weather
	log.Info().Msg("providers initialized")

	chartFeed := feed.New(log)
	dash := dashboard.New(dashboard.Config{
		Weather: weatherService,
		Locator: providers.Locator,
		Persistence: persistence.New(persistence.Config{
			Store:  store,
			Logger: log,
		}),
		Renderer: chartFeed,
		Logger:   log,
	})
	defer dash.Close()

	picker := mapview.NewPicker(mapview.Config{
		Renderer: mapview.LogRenderer{Logger: log},
		OnSelect: api.SelectOnDashboard(dash),
		Logger:   log,
	})
	unbind := api.BindPicker(dash, picker)
	defer unbind()

	refreshCfg := scheduler.DefaultRefreshConfig()
	refreshCfg.Interval = cfg.RefreshInterval
	refreshJob := scheduler.NewRefreshJob(scheduler.RefreshJobConfig{
		Config:       refreshCfg,
		Logger:       log,
		Dashboard:    dash,
		Warmer:       weatherService,
		FeatureFlags: ffService,
	})
	sched := scheduler.New(refreshJob, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start refresh scheduler")
	}
	defer sched.Stop()

	router := api.NewRouter(api.RouterConfig{
		Logger:       log,
		Metrics:      metrics,
		LoopbackOnly: true,
		Ops: handler.OpsConfig{
			Version:        Version,
			BuildTime:      BuildTime,
			Ready:          dash,
			Registry:       registry,
			Cache:          weatherService,
			Refresh:        refreshJob,
			StorageBackend: cfg.StorageBackend,
			FeatureFlags:   ffService,
		},
		Dashboard:          dash,
		Picker:             picker,
		ChartFeed:          chartFeed,
		FeatureFlagService: ffService,
		EventHeartbeat:     handler.DefaultHeartbeat,
	})

	// Cancelled on shutdown so open event streams end.
	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Resolve the initial location while the host already serves the
	// loading state.
	bootCtx, cancelBoot := context.WithCancel(ctx)
	defer cancelBoot()
	go func() {
		if err := dash.Bootstrap(bootCtx); err != nil {
			log.Warn().Err(err).Msg("initial location could not be loaded")
			return
		}
		log.Info().Msg("dashboard ready")
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	cancelBoot()
	cancelBase()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
