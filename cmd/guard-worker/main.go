package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sharemeal/sharemeal-backend/internal/access"
	"github.com/sharemeal/sharemeal-backend/internal/claims"
	"github.com/sharemeal/sharemeal-backend/internal/guard"
	"github.com/sharemeal/sharemeal-backend/internal/mealevents"
	"github.com/sharemeal/sharemeal-backend/internal/meals"
	"github.com/sharemeal/sharemeal-backend/pkg/config"
	"github.com/sharemeal/sharemeal-backend/pkg/db"
	"github.com/sharemeal/sharemeal-backend/pkg/instance"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
	"github.com/sharemeal/sharemeal-backend/pkg/metrics"
	"github.com/sharemeal/sharemeal-backend/pkg/migrate"
	"github.com/sharemeal/sharemeal-backend/pkg/redis"
)

const (
	serviceKind = "guard-worker"
	lockName    = "guard-sweep"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	var (
		lock      guard.Lock
		heartbeat *redis.Client
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		redisLock, err := guard.NewRedisLock(redisClient, redisClient.LockKey(lockName), cfg.Guard.LockTTL)
		if err != nil {
			logg.Error(context.Background(), "failed to create guard lock", err)
			os.Exit(1)
		}
		lock = redisLock
		heartbeat = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured; guard lock is process-local")
		lock = guard.NewLocalLock()
	}

	eventRepo := mealevents.NewRepository(dbClient.DB())
	mealRepo := meals.NewRepository(dbClient.DB())
	claimRepo := claims.NewRepository(dbClient.DB())

	claimService, err := claims.NewService(claims.ServiceParams{
		Claims:   claimRepo,
		Meals:    mealRepo,
		Tx:       dbClient,
		Recorder: mealevents.NewRecorder(eventRepo, logg),
		Gate:     access.NewGate(cfg.FeatureFlags.RequireVerified),
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create claim service", err)
		os.Exit(1)
	}

	guardMetrics := metrics.NewGuardMetrics(prometheus.DefaultRegisterer)
	sweeper, err := guard.NewSweeper(guard.SweeperParams{
		Logger:  logg,
		Metrics: guardMetrics,
		Sweeps: []guard.Sweep{
			guard.NewExpireMealsSweep(mealRepo, claimService, 0),
			guard.NewReservationTimeoutSweep(claimRepo, claimService, cfg.Guard.ReservationTimeout, 0),
			guard.NewStalePickupSweep(mealRepo, claimService, cfg.Guard.StalePickupTimeout, 0),
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create guard sweeper", err)
		os.Exit(1)
	}

	params := guard.SchedulerParams{
		Logger:     logg,
		Sweeper:    sweeper,
		Lock:       lock,
		Metrics:    guardMetrics,
		Schedule:   cfg.Guard.Schedule,
		StartDelay: cfg.Guard.StartDelay,
	}
	if heartbeat != nil {
		params.Heartbeat = heartbeat
	}
	scheduler, err := guard.NewScheduler(params)
	if err != nil {
		logg.Error(context.Background(), "failed to create guard scheduler", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"instance":    instance.ID(),
	})

	metricsServer := &http.Server{
		Addr:              ":" + cfg.Guard.MetricsPort,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logg.Info(ctx, "starting guard worker")

	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "guard worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "guard worker shutting down gracefully")
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
