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

	"github.com/sharemeal/sharemeal-backend/api/routes"
	"github.com/sharemeal/sharemeal-backend/internal/access"
	"github.com/sharemeal/sharemeal-backend/internal/claims"
	"github.com/sharemeal/sharemeal-backend/internal/mealevents"
	"github.com/sharemeal/sharemeal-backend/internal/meals"
	"github.com/sharemeal/sharemeal-backend/pkg/config"
	"github.com/sharemeal/sharemeal-backend/pkg/db"
	"github.com/sharemeal/sharemeal-backend/pkg/instance"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
	"github.com/sharemeal/sharemeal-backend/pkg/migrate"
	"github.com/sharemeal/sharemeal-backend/pkg/redis"
)

const shutdownTimeout = 20 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured; rate limiting disabled")
	}

	gate := access.NewGate(cfg.FeatureFlags.RequireVerified)
	eventRepo := mealevents.NewRepository(dbClient.DB())
	recorder := mealevents.NewRecorder(eventRepo, logg)
	mealRepo := meals.NewRepository(dbClient.DB())

	mealService, err := meals.NewService(meals.ServiceParams{
		Repo:     mealRepo,
		Events:   eventRepo,
		Recorder: recorder,
		Gate:     gate,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create meal service", err)
		os.Exit(1)
	}

	claimService, err := claims.NewService(claims.ServiceParams{
		Claims:   claims.NewRepository(dbClient.DB()),
		Meals:    mealRepo,
		Tx:       dbClient,
		Recorder: recorder,
		Gate:     gate,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create claim service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, mealService, claimService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	logg.Info(ctx, "api server stopped")
}
