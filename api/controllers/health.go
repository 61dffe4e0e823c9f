package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/sharemeal/sharemeal-backend/api/responses"
	"github.com/sharemeal/sharemeal-backend/pkg/config"
	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is a dependency probed by the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShareMeal-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and, when configured, Redis. A nil redis
// pinger is reported as disabled.
func HealthReady(cfg *config.Config, logg *logger.Logger, db Pinger, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ShareMeal-Env", cfg.App.Env)
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{"database": "ok", "redis": "disabled"}
		if db == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "database not configured"))
			return
		}
		if err := db.Ping(ctx); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}
		if redis != nil {
			if err := redis.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable"))
				return
			}
			checks["redis"] = "ok"
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
