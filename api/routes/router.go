package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sharemeal/sharemeal-backend/api/controllers"
	"github.com/sharemeal/sharemeal-backend/api/middleware"
	"github.com/sharemeal/sharemeal-backend/internal/claims"
	"github.com/sharemeal/sharemeal-backend/internal/meals"
	"github.com/sharemeal/sharemeal-backend/pkg/config"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
	"github.com/sharemeal/sharemeal-backend/pkg/redis"
)

// NewRouter wires the HTTP surface. redisClient may be nil, which disables
// rate limiting and reports Redis as disabled in readiness.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	mealService meals.Service,
	claimService claims.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)
	if cfg.HTTP.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.HTTP.RequestTimeout))
	}

	var redisPinger controllers.Pinger
	var rateStore middleware.RateLimitStore
	if redisClient != nil {
		redisPinger = redisClient
		rateStore = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(
			middleware.NewRateLimitPolicy("api", cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitMax),
			rateStore,
			logg,
		))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/meals", func(r chi.Router) {
				r.Get("/", controllers.MealList(mealService, logg))
				r.Post("/", controllers.MealCreate(mealService, logg))
				r.Get("/{mealId}", controllers.MealGet(mealService, logg))
				r.Patch("/{mealId}", controllers.MealUpdate(mealService, logg))
				r.Delete("/{mealId}", controllers.MealDelete(mealService, logg))
				r.Get("/{mealId}/events", controllers.MealEvents(mealService, logg))
			})

			r.Route("/claims", func(r chi.Router) {
				r.Get("/my", controllers.ClaimListMine(claimService, logg))
				r.Post("/meal/{mealId}", controllers.ClaimMeal(claimService, logg))
				r.Patch("/meal/{mealId}/ready", controllers.ClaimMarkReady(claimService, logg))
				r.Patch("/{claimId}/pickup", controllers.ClaimConfirmPickup(claimService, logg))
				r.Patch("/{claimId}/complete", controllers.ClaimConfirmCompletion(claimService, logg))
				r.Patch("/{claimId}/cancel", controllers.ClaimCancel(claimService, logg))
			})
		})

		r.Route("/ai", func(r chi.Router) {
			r.Use(middleware.ServiceAuth(cfg.ServiceAuth, logg))

			r.Get("/meals", controllers.AIMealList(mealService, logg))
			r.Get("/meals/{mealId}", controllers.AIMealGet(mealService, logg))
			r.Post("/meals/{mealId}/expiry", controllers.AISetExpiry(mealService, logg))
			r.Patch("/meals/{mealId}/expiry", controllers.AIUpdateExpiry(mealService, logg))
			r.Patch("/meals/{mealId}/food-status", controllers.AIUpdateFoodStatus(mealService, logg))
		})
	})

	return r
}
