package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sharemeal/sharemeal-backend/api/responses"
	"github.com/sharemeal/sharemeal-backend/api/validators"
	"github.com/sharemeal/sharemeal-backend/internal/meals"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
)

type expiryRequest struct {
	ExpiryAt string `json:"expiry_at" validate:"required"`
}

type foodStatusRequest struct {
	FoodStatus string `json:"food_status" validate:"required"`
}

// AIMealGet returns one meal to the AI service.
func AIMealGet(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "meal service")
			return
		}
		mealID, err := validators.ParseUUIDParam(r, "mealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		meal, err := svc.Lookup(r.Context(), mealID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, meal)
	}
}

// AIMealList pages meals for the AI service, optionally filtered by status.
func AIMealList(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "meal service")
			return
		}
		input, err := parseListMeals(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.ListForService(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

type expiryWriter func(svc meals.Service) func(ctx context.Context, id uuid.UUID, expiry time.Time) (*meals.MealDTO, error)

// AISetExpiry records the predicted expiry of a meal that has none yet.
func AISetExpiry(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return expiryHandler(svc, logg, func(svc meals.Service) func(context.Context, uuid.UUID, time.Time) (*meals.MealDTO, error) {
		return svc.SetExpiry
	})
}

// AIUpdateExpiry overwrites the predicted expiry.
func AIUpdateExpiry(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return expiryHandler(svc, logg, func(svc meals.Service) func(context.Context, uuid.UUID, time.Time) (*meals.MealDTO, error) {
		return svc.UpdateExpiry
	})
}

func expiryHandler(svc meals.Service, logg *logger.Logger, write expiryWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "meal service")
			return
		}
		mealID, err := validators.ParseUUIDParam(r, "mealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload expiryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		expiry, err := validators.ParseTimestamp("expiry_at", payload.ExpiryAt)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meal, err := write(svc)(r.Context(), mealID, expiry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, meal)
	}
}

// AIUpdateFoodStatus stores the AI's freshness verdict for a meal.
func AIUpdateFoodStatus(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "meal service")
			return
		}
		mealID, err := validators.ParseUUIDParam(r, "mealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload foodStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meal, err := svc.UpdateFoodStatus(r.Context(), mealID, payload.FoodStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, meal)
	}
}
