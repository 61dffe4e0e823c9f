package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sharemeal/sharemeal-backend/api/responses"
	"github.com/sharemeal/sharemeal-backend/api/validators"
	"github.com/sharemeal/sharemeal-backend/internal/meals"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
	"github.com/sharemeal/sharemeal-backend/pkg/pagination"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

type createMealRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description *string          `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity" validate:"required"`
	Unit        string           `json:"unit" validate:"required"`
	StorageType *string          `json:"storage_type,omitempty"`
	FoodType    *string          `json:"food_type,omitempty"`
	FoodStatus  *string          `json:"food_status,omitempty"`
	PreparedAt  string           `json:"prepared_at" validate:"required"`
}

func (req createMealRequest) toInput() (meals.CreateMealInput, error) {
	preparedAt, err := validators.ParseTimestamp("prepared_at", req.PreparedAt)
	if err != nil {
		return meals.CreateMealInput{}, err
	}
	return meals.CreateMealInput{
		Title:       validators.SanitizeString(req.Title, maxTitleLength),
		Description: validators.SanitizeOptional(req.Description, maxDescriptionLength),
		Quantity:    *req.Quantity,
		Unit:        req.Unit,
		StorageType: req.StorageType,
		FoodType:    req.FoodType,
		FoodStatus:  req.FoodStatus,
		PreparedAt:  preparedAt,
	}, nil
}

type updateMealRequest struct {
	Title       *string          `json:"title,omitempty"`
	Description *string          `json:"description,omitempty"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Unit        *string          `json:"unit,omitempty"`
}

func (req updateMealRequest) toInput() meals.UpdateMealInput {
	return meals.UpdateMealInput{
		Title:       validators.SanitizeOptional(req.Title, maxTitleLength),
		Description: validators.SanitizeOptional(req.Description, maxDescriptionLength),
		Quantity:    req.Quantity,
		Unit:        req.Unit,
	}
}

// MealCreate lists a new meal for the authenticated provider.
func MealCreate(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "meal service")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		var payload createMealRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meal, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, meal)
	}
}

// MealList pages meals newest first. owner=me narrows to the caller's listings.
func MealList(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "meal service")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}

		input, err := parseListMeals(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Mine = strings.EqualFold(validators.QueryString(r, "owner"), "me")

		list, err := svc.List(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parseListMeals(r *http.Request) (meals.ListMealsInput, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return meals.ListMealsInput{}, err
	}
	return meals.ListMealsInput{
		Status: validators.QueryString(r, "status"),
		Limit:  limit,
		Cursor: validators.QueryString(r, "cursor"),
	}, nil
}

func MealGet(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "meal service")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		mealID, err := validators.ParseUUIDParam(r, "mealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meal, err := svc.Get(r.Context(), actor, mealID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, meal)
	}
}

func MealUpdate(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "meal service")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		mealID, err := validators.ParseUUIDParam(r, "mealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateMealRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		meal, err := svc.Update(r.Context(), actor, mealID, payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, meal)
	}
}

func MealDelete(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "meal service")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		mealID, err := validators.ParseUUIDParam(r, "mealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, mealID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": mealID, "deleted": true})
	}
}

// MealEvents returns the audit trail of one meal.
func MealEvents(svc meals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "meal service")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		mealID, err := validators.ParseUUIDParam(r, "mealId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		events, err := svc.Events(r.Context(), actor, mealID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, events)
	}
}
