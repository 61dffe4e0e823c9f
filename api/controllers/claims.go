package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/sharemeal/sharemeal-backend/api/responses"
	"github.com/sharemeal/sharemeal-backend/api/validators"
	"github.com/sharemeal/sharemeal-backend/internal/access"
	"github.com/sharemeal/sharemeal-backend/internal/claims"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
	"github.com/sharemeal/sharemeal-backend/pkg/pagination"
)

type completeClaimRequest struct {
	BeneficiariesCount json.RawMessage `json:"beneficiaries_count"`
}

type claimAction func(svc claims.Service, r *http.Request, actor access.Actor, id uuid.UUID) (*claims.Result, error)

// claimHandler resolves the actor and path id, runs action and renders the result.
func claimHandler(svc claims.Service, logg *logger.Logger, param string, status int, action claimAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "claim service")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseUUIDParam(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := action(svc, r, actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

// ClaimMeal reserves an AVAILABLE meal for the authenticated claimant.
func ClaimMeal(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return claimHandler(svc, logg, "mealId", http.StatusCreated, func(svc claims.Service, r *http.Request, actor access.Actor, id uuid.UUID) (*claims.Result, error) {
		return svc.Claim(r.Context(), actor, id)
	})
}

// ClaimMarkReady lets the meal owner signal the claimed meal is ready.
func ClaimMarkReady(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return claimHandler(svc, logg, "mealId", http.StatusOK, func(svc claims.Service, r *http.Request, actor access.Actor, id uuid.UUID) (*claims.Result, error) {
		return svc.MarkPickupReady(r.Context(), actor, id)
	})
}

func ClaimConfirmPickup(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return claimHandler(svc, logg, "claimId", http.StatusOK, func(svc claims.Service, r *http.Request, actor access.Actor, id uuid.UUID) (*claims.Result, error) {
		return svc.ConfirmPickup(r.Context(), actor, id)
	})
}

func ClaimConfirmCompletion(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return claimHandler(svc, logg, "claimId", http.StatusOK, func(svc claims.Service, r *http.Request, actor access.Actor, id uuid.UUID) (*claims.Result, error) {
		var payload completeClaimRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		count, err := validators.ParsePositiveCount("beneficiaries_count", payload.BeneficiariesCount)
		if err != nil {
			return nil, err
		}
		return svc.ConfirmCompletion(r.Context(), actor, id, count)
	})
}

func ClaimCancel(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return claimHandler(svc, logg, "claimId", http.StatusOK, func(svc claims.Service, r *http.Request, actor access.Actor, id uuid.UUID) (*claims.Result, error) {
		return svc.Cancel(r.Context(), actor, id)
	})
}

// ClaimListMine pages the caller's own claims, newest first.
func ClaimListMine(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "claim service")
			return
		}
		actor, ok := requireActor(w, r, logg)
		if !ok {
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListMine(r.Context(), actor, claims.ListClaimsInput{
			Limit:  limit,
			Cursor: validators.QueryString(r, "cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
