package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sharemeal/sharemeal-backend/internal/access"
	"github.com/sharemeal/sharemeal-backend/internal/mealevents"
	"github.com/sharemeal/sharemeal-backend/internal/meals"
	"github.com/sharemeal/sharemeal-backend/pkg/db"
	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
	"github.com/sharemeal/sharemeal-backend/pkg/enums"
	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
	"github.com/sharemeal/sharemeal-backend/pkg/pagination"
)

// txRunner runs fn in one transaction. Every transaction writes the meal row
// before any claim row, so concurrent transitions on one meal always take row
// locks in the same order.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Recorder appends best-effort audit rows.
type Recorder interface {
	Record(ctx context.Context, entry mealevents.Entry)
}

type authorizer interface {
	Authorize(actor access.Actor, op access.Operation) error
}

// Service drives every claim transition together with its paired meal
// transition in one transaction.
type Service interface {
	Claim(ctx context.Context, actor access.Actor, mealID uuid.UUID) (*Result, error)
	MarkPickupReady(ctx context.Context, actor access.Actor, mealID uuid.UUID) (*Result, error)
	ConfirmPickup(ctx context.Context, actor access.Actor, claimID uuid.UUID) (*Result, error)
	ConfirmCompletion(ctx context.Context, actor access.Actor, claimID uuid.UUID, beneficiaries int) (*Result, error)
	Cancel(ctx context.Context, actor access.Actor, claimID uuid.UUID) (*Result, error)
	ListMine(ctx context.Context, actor access.Actor, input ListClaimsInput) (*ClaimList, error)

	SystemTransitions
}

// SystemTransitions are the time-based transitions applied by the guard. Each
// reports whether it changed anything; a row that no longer qualifies is a
// no-op, not an error.
type SystemTransitions interface {
	ExpireMeal(ctx context.Context, mealID uuid.UUID) (bool, error)
	ExpireReservation(ctx context.Context, claimID uuid.UUID, cutoff time.Time) (bool, error)
	CancelStalePickup(ctx context.Context, mealID uuid.UUID, cutoff time.Time) (bool, error)
}

// ServiceParams groups the dependencies of the claims service.
type ServiceParams struct {
	Claims   Repository
	Meals    meals.Repository
	Tx       txRunner
	Recorder Recorder
	Gate     authorizer
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	claims   Repository
	meals    meals.Repository
	tx       txRunner
	recorder Recorder
	gate     authorizer
	logg     *logger.Logger
	now      func() time.Time
}

// errLostRace aborts a transaction whose compare-and-swap matched no row.
var errLostRace = errors.New("claims: concurrent transition")

// errSkip aborts a system transaction whose target no longer qualifies.
var errSkip = errors.New("claims: no longer eligible")

// NewService builds the claims service.
func NewService(params ServiceParams) (Service, error) {
	if params.Claims == nil {
		return nil, fmt.Errorf("claims repository required")
	}
	if params.Meals == nil {
		return nil, fmt.Errorf("meals repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}
	gate := params.Gate
	if gate == nil {
		gate = access.Gate{}
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		claims:   params.Claims,
		meals:    params.Meals,
		tx:       params.Tx,
		recorder: params.Recorder,
		gate:     gate,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Claim(ctx context.Context, actor access.Actor, mealID uuid.UUID) (*Result, error) {
	if err := s.gate.Authorize(actor, access.OpClaimMeal); err != nil {
		return nil, err
	}
	meal, err := s.loadMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if meal.OwnerID == actor.ID {
		return nil, pkgerrors.InvalidState("providers cannot claim their own meal", string(meal.Status))
	}
	rule := meals.RuleFor(meals.TriggerClaim)
	if !rule.Allows(meal.Status) {
		return nil, pkgerrors.InvalidState("meal is not available", string(meal.Status))
	}

	now := s.now()
	claim := &models.Claim{
		ID:         uuid.New(),
		MealID:     meal.ID,
		ClaimantID: actor.ID,
		Status:     enums.ClaimStatusActive,
		ClaimedAt:  now,
		UpdatedAt:  now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		mealRepo := s.meals.WithTx(tx)
		claimRepo := s.claims.WithTx(tx)

		ok, err := mealRepo.TransitionStatus(ctx, meal.ID, rule, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim meal")
		}
		if !ok {
			return errLostRace
		}

		existing, err := claimRepo.FindActiveByMeal(ctx, meal.ID)
		if err == nil && existing != nil {
			return errLostRace
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check active claim")
		}

		if err := claimRepo.Create(ctx, claim); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errLostRace
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create claim")
		}
		return nil
	})
	if err != nil {
		return nil, s.mapTxError(ctx, err, meal.ID, "meal was claimed by someone else")
	}

	s.record(ctx, meal.ID, mealevents.ActorRef(actor.ID), meal.Status, rule.To, "Meal claimed")
	s.info(ctx, meal.ID, claim.ID, "claims.created")
	return s.result(ctx, claim.ID)
}

func (s *service) MarkPickupReady(ctx context.Context, actor access.Actor, mealID uuid.UUID) (*Result, error) {
	if err := s.gate.Authorize(actor, access.OpMarkPickupReady); err != nil {
		return nil, err
	}
	meal, err := s.loadMeal(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if meal.OwnerID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the meal owner can mark it ready")
	}
	rule := meals.RuleFor(meals.TriggerMarkReady)
	if !rule.Allows(meal.Status) {
		return nil, pkgerrors.InvalidState("meal must be CLAIMED to mark it ready", string(meal.Status))
	}

	now := s.now()
	var claimID uuid.UUID
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		active, err := s.claims.WithTx(tx).FindActiveByMeal(ctx, meal.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.InvalidState("meal has no active claim", string(meal.Status))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load active claim")
		}
		claimID = active.ID

		ok, err := s.meals.WithTx(tx).TransitionStatus(ctx, meal.ID, rule, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark pickup ready")
		}
		if !ok {
			return errLostRace
		}
		return nil
	})
	if err != nil {
		return nil, s.mapTxError(ctx, err, meal.ID, "meal changed while marking it ready")
	}

	s.record(ctx, meal.ID, mealevents.ActorRef(actor.ID), meal.Status, rule.To, "Meal marked ready for pickup")
	s.info(ctx, meal.ID, claimID, "claims.pickup_ready")
	return s.result(ctx, claimID)
}

func (s *service) ConfirmPickup(ctx context.Context, actor access.Actor, claimID uuid.UUID) (*Result, error) {
	if err := s.gate.Authorize(actor, access.OpConfirmPickup); err != nil {
		return nil, err
	}
	claim, meal, err := s.loadOwnActiveClaim(ctx, actor, claimID)
	if err != nil {
		return nil, err
	}
	rule := meals.RuleFor(meals.TriggerConfirmPickup)
	if !rule.Allows(meal.Status) {
		return nil, pkgerrors.InvalidState("meal must be PICKUP_READY to confirm pickup", string(meal.Status))
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.meals.WithTx(tx).TransitionStatus(ctx, meal.ID, rule, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm pickup")
		}
		if !ok {
			return errLostRace
		}
		ok, err = s.claims.WithTx(tx).UpdateIfStatus(ctx, claim.ID, enums.ClaimStatusActive, map[string]any{
			"picked_up_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record pickup")
		}
		if !ok {
			return errLostRace
		}
		return nil
	})
	if err != nil {
		return nil, s.mapTxError(ctx, err, meal.ID, "claim changed while confirming pickup")
	}

	s.record(ctx, meal.ID, mealevents.ActorRef(actor.ID), meal.Status, rule.To, "Pickup confirmed")
	s.info(ctx, meal.ID, claim.ID, "claims.picked_up")
	return s.result(ctx, claim.ID)
}

func (s *service) ConfirmCompletion(ctx context.Context, actor access.Actor, claimID uuid.UUID, beneficiaries int) (*Result, error) {
	if beneficiaries <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidFormat, "beneficiaries_count must be a positive integer").
			WithDetails(map[string]any{"field": "beneficiaries_count"})
	}
	if err := s.gate.Authorize(actor, access.OpConfirmCompletion); err != nil {
		return nil, err
	}
	claim, meal, err := s.loadOwnActiveClaim(ctx, actor, claimID)
	if err != nil {
		return nil, err
	}
	rule := meals.RuleFor(meals.TriggerConfirmCompletion)
	if !rule.Allows(meal.Status) {
		return nil, pkgerrors.InvalidState("meal must be PICKED_UP to confirm completion", string(meal.Status))
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.meals.WithTx(tx).TransitionStatus(ctx, meal.ID, rule, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm completion")
		}
		if !ok {
			return errLostRace
		}
		ok, err = s.claims.WithTx(tx).UpdateIfStatus(ctx, claim.ID, enums.ClaimStatusActive, map[string]any{
			"status":              string(enums.ClaimStatusCompleted),
			"beneficiaries_count": beneficiaries,
			"completed_at":        now,
			"updated_at":          now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete claim")
		}
		if !ok {
			return errLostRace
		}
		return nil
	})
	if err != nil {
		return nil, s.mapTxError(ctx, err, meal.ID, "claim changed while confirming completion")
	}

	s.record(ctx, meal.ID, mealevents.ActorRef(actor.ID), meal.Status, rule.To,
		fmt.Sprintf("Distribution completed for %d beneficiaries", beneficiaries))
	s.info(ctx, meal.ID, claim.ID, "claims.completed")
	return s.result(ctx, claim.ID)
}

// Cancel always reverts the meal to AVAILABLE, including from PICKED_UP.
func (s *service) Cancel(ctx context.Context, actor access.Actor, claimID uuid.UUID) (*Result, error) {
	if err := s.gate.Authorize(actor, access.OpCancelClaim); err != nil {
		return nil, err
	}
	claim, meal, err := s.loadOwnActiveClaim(ctx, actor, claimID)
	if err != nil {
		return nil, err
	}
	rule := meals.RuleFor(meals.TriggerCancelClaim)
	if !rule.Allows(meal.Status) {
		return nil, pkgerrors.InvalidState("meal is not held by this claim", string(meal.Status))
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.meals.WithTx(tx).TransitionStatus(ctx, meal.ID, rule, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release meal")
		}
		if !ok {
			return errLostRace
		}
		ok, err = s.claims.WithTx(tx).UpdateIfStatus(ctx, claim.ID, enums.ClaimStatusActive, map[string]any{
			"status":       string(enums.ClaimStatusCancelled),
			"cancelled_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel claim")
		}
		if !ok {
			return errLostRace
		}
		return nil
	})
	if err != nil {
		return nil, s.mapTxError(ctx, err, meal.ID, "claim changed while cancelling")
	}

	s.record(ctx, meal.ID, mealevents.ActorRef(actor.ID), meal.Status, rule.To, "Claim cancelled by claimant")
	s.info(ctx, meal.ID, claim.ID, "claims.cancelled")
	return s.result(ctx, claim.ID)
}

func (s *service) ListMine(ctx context.Context, actor access.Actor, input ListClaimsInput) (*ClaimList, error) {
	if err := s.gate.Authorize(actor, access.OpListMyClaims); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInvalidParam, err, err.Error()).
			WithDetails(map[string]any{"field": "cursor"})
	}

	rows, next, err := s.claims.ListByClaimant(ctx, actor.ID, pagination.Params{Limit: input.Limit, Cursor: input.Cursor}, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list claims")
	}

	list := &ClaimList{Items: make([]ClaimDTO, 0, len(rows))}
	for _, row := range rows {
		list.Items = append(list.Items, ToDTO(row))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

// ExpireMeal moves an AVAILABLE or CLAIMED meal past its expiry to EXPIRED and
// cancels the claim it held. The meal stays EXPIRED.
func (s *service) ExpireMeal(ctx context.Context, mealID uuid.UUID) (bool, error) {
	meal, err := s.loadMeal(ctx, mealID)
	if err != nil {
		return false, err
	}
	now := s.now()
	if meal.ExpiryAt == nil || !meal.ExpiryAt.Before(now) || !meals.RuleFor(meals.TriggerExpire).Allows(meal.Status) {
		return false, nil
	}
	rule := meals.Rule{From: []enums.MealStatus{meal.Status}, To: enums.MealStatusExpired}

	var cancelled int64
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.meals.WithTx(tx).TransitionStatus(ctx, meal.ID, rule, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire meal")
		}
		if !ok {
			return errSkip
		}
		cancelled, err = s.claims.WithTx(tx).CancelActiveForMeal(ctx, meal.ID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel claim of expired meal")
		}
		return nil
	})
	if errors.Is(err, errSkip) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	note := "Meal expired automatically"
	if cancelled > 0 {
		note = "Meal expired automatically; active claim cancelled"
	}
	s.record(ctx, meal.ID, nil, meal.Status, rule.To, note)
	return true, nil
}

// ExpireReservation cancels an ACTIVE claim with no pickup that was made before
// cutoff and reverts its meal to AVAILABLE.
func (s *service) ExpireReservation(ctx context.Context, claimID uuid.UUID, cutoff time.Time) (bool, error) {
	claim, err := s.loadClaim(ctx, claimID)
	if err != nil {
		return false, err
	}
	if claim.Status != enums.ClaimStatusActive || claim.PickedUpAt != nil || !claim.ClaimedAt.Before(cutoff) {
		return false, nil
	}
	meal, err := s.loadMeal(ctx, claim.MealID)
	if err != nil {
		return false, err
	}
	if !meals.RuleFor(meals.TriggerReservationTimeout).Allows(meal.Status) {
		return false, nil
	}
	rule := meals.Rule{From: []enums.MealStatus{meal.Status}, To: enums.MealStatusAvailable}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.meals.WithTx(tx).TransitionStatus(ctx, meal.ID, rule, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release meal")
		}
		if !ok {
			return errSkip
		}
		ok, err = s.claims.WithTx(tx).UpdateIfStatus(ctx, claim.ID, enums.ClaimStatusActive, map[string]any{
			"status":       string(enums.ClaimStatusCancelled),
			"cancelled_at": now,
			"updated_at":   now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel expired reservation")
		}
		if !ok {
			return errSkip
		}
		return nil
	})
	if errors.Is(err, errSkip) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.record(ctx, meal.ID, nil, meal.Status, rule.To, "Reservation window elapsed without pickup; claim cancelled")
	return true, nil
}

// CancelStalePickup cancels a meal left PICKUP_READY since before cutoff and
// cancels the claim it held.
func (s *service) CancelStalePickup(ctx context.Context, mealID uuid.UUID, cutoff time.Time) (bool, error) {
	meal, err := s.loadMeal(ctx, mealID)
	if err != nil {
		return false, err
	}
	rule := meals.RuleFor(meals.TriggerStalePickupTimeout)
	if !rule.Allows(meal.Status) || !meal.UpdatedAt.Before(cutoff) {
		return false, nil
	}

	now := s.now()
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.meals.WithTx(tx).TransitionStatus(ctx, meal.ID, rule, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel stale meal")
		}
		if !ok {
			return errSkip
		}
		if _, err := s.claims.WithTx(tx).CancelActiveForMeal(ctx, meal.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel claim of stale meal")
		}
		return nil
	})
	if errors.Is(err, errSkip) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.record(ctx, meal.ID, nil, meal.Status, rule.To, "Pickup not completed in time; meal cancelled")
	return true, nil
}

// loadOwnActiveClaim loads a claim owned by actor that is still ACTIVE, plus its meal.
func (s *service) loadOwnActiveClaim(ctx context.Context, actor access.Actor, claimID uuid.UUID) (*models.Claim, *models.Meal, error) {
	claim, err := s.loadClaim(ctx, claimID)
	if err != nil {
		return nil, nil, err
	}
	if claim.ClaimantID != actor.ID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the claimant can act on this claim")
	}
	meal, err := s.loadMeal(ctx, claim.MealID)
	if err != nil {
		return nil, nil, err
	}
	if claim.Status != enums.ClaimStatusActive {
		return nil, nil, pkgerrors.InvalidState("claim is no longer active", string(meal.Status)).
			WithDetails(map[string]any{
				"current_status": string(meal.Status),
				"claim_status":   string(claim.Status),
			})
	}
	return claim, meal, nil
}

func (s *service) loadClaim(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	claim, err := s.claims.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "claim not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load claim")
	}
	return claim, nil
}

func (s *service) loadMeal(ctx context.Context, id uuid.UUID) (*models.Meal, error) {
	meal, err := s.meals.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load meal")
	}
	return meal, nil
}

// mapTxError turns a lost race into CONFLICT carrying the status the winner
// left behind. Typed errors pass through.
func (s *service) mapTxError(ctx context.Context, err error, mealID uuid.UUID, message string) error {
	if !errors.Is(err, errLostRace) {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transaction failed")
	}
	current := ""
	if meal, loadErr := s.meals.FindByID(ctx, mealID); loadErr == nil {
		current = string(meal.Status)
	}
	return pkgerrors.Conflict(message, current)
}

func (s *service) result(ctx context.Context, claimID uuid.UUID) (*Result, error) {
	claim, err := s.loadClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	meal, err := s.loadMeal(ctx, claim.MealID)
	if err != nil {
		return nil, err
	}
	return &Result{Claim: ToDTO(*claim), Meal: meals.ToDTO(*meal)}, nil
}

func (s *service) record(ctx context.Context, mealID uuid.UUID, changedBy *uuid.UUID, from, to enums.MealStatus, note string) {
	s.recorder.Record(ctx, mealevents.Entry{
		MealID:    mealID,
		ChangedBy: changedBy,
		From:      from,
		To:        to,
		Note:      note,
	})
}

func (s *service) info(ctx context.Context, mealID, claimID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithMealID(ctx, mealID.String())
	logCtx = s.logg.WithClaimID(logCtx, claimID.String())
	s.logg.Info(logCtx, msg)
}
