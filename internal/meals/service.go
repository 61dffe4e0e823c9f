package meals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sharemeal/sharemeal-backend/internal/access"
	"github.com/sharemeal/sharemeal-backend/internal/mealevents"
	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
	"github.com/sharemeal/sharemeal-backend/pkg/enums"
	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
	"github.com/sharemeal/sharemeal-backend/pkg/logger"
	"github.com/sharemeal/sharemeal-backend/pkg/pagination"
)

// Recorder appends best-effort audit rows.
type Recorder interface {
	Record(ctx context.Context, entry mealevents.Entry)
}

type authorizer interface {
	Authorize(actor access.Actor, op access.Operation) error
}

// Service owns listing CRUD and the trusted-service expiry and freshness updates.
// Claim-driven transitions live in the claims package.
type Service interface {
	Create(ctx context.Context, actor access.Actor, input CreateMealInput) (*MealDTO, error)
	List(ctx context.Context, actor access.Actor, input ListMealsInput) (*MealList, error)
	Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*MealDTO, error)
	Update(ctx context.Context, actor access.Actor, id uuid.UUID, input UpdateMealInput) (*MealDTO, error)
	Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error
	Events(ctx context.Context, actor access.Actor, id uuid.UUID) ([]MealEventDTO, error)
	// Service-boundary operations; the caller is authenticated by service token.
	Lookup(ctx context.Context, id uuid.UUID) (*MealDTO, error)
	ListForService(ctx context.Context, input ListMealsInput) (*MealList, error)
	SetExpiry(ctx context.Context, id uuid.UUID, expiry time.Time) (*MealDTO, error)
	UpdateExpiry(ctx context.Context, id uuid.UUID, expiry time.Time) (*MealDTO, error)
	UpdateFoodStatus(ctx context.Context, id uuid.UUID, status string) (*MealDTO, error)
}

// ServiceParams groups the dependencies of the meal service.
type ServiceParams struct {
	Repo     Repository
	Events   mealevents.Repository
	Recorder Recorder
	Gate     authorizer
	Logger   *logger.Logger
	Now      func() time.Time
}

type service struct {
	repo     Repository
	events   mealevents.Repository
	recorder Recorder
	gate     authorizer
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the meal service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("meals repository required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("meal events repository required")
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
		repo:     params.Repo,
		events:   params.Events,
		recorder: params.Recorder,
		gate:     gate,
		logg:     params.Logger,
		now:      now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor access.Actor, input CreateMealInput) (*MealDTO, error) {
	if err := s.gate.Authorize(actor, access.OpCreateMeal); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
	}
	if input.PreparedAt.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prepared_at is required")
	}
	unit, err := enums.ParseMealUnit(strings.TrimSpace(input.Unit))
	if err != nil {
		return nil, invalidParam("unit", err)
	}

	now := s.now()
	meal := &models.Meal{
		ID:          uuid.New(),
		OwnerID:     actor.ID,
		Title:       title,
		Description: trimmedOrNil(input.Description),
		Quantity:    input.Quantity,
		Unit:        unit,
		PreparedAt:  input.PreparedAt.UTC(),
		Status:      enums.MealStatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if input.StorageType != nil {
		v, err := enums.ParseStorageType(*input.StorageType)
		if err != nil {
			return nil, invalidParam("storage_type", err)
		}
		meal.StorageType = &v
	}
	if input.FoodType != nil {
		v, err := enums.ParseFoodType(*input.FoodType)
		if err != nil {
			return nil, invalidParam("food_type", err)
		}
		meal.FoodType = &v
	}
	if input.FoodStatus != nil {
		v, err := enums.ParseFoodStatus(*input.FoodStatus)
		if err != nil {
			return nil, invalidParam("food_status", err)
		}
		meal.FoodStatus = &v
	}

	if err := s.repo.Create(ctx, meal); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create meal")
	}

	s.info(ctx, meal.ID, "meals.created")
	dto := ToDTO(*meal)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor access.Actor, input ListMealsInput) (*MealList, error) {
	if err := s.gate.Authorize(actor, access.OpListMeals); err != nil {
		return nil, err
	}
	var owner *uuid.UUID
	if input.Mine {
		id := actor.ID
		owner = &id
	}
	return s.list(ctx, owner, input)
}

// ListForService lists meals for the trusted service boundary; Mine is ignored.
func (s *service) ListForService(ctx context.Context, input ListMealsInput) (*MealList, error) {
	return s.list(ctx, nil, input)
}

func (s *service) list(ctx context.Context, owner *uuid.UUID, input ListMealsInput) (*MealList, error) {
	filters := ListFilters{OwnerID: owner}
	if status := strings.TrimSpace(input.Status); status != "" {
		parsed, err := enums.ParseMealStatus(strings.ToUpper(status))
		if err != nil {
			return nil, invalidParam("status", err)
		}
		filters.Status = &parsed
	}
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return nil, invalidParam("cursor", err)
	}

	rows, next, err := s.repo.List(ctx, filters, pagination.Params{Limit: input.Limit, Cursor: input.Cursor}, cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list meals")
	}

	list := &MealList{Items: make([]MealDTO, 0, len(rows))}
	for _, row := range rows {
		list.Items = append(list.Items, ToDTO(row))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, actor access.Actor, id uuid.UUID) (*MealDTO, error) {
	if err := s.gate.Authorize(actor, access.OpGetMeal); err != nil {
		return nil, err
	}
	return s.Lookup(ctx, id)
}

// Lookup loads one meal without a capability check. Callers are the trusted
// service boundary and Get.
func (s *service) Lookup(ctx context.Context, id uuid.UUID) (*MealDTO, error) {
	meal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*meal)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, input UpdateMealInput) (*MealDTO, error) {
	if err := s.gate.Authorize(actor, access.OpUpdateMeal); err != nil {
		return nil, err
	}
	if input.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updatable fields supplied")
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title must not be empty")
		}
		updates["title"] = title
	}
	if input.Description != nil {
		updates["description"] = trimmedOrNil(input.Description)
	}
	if input.Quantity != nil {
		if !input.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero")
		}
		updates["quantity"] = *input.Quantity
	}
	if input.Unit != nil {
		unit, err := enums.ParseMealUnit(strings.TrimSpace(*input.Unit))
		if err != nil {
			return nil, invalidParam("unit", err)
		}
		updates["unit"] = string(unit)
	}

	meal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if meal.OwnerID != actor.ID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the meal owner can update it")
	}

	updates["updated_at"] = s.now()
	ok, err := s.repo.UpdateFields(ctx, id, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update meal")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal not found")
	}

	return s.reload(ctx, id)
}

func (s *service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := s.gate.Authorize(actor, access.OpDeleteMeal); err != nil {
		return err
	}
	meal, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if meal.OwnerID != actor.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the meal owner can delete it")
	}
	if !CanDelete(meal.Status) {
		return pkgerrors.InvalidState("meal can only be deleted when AVAILABLE, EXPIRED or CANCELLED", string(meal.Status))
	}

	ok, err := s.repo.SoftDelete(ctx, id, DeletableStatuses)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete meal")
	}
	if !ok {
		return s.lostRace(ctx, id, "meal changed while deleting")
	}

	s.info(ctx, id, "meals.deleted")
	return nil
}

func (s *service) Events(ctx context.Context, actor access.Actor, id uuid.UUID) ([]MealEventDTO, error) {
	if err := s.gate.Authorize(actor, access.OpViewMealEvents); err != nil {
		return nil, err
	}
	meal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if meal.OwnerID != actor.ID && !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the meal owner can view its history")
	}
	rows, err := s.events.ListByMeal(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list meal events")
	}
	return toEventDTOs(rows), nil
}

// SetExpiry records the first expiry estimate for a meal. A meal that already
// carries one yields CONFLICT; UpdateExpiry overwrites instead.
func (s *service) SetExpiry(ctx context.Context, id uuid.UUID, expiry time.Time) (*MealDTO, error) {
	if expiry.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry_at is required")
	}
	meal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if meal.ExpiryAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "expiry already set; use update instead")
	}

	ok, err := s.repo.SetExpiryIfUnset(ctx, id, expiry.UTC(), s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set meal expiry")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "expiry already set; use update instead")
	}

	s.recordSystemNote(ctx, meal, fmt.Sprintf("Expiry set to %s by spoilage service", expiry.UTC().Format(time.RFC3339)))
	return s.reload(ctx, id)
}

func (s *service) UpdateExpiry(ctx context.Context, id uuid.UUID, expiry time.Time) (*MealDTO, error) {
	if expiry.IsZero() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry_at is required")
	}
	meal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateFields(ctx, id, map[string]any{"expiry_at": expiry.UTC(), "updated_at": s.now()})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update meal expiry")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal not found")
	}

	s.recordSystemNote(ctx, meal, fmt.Sprintf("Expiry updated to %s by spoilage service", expiry.UTC().Format(time.RFC3339)))
	return s.reload(ctx, id)
}

func (s *service) UpdateFoodStatus(ctx context.Context, id uuid.UUID, status string) (*MealDTO, error) {
	if strings.TrimSpace(status) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "food_status is required")
	}
	parsed, err := enums.ParseFoodStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, invalidParam("food_status", err)
	}
	meal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateFields(ctx, id, map[string]any{"food_status": string(parsed), "updated_at": s.now()})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update food status")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal not found")
	}

	s.recordSystemNote(ctx, meal, fmt.Sprintf("Food status set to %s by spoilage service", parsed))
	return s.reload(ctx, id)
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Meal, error) {
	meal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "meal not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load meal")
	}
	return meal, nil
}

func (s *service) reload(ctx context.Context, id uuid.UUID) (*MealDTO, error) {
	meal, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(*meal)
	return &dto, nil
}

// lostRace converts a compare-and-swap miss into CONFLICT carrying the status
// the winner left behind.
func (s *service) lostRace(ctx context.Context, id uuid.UUID, message string) error {
	meal, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return pkgerrors.Conflict(message, string(meal.Status))
}

// recordSystemNote logs a same-status audit row for a trusted-service update.
func (s *service) recordSystemNote(ctx context.Context, meal *models.Meal, note string) {
	s.recorder.Record(ctx, mealevents.Entry{
		MealID: meal.ID,
		From:   meal.Status,
		To:     meal.Status,
		Note:   note,
	})
}

func (s *service) info(ctx context.Context, mealID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithMealID(ctx, mealID.String()), msg)
}

func invalidParam(field string, err error) error {
	return pkgerrors.Wrap(pkgerrors.CodeInvalidParam, err, err.Error()).
		WithDetails(map[string]any{"field": field})
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
