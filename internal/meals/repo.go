package meals

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
	"github.com/sharemeal/sharemeal-backend/pkg/enums"
	"github.com/sharemeal/sharemeal-backend/pkg/pagination"
)

// Repository defines persistence operations for meal listings. Every status
// write is a compare-and-swap on the status column: it reports false when the
// row no longer matches the expected source states.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, meal *models.Meal) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Meal, error)
	List(ctx context.Context, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]models.Meal, *pagination.Cursor, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, rule Rule, at time.Time) (bool, error)
	SoftDelete(ctx context.Context, id uuid.UUID, from []enums.MealStatus) (bool, error)
	SetExpiryIfUnset(ctx context.Context, id uuid.UUID, expiry, at time.Time) (bool, error)
	FindExpirable(ctx context.Context, now time.Time, limit int) ([]models.Meal, error)
	FindStalePickupReady(ctx context.Context, cutoff time.Time, limit int) ([]models.Meal, error)
}

// ListFilters narrows meal listings.
type ListFilters struct {
	Status  *enums.MealStatus
	OwnerID *uuid.UUID
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a meals repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, meal *models.Meal) error {
	return r.db.WithContext(ctx).Create(meal).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Meal, error) {
	var meal models.Meal
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meal).Error; err != nil {
		return nil, err
	}
	return &meal, nil
}

func (r *repository) List(ctx context.Context, filters ListFilters, params pagination.Params, cursor *pagination.Cursor) ([]models.Meal, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Meal{})
	if filters.Status != nil {
		query = query.Where("status = ?", string(*filters.Status))
	}
	if filters.OwnerID != nil {
		query = query.Where("owner_id = ?", *filters.OwnerID)
	}
	if cursor != nil {
		query = query.Where("(created_at < ? OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Meal
	err := query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, err
	}

	page, more := pagination.Trim(rows, params.Limit)
	if !more {
		return page, nil, nil
	}
	last := page[len(page)-1]
	return page, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Meal{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, rule Rule, at time.Time) (bool, error) {
	if len(rule.From) == 0 {
		return false, nil
	}
	for _, from := range rule.From {
		if !CanTransition(from, rule.To) {
			return false, fmt.Errorf("%w: %s -> %s", ErrUndefinedTransition, from, rule.To)
		}
	}
	res := r.db.WithContext(ctx).
		Model(&models.Meal{}).
		Where("id = ? AND status IN ?", id, enums.MealStatusStrings(rule.From...)).
		Updates(map[string]any{
			"status":     string(rule.To),
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SoftDelete(ctx context.Context, id uuid.UUID, from []enums.MealStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND status IN ?", id, enums.MealStatusStrings(from...)).
		Delete(&models.Meal{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) SetExpiryIfUnset(ctx context.Context, id uuid.UUID, expiry, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Meal{}).
		Where("id = ? AND expiry_at IS NULL", id).
		Updates(map[string]any{
			"expiry_at":  expiry,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindExpirable returns meals whose expiry has passed while still AVAILABLE or CLAIMED.
func (r *repository) FindExpirable(ctx context.Context, now time.Time, limit int) ([]models.Meal, error) {
	var rows []models.Meal
	err := r.db.WithContext(ctx).
		Where("expiry_at IS NOT NULL AND expiry_at < ?", now).
		Where("status IN ?", enums.MealStatusStrings(RuleFor(TriggerExpire).From...)).
		Order("expiry_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindStalePickupReady returns meals left in PICKUP_READY since before cutoff.
func (r *repository) FindStalePickupReady(ctx context.Context, cutoff time.Time, limit int) ([]models.Meal, error) {
	var rows []models.Meal
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", string(enums.MealStatusPickupReady), cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
