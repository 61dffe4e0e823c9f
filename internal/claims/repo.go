package claims

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
	"github.com/sharemeal/sharemeal-backend/pkg/enums"
	"github.com/sharemeal/sharemeal-backend/pkg/pagination"
)

// Repository persists claims. Status writes only apply while the row still
// holds the expected status.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, claim *models.Claim) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Claim, error)
	FindActiveByMeal(ctx context.Context, mealID uuid.UUID) (*models.Claim, error)
	ListByClaimant(ctx context.Context, claimantID uuid.UUID, params pagination.Params, cursor *pagination.Cursor) ([]models.Claim, *pagination.Cursor, error)
	UpdateIfStatus(ctx context.Context, id uuid.UUID, from enums.ClaimStatus, updates map[string]any) (bool, error)
	CancelActiveForMeal(ctx context.Context, mealID uuid.UUID, at time.Time) (int64, error)
	FindExpiredReservations(ctx context.Context, cutoff time.Time, limit int) ([]models.Claim, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a claims repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, claim *models.Claim) error {
	return r.db.WithContext(ctx).Omit("Meal").Create(claim).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&claim).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

func (r *repository) FindActiveByMeal(ctx context.Context, mealID uuid.UUID) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.WithContext(ctx).
		Where("meal_id = ? AND status = ?", mealID, string(enums.ClaimStatusActive)).
		First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// ListByClaimant pages a claimant's claims newest first, with their meals.
func (r *repository) ListByClaimant(ctx context.Context, claimantID uuid.UUID, params pagination.Params, cursor *pagination.Cursor) ([]models.Claim, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Preload("Meal").
		Where("claimant_id = ?", claimantID)
	if cursor != nil {
		query = query.Where("(claimed_at < ? OR (claimed_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Claim
	err := query.
		Order("claimed_at DESC, id DESC").
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
	return page, &pagination.Cursor{CreatedAt: last.ClaimedAt, ID: last.ID}, nil
}

func (r *repository) UpdateIfStatus(ctx context.Context, id uuid.UUID, from enums.ClaimStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CancelActiveForMeal cancels whatever claim is still ACTIVE on the meal.
func (r *repository) CancelActiveForMeal(ctx context.Context, mealID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Claim{}).
		Where("meal_id = ? AND status = ?", mealID, string(enums.ClaimStatusActive)).
		Updates(map[string]any{
			"status":       string(enums.ClaimStatusCancelled),
			"cancelled_at": at,
			"updated_at":   at,
		})
	return res.RowsAffected, res.Error
}

// FindExpiredReservations returns ACTIVE claims claimed before cutoff with no
// pickup recorded whose meal is still CLAIMED or PICKUP_READY.
func (r *repository) FindExpiredReservations(ctx context.Context, cutoff time.Time, limit int) ([]models.Claim, error) {
	var rows []models.Claim
	err := r.db.WithContext(ctx).
		Select("claims.*").
		Joins("JOIN meals ON meals.id = claims.meal_id AND meals.deleted_at IS NULL").
		Where("claims.status = ? AND claims.picked_up_at IS NULL AND claims.claimed_at < ?", string(enums.ClaimStatusActive), cutoff).
		Where("meals.status IN ?", enums.MealStatusStrings(enums.MealStatusClaimed, enums.MealStatusPickupReady)).
		Order("claims.claimed_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
