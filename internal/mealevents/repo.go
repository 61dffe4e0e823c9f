package mealevents

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
)

// Repository persists meal audit rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.MealEventLog) error
	ListByMeal(ctx context.Context, mealID uuid.UUID) ([]models.MealEventLog, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.MealEventLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByMeal returns the meal's audit trail oldest first.
func (r *repository) ListByMeal(ctx context.Context, mealID uuid.UUID) ([]models.MealEventLog, error) {
	var rows []models.MealEventLog
	err := r.db.WithContext(ctx).
		Where("meal_id = ?", mealID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
