package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sharemeal/sharemeal-backend/pkg/enums"
)

// Meal is a surplus-food listing owned by a provider.
type Meal struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     uuid.UUID          `gorm:"column:owner_id;type:uuid;not null"`
	Title       string             `gorm:"column:title;type:text;not null"`
	Description *string            `gorm:"column:description;type:text"`
	Quantity    decimal.Decimal    `gorm:"column:quantity;type:numeric(12,2);not null"`
	Unit        enums.MealUnit     `gorm:"column:unit;type:text;not null"`
	StorageType *enums.StorageType `gorm:"column:storage_type;type:text"`
	FoodType    *enums.FoodType    `gorm:"column:food_type;type:text"`
	FoodStatus  *enums.FoodStatus  `gorm:"column:food_status;type:text"`
	PreparedAt  time.Time          `gorm:"column:prepared_at;not null"`
	ExpiryAt    *time.Time         `gorm:"column:expiry_at"`
	Status      enums.MealStatus   `gorm:"column:status;type:text;not null;default:'AVAILABLE'"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt   gorm.DeletedAt     `gorm:"column:deleted_at;index"`
}
