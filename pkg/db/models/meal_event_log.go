package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sharemeal/sharemeal-backend/pkg/enums"
)

// MealEventLog is one append-only audit row per meal status change.
// A nil ChangedBy marks a system-initiated transition.
type MealEventLog struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MealID     uuid.UUID        `gorm:"column:meal_id;type:uuid;not null"`
	ChangedBy  *uuid.UUID       `gorm:"column:changed_by;type:uuid"`
	FromStatus enums.MealStatus `gorm:"column:from_status;type:text;not null"`
	ToStatus   enums.MealStatus `gorm:"column:to_status;type:text;not null"`
	Note       string           `gorm:"column:note;type:text;not null;default:''"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}

func (MealEventLog) TableName() string { return "meal_logs" }
