package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sharemeal/sharemeal-backend/pkg/enums"
)

// Claim is a claimant's reservation of a meal. Rows are never deleted.
type Claim struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MealID             uuid.UUID         `gorm:"column:meal_id;type:uuid;not null"`
	ClaimantID         uuid.UUID         `gorm:"column:claimant_id;type:uuid;not null"`
	Status             enums.ClaimStatus `gorm:"column:status;type:text;not null;default:'ACTIVE'"`
	BeneficiariesCount *int              `gorm:"column:beneficiaries_count"`
	ClaimedAt          time.Time         `gorm:"column:claimed_at;not null"`
	PickedUpAt         *time.Time        `gorm:"column:picked_up_at"`
	CompletedAt        *time.Time        `gorm:"column:completed_at"`
	CancelledAt        *time.Time        `gorm:"column:cancelled_at"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
	Meal               *Meal             `gorm:"foreignKey:MealID"`
}
