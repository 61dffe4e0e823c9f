package claims

import (
	"time"

	"github.com/google/uuid"

	"github.com/sharemeal/sharemeal-backend/internal/meals"
	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
	"github.com/sharemeal/sharemeal-backend/pkg/enums"
	"github.com/sharemeal/sharemeal-backend/pkg/types"
)

// ClaimDTO is the API representation of a claim.
type ClaimDTO struct {
	ID                 uuid.UUID         `json:"id"`
	MealID             uuid.UUID         `json:"meal_id"`
	ClaimantID         uuid.UUID         `json:"claimant_id"`
	Status             enums.ClaimStatus `json:"status"`
	BeneficiariesCount *int              `json:"beneficiaries_count,omitempty"`
	ClaimedAt          time.Time         `json:"claimed_at"`
	PickedUpAt         *time.Time        `json:"picked_up_at,omitempty"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty"`
	Meal               *meals.MealDTO    `json:"meal,omitempty"`
}

// Result pairs a claim with the meal state its transition produced.
type Result struct {
	Claim ClaimDTO      `json:"claim"`
	Meal  meals.MealDTO `json:"meal"`
}

// ListClaimsInput carries paging for a claimant's own claims.
type ListClaimsInput struct {
	Limit  int
	Cursor string
}

// ClaimList is one page of claims.
type ClaimList = types.Page[ClaimDTO]

// ToDTO maps a stored claim onto its API shape, including the meal when loaded.
func ToDTO(c models.Claim) ClaimDTO {
	dto := ClaimDTO{
		ID:                 c.ID,
		MealID:             c.MealID,
		ClaimantID:         c.ClaimantID,
		Status:             c.Status,
		BeneficiariesCount: c.BeneficiariesCount,
		ClaimedAt:          c.ClaimedAt,
		PickedUpAt:         c.PickedUpAt,
		CompletedAt:        c.CompletedAt,
		CancelledAt:        c.CancelledAt,
	}
	if c.Meal != nil {
		meal := meals.ToDTO(*c.Meal)
		dto.Meal = &meal
	}
	return dto
}
