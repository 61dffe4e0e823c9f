package meals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
	"github.com/sharemeal/sharemeal-backend/pkg/enums"
	"github.com/sharemeal/sharemeal-backend/pkg/types"
)

// CreateMealInput carries provider-supplied listing fields. Enum fields stay raw
// so the service can report INVALID_PARAM for values outside the closed sets.
type CreateMealInput struct {
	Title       string
	Description *string
	Quantity    decimal.Decimal
	Unit        string
	StorageType *string
	FoodType    *string
	FoodStatus  *string
	PreparedAt  time.Time
}

// UpdateMealInput is a partial update of descriptive fields.
type UpdateMealInput struct {
	Title       *string
	Description *string
	Quantity    *decimal.Decimal
	Unit        *string
}

func (in UpdateMealInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.Quantity == nil && in.Unit == nil
}

// ListMealsInput carries listing filters as received from the caller.
type ListMealsInput struct {
	Status string
	Mine   bool
	Limit  int
	Cursor string
}

// MealList is one page of meals.
type MealList = types.Page[MealDTO]

// MealDTO is the API representation of a meal.
type MealDTO struct {
	ID          uuid.UUID          `json:"id"`
	OwnerID     uuid.UUID          `json:"owner_id"`
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	Quantity    decimal.Decimal    `json:"quantity"`
	Unit        enums.MealUnit     `json:"unit"`
	StorageType *enums.StorageType `json:"storage_type,omitempty"`
	FoodType    *enums.FoodType    `json:"food_type,omitempty"`
	FoodStatus  *enums.FoodStatus  `json:"food_status,omitempty"`
	PreparedAt  time.Time          `json:"prepared_at"`
	ExpiryAt    *time.Time         `json:"expiry_at,omitempty"`
	Status      enums.MealStatus   `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ToDTO maps a stored meal onto its API shape.
func ToDTO(m models.Meal) MealDTO {
	return MealDTO{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Quantity:    m.Quantity,
		Unit:        m.Unit,
		StorageType: m.StorageType,
		FoodType:    m.FoodType,
		FoodStatus:  m.FoodStatus,
		PreparedAt:  m.PreparedAt,
		ExpiryAt:    m.ExpiryAt,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// MealEventDTO is one audit trail row.
type MealEventDTO struct {
	ID         uuid.UUID        `json:"id"`
	ChangedBy  *uuid.UUID       `json:"changed_by"`
	FromStatus enums.MealStatus `json:"from_status"`
	ToStatus   enums.MealStatus `json:"to_status"`
	Note       string           `json:"note"`
	CreatedAt  time.Time        `json:"created_at"`
}

func toEventDTOs(rows []models.MealEventLog) []MealEventDTO {
	out := make([]MealEventDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, MealEventDTO{
			ID:         row.ID,
			ChangedBy:  row.ChangedBy,
			FromStatus: row.FromStatus,
			ToStatus:   row.ToStatus,
			Note:       row.Note,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out
}
