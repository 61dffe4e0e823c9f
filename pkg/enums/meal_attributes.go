package enums

import "fmt"

// MealUnit is the measuring unit of a listed quantity.
type MealUnit string

const (
	MealUnitKg       MealUnit = "kg"
	MealUnitServings MealUnit = "servings"
	MealUnitPacks    MealUnit = "packs"
	MealUnitLoaves   MealUnit = "loaves"
	MealUnitPieces   MealUnit = "pieces"
	MealUnitBoxes    MealUnit = "boxes"
	MealUnitTrays    MealUnit = "trays"
	MealUnitBags     MealUnit = "bags"
)

var validMealUnits = []MealUnit{
	MealUnitKg,
	MealUnitServings,
	MealUnitPacks,
	MealUnitLoaves,
	MealUnitPieces,
	MealUnitBoxes,
	MealUnitTrays,
	MealUnitBags,
}

// IsValid reports whether the value is a known MealUnit.
func (u MealUnit) IsValid() bool {
	for _, candidate := range validMealUnits {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseMealUnit converts raw input into a MealUnit.
func ParseMealUnit(value string) (MealUnit, error) {
	for _, candidate := range validMealUnits {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit %q", value)
}

// StorageType describes how the provider keeps the food until pickup.
type StorageType string

const (
	StorageTypeRoomTemperature StorageType = "Room Temperature"
	StorageTypeRefrigerated    StorageType = "Refrigerated"
)

var validStorageTypes = []StorageType{
	StorageTypeRoomTemperature,
	StorageTypeRefrigerated,
}

// IsValid reports whether the value is a known StorageType.
func (s StorageType) IsValid() bool {
	for _, candidate := range validStorageTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStorageType converts raw input into a StorageType.
func ParseStorageType(value string) (StorageType, error) {
	for _, candidate := range validStorageTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid storage_type %q", value)
}

// FoodType is the coarse food category of a listing.
type FoodType string

const (
	FoodTypeBread    FoodType = "Bread"
	FoodTypeRice     FoodType = "Rice"
	FoodTypePastries FoodType = "Pastries"
	FoodTypeSoup     FoodType = "Soup"
	FoodTypeBeans    FoodType = "Beans"
	FoodTypeOthers   FoodType = "Others"
)

var validFoodTypes = []FoodType{
	FoodTypeBread,
	FoodTypeRice,
	FoodTypePastries,
	FoodTypeSoup,
	FoodTypeBeans,
	FoodTypeOthers,
}

// IsValid reports whether the value is a known FoodType.
func (f FoodType) IsValid() bool {
	for _, candidate := range validFoodTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFoodType converts raw input into a FoodType.
func ParseFoodType(value string) (FoodType, error) {
	for _, candidate := range validFoodTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid food_type %q", value)
}

// FoodStatus is the freshness grade reported by the provider or the spoilage service.
type FoodStatus string

const (
	FoodStatusFresh    FoodStatus = "Fresh"
	FoodStatusModerate FoodStatus = "Moderate"
	FoodStatusSpoiled  FoodStatus = "Spoiled"
)

var validFoodStatuses = []FoodStatus{
	FoodStatusFresh,
	FoodStatusModerate,
	FoodStatusSpoiled,
}

// IsValid reports whether the value is a known FoodStatus.
func (f FoodStatus) IsValid() bool {
	for _, candidate := range validFoodStatuses {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFoodStatus converts raw input into a FoodStatus.
func ParseFoodStatus(value string) (FoodStatus, error) {
	for _, candidate := range validFoodStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid food_status %q", value)
}
