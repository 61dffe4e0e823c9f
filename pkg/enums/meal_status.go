package enums

import "fmt"

// MealStatus tracks the lifecycle of a donated meal listing.
type MealStatus string

const (
	MealStatusAvailable   MealStatus = "AVAILABLE"
	MealStatusClaimed     MealStatus = "CLAIMED"
	MealStatusPickupReady MealStatus = "PICKUP_READY"
	MealStatusPickedUp    MealStatus = "PICKED_UP"
	MealStatusCompleted   MealStatus = "COMPLETED"
	MealStatusExpired     MealStatus = "EXPIRED"
	MealStatusCancelled   MealStatus = "CANCELLED"
)

var validMealStatuses = []MealStatus{
	MealStatusAvailable,
	MealStatusClaimed,
	MealStatusPickupReady,
	MealStatusPickedUp,
	MealStatusCompleted,
	MealStatusExpired,
	MealStatusCancelled,
}

// MealStatuses returns every known status in lifecycle order.
func MealStatuses() []MealStatus {
	out := make([]MealStatus, len(validMealStatuses))
	copy(out, validMealStatuses)
	return out
}

// String implements fmt.Stringer.
func (m MealStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MealStatus.
func (m MealStatus) IsValid() bool {
	for _, candidate := range validMealStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition leaves this status.
func (m MealStatus) IsTerminal() bool {
	switch m {
	case MealStatusCompleted, MealStatusExpired, MealStatusCancelled:
		return true
	default:
		return false
	}
}

// HoldsActiveClaim reports whether a meal in this status must have exactly one ACTIVE claim.
func (m MealStatus) HoldsActiveClaim() bool {
	switch m {
	case MealStatusClaimed, MealStatusPickupReady, MealStatusPickedUp:
		return true
	default:
		return false
	}
}

// ParseMealStatus converts raw input into a MealStatus.
func ParseMealStatus(value string) (MealStatus, error) {
	for _, candidate := range validMealStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid meal status %q", value)
}

// MealStatusStrings converts statuses into plain strings for SQL IN clauses.
func MealStatusStrings(statuses ...MealStatus) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
