package meals

import (
	"errors"

	"github.com/sharemeal/sharemeal-backend/pkg/enums"
)

// ErrUndefinedTransition is returned when a status write names a source state
// that no trigger moves to the target state.
var ErrUndefinedTransition = errors.New("meals: undefined status transition")

// Trigger names an event that moves a meal between lifecycle states.
type Trigger string

const (
	TriggerClaim              Trigger = "claim"
	TriggerMarkReady          Trigger = "mark_ready"
	TriggerConfirmPickup      Trigger = "confirm_pickup"
	TriggerConfirmCompletion  Trigger = "confirm_completion"
	TriggerCancelClaim        Trigger = "cancel_claim"
	TriggerReservationTimeout Trigger = "reservation_timeout"
	TriggerExpire             Trigger = "expire"
	TriggerStalePickupTimeout Trigger = "stale_pickup_timeout"
)

// Rule is the set of source states a trigger accepts and the state it produces.
type Rule struct {
	From []enums.MealStatus
	To   enums.MealStatus
}

// Allows reports whether status is one of the rule's source states.
func (r Rule) Allows(status enums.MealStatus) bool {
	for _, from := range r.From {
		if from == status {
			return true
		}
	}
	return false
}

// Cancelling a claim reverts the meal to AVAILABLE from any claim-holding state.
var rules = map[Trigger]Rule{
	TriggerClaim: {
		From: []enums.MealStatus{enums.MealStatusAvailable},
		To:   enums.MealStatusClaimed,
	},
	TriggerMarkReady: {
		From: []enums.MealStatus{enums.MealStatusClaimed},
		To:   enums.MealStatusPickupReady,
	},
	TriggerConfirmPickup: {
		From: []enums.MealStatus{enums.MealStatusPickupReady},
		To:   enums.MealStatusPickedUp,
	},
	TriggerConfirmCompletion: {
		From: []enums.MealStatus{enums.MealStatusPickedUp},
		To:   enums.MealStatusCompleted,
	},
	TriggerCancelClaim: {
		From: []enums.MealStatus{enums.MealStatusClaimed, enums.MealStatusPickupReady, enums.MealStatusPickedUp},
		To:   enums.MealStatusAvailable,
	},
	TriggerReservationTimeout: {
		From: []enums.MealStatus{enums.MealStatusClaimed, enums.MealStatusPickupReady},
		To:   enums.MealStatusAvailable,
	},
	TriggerExpire: {
		From: []enums.MealStatus{enums.MealStatusAvailable, enums.MealStatusClaimed},
		To:   enums.MealStatusExpired,
	},
	TriggerStalePickupTimeout: {
		From: []enums.MealStatus{enums.MealStatusPickupReady},
		To:   enums.MealStatusCancelled,
	},
}

// RuleFor returns the rule bound to trigger. Unknown triggers yield an empty rule
// that allows nothing.
func RuleFor(trigger Trigger) Rule {
	return rules[trigger]
}

// CanTransition reports whether any trigger moves a meal from one state to another.
func CanTransition(from, to enums.MealStatus) bool {
	for _, rule := range rules {
		if rule.To == to && rule.Allows(from) {
			return true
		}
	}
	return false
}

// DeletableStatuses are the states from which a listing may be removed.
var DeletableStatuses = []enums.MealStatus{
	enums.MealStatusAvailable,
	enums.MealStatusExpired,
	enums.MealStatusCancelled,
}

// CanDelete reports whether a meal in status may be deleted.
func CanDelete(status enums.MealStatus) bool {
	return Rule{From: DeletableStatuses}.Allows(status)
}
