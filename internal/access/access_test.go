package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/sharemeal/sharemeal-backend/pkg/enums"
	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
)

func TestAuthorizeRoleTable(t *testing.T) {
	provider := Actor{ID: uuid.New(), Role: enums.RoleProvider, Verified: true}
	claimant := Actor{ID: uuid.New(), Role: enums.RoleClaimant, Verified: true}
	sponsor := Actor{ID: uuid.New(), Role: enums.RoleSponsor, Verified: true}
	admin := Actor{ID: uuid.New(), Role: enums.RoleAdmin}

	cases := []struct {
		name  string
		actor Actor
		op    Operation
		code  pkgerrors.Code
	}{
		{"provider creates", provider, OpCreateMeal, ""},
		{"claimant cannot create", claimant, OpCreateMeal, pkgerrors.CodeForbidden},
		{"claimant claims", claimant, OpClaimMeal, ""},
		{"provider cannot claim", provider, OpClaimMeal, pkgerrors.CodeForbidden},
		{"provider marks ready", provider, OpMarkPickupReady, ""},
		{"claimant cannot mark ready", claimant, OpMarkPickupReady, pkgerrors.CodeForbidden},
		{"claimant confirms pickup", claimant, OpConfirmPickup, ""},
		{"claimant completes", claimant, OpConfirmCompletion, ""},
		{"claimant cancels", claimant, OpCancelClaim, ""},
		{"sponsor cannot cancel", sponsor, OpCancelClaim, pkgerrors.CodeForbidden},
		{"sponsor lists meals", sponsor, OpListMeals, ""},
		{"admin views events", admin, OpViewMealEvents, ""},
		{"claimant cannot view events", claimant, OpViewMealEvents, pkgerrors.CodeForbidden},
		{"unknown operation", admin, Operation("meals.teleport"), pkgerrors.CodeForbidden},
		{"anonymous", Actor{Role: enums.RoleProvider}, OpListMeals, pkgerrors.CodeUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Gate{}.Authorize(tc.actor, tc.op)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, pkgerrors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestAuthorizeVerification(t *testing.T) {
	unverified := Actor{ID: uuid.New(), Role: enums.RoleClaimant}

	err := Gate{}.Authorize(unverified, OpClaimMeal)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotVerified), "the zero Gate enforces verification")

	assert.NoError(t, Gate{}.Authorize(unverified, OpCancelClaim), "cancelling does not require verification")
	assert.NoError(t, NewGate(false).Authorize(unverified, OpClaimMeal))
	assert.True(t, pkgerrors.HasCode(NewGate(true).Authorize(unverified, OpClaimMeal), pkgerrors.CodeNotVerified))
}
