package claims

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sharemeal/sharemeal-backend/internal/access"
	"github.com/sharemeal/sharemeal-backend/internal/mealevents"
	"github.com/sharemeal/sharemeal-backend/internal/meals"
	"github.com/sharemeal/sharemeal-backend/pkg/db/dbtest"
	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
	"github.com/sharemeal/sharemeal-backend/pkg/enums"
	pkgerrors "github.com/sharemeal/sharemeal-backend/pkg/errors"
	"github.com/sharemeal/sharemeal-backend/pkg/pagination"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   Service
	conn  *gorm.DB
	clock *testClock
}

func newFixture(t *testing.T, wrapMeals func(meals.Repository) meals.Repository) *fixture {
	t.Helper()
	client, conn := dbtest.NewClient(t)
	clock := &testClock{now: baseTime}
	mealRepo := meals.NewRepository(conn)
	if wrapMeals != nil {
		mealRepo = wrapMeals(mealRepo)
	}
	svc, err := NewService(ServiceParams{
		Claims:   NewRepository(conn),
		Meals:    mealRepo,
		Tx:       client,
		Recorder: mealevents.NewRecorder(mealevents.NewRepository(conn), nil),
		Gate:     access.NewGate(true),
		Now:      clock.Now,
	})
	require.NoError(t, err)
	return &fixture{svc: svc, conn: conn, clock: clock}
}

func providerActor() access.Actor {
	return access.Actor{ID: uuid.New(), Role: enums.RoleProvider, Verified: true}
}

func claimantActor() access.Actor {
	return access.Actor{ID: uuid.New(), Role: enums.RoleClaimant, Verified: true}
}

func (f *fixture) seedMeal(t *testing.T, owner uuid.UUID, status enums.MealStatus) *models.Meal {
	t.Helper()
	meal := &models.Meal{
		ID:         uuid.New(),
		OwnerID:    owner,
		Title:      "Rice trays",
		Quantity:   decimal.NewFromInt(4),
		Unit:       enums.MealUnitTrays,
		PreparedAt: baseTime.Add(-time.Hour),
		Status:     status,
		CreatedAt:  baseTime.Add(-time.Hour),
		UpdatedAt:  baseTime.Add(-time.Hour),
	}
	require.NoError(t, meals.NewRepository(f.conn).Create(context.Background(), meal))
	return meal
}

func (f *fixture) seedClaim(t *testing.T, mealID, claimant uuid.UUID, status enums.ClaimStatus, claimedAt time.Time) *models.Claim {
	t.Helper()
	claim := &models.Claim{
		ID:         uuid.New(),
		MealID:     mealID,
		ClaimantID: claimant,
		Status:     status,
		ClaimedAt:  claimedAt,
		UpdatedAt:  claimedAt,
	}
	require.NoError(t, NewRepository(f.conn).Create(context.Background(), claim))
	return claim
}

func (f *fixture) meal(t *testing.T, id uuid.UUID) *models.Meal {
	t.Helper()
	meal, err := meals.NewRepository(f.conn).FindByID(context.Background(), id)
	require.NoError(t, err)
	return meal
}

func (f *fixture) claim(t *testing.T, id uuid.UUID) *models.Claim {
	t.Helper()
	claim, err := NewRepository(f.conn).FindByID(context.Background(), id)
	require.NoError(t, err)
	return claim
}

func (f *fixture) events(t *testing.T, mealID uuid.UUID) []models.MealEventLog {
	t.Helper()
	rows, err := mealevents.NewRepository(f.conn).ListByMeal(context.Background(), mealID)
	require.NoError(t, err)
	return rows
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), typed.Message())
	return typed
}

func TestClaimLifecycleRoundTrip(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	provider := providerActor()
	claimant := claimantActor()
	meal := f.seedMeal(t, provider.ID, enums.MealStatusAvailable)

	claimed, err := f.svc.Claim(ctx, claimant, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MealStatusClaimed, claimed.Meal.Status)
	assert.Equal(t, enums.ClaimStatusActive, claimed.Claim.Status)
	assert.Equal(t, claimant.ID, claimed.Claim.ClaimantID)

	f.clock.Advance(10 * time.Minute)
	ready, err := f.svc.MarkPickupReady(ctx, provider, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MealStatusPickupReady, ready.Meal.Status)
	assert.Equal(t, claimed.Claim.ID, ready.Claim.ID)

	f.clock.Advance(10 * time.Minute)
	picked, err := f.svc.ConfirmPickup(ctx, claimant, claimed.Claim.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MealStatusPickedUp, picked.Meal.Status)
	assert.Equal(t, enums.ClaimStatusActive, picked.Claim.Status, "pickup keeps the claim active")
	require.NotNil(t, picked.Claim.PickedUpAt)

	f.clock.Advance(time.Hour)
	done, err := f.svc.ConfirmCompletion(ctx, claimant, claimed.Claim.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, enums.MealStatusCompleted, done.Meal.Status)
	assert.Equal(t, enums.ClaimStatusCompleted, done.Claim.Status)
	require.NotNil(t, done.Claim.CompletedAt)
	require.NotNil(t, done.Claim.BeneficiariesCount)
	assert.Equal(t, 50, *done.Claim.BeneficiariesCount)

	stored := f.claim(t, claimed.Claim.ID)
	assert.Equal(t, enums.ClaimStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, enums.MealStatusCompleted, f.meal(t, meal.ID).Status)

	logs := f.events(t, meal.ID)
	require.Len(t, logs, 4)
	targets := make([]enums.MealStatus, 0, len(logs))
	for _, row := range logs {
		targets = append(targets, row.ToStatus)
		require.NotNil(t, row.ChangedBy)
	}
	assert.ElementsMatch(t, []enums.MealStatus{
		enums.MealStatusClaimed,
		enums.MealStatusPickupReady,
		enums.MealStatusPickedUp,
		enums.MealStatusCompleted,
	}, targets)
}

func TestConcurrentClaimsExactlyOneWins(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	meal := f.seedMeal(t, uuid.New(), enums.MealStatusAvailable)

	const contenders = 6
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Claim(ctx, claimantActor(), meal.ID)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, "unexpected error %v", err)
		assert.Contains(t, []pkgerrors.Code{pkgerrors.CodeInvalidState, pkgerrors.CodeConflict}, typed.Code())
	}
	assert.Equal(t, 1, wins)

	var active int64
	require.NoError(t, f.conn.Model(&models.Claim{}).
		Where("meal_id = ? AND status = ?", meal.ID, string(enums.ClaimStatusActive)).
		Count(&active).Error)
	assert.Equal(t, int64(1), active)
	assert.Equal(t, enums.MealStatusClaimed, f.meal(t, meal.ID).Status)
}

func TestClaimPreconditions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	provider := providerActor()
	meal := f.seedMeal(t, provider.ID, enums.MealStatusAvailable)

	_, err := f.svc.Claim(ctx, claimantActor(), uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)

	self := access.Actor{ID: provider.ID, Role: enums.RoleClaimant, Verified: true}
	_, err = f.svc.Claim(ctx, self, meal.ID)
	requireCode(t, err, pkgerrors.CodeInvalidState)

	_, err = f.svc.Claim(ctx, provider, meal.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.Claim(ctx, access.Actor{ID: uuid.New(), Role: enums.RoleClaimant}, meal.ID)
	requireCode(t, err, pkgerrors.CodeNotVerified)

	expired := f.seedMeal(t, provider.ID, enums.MealStatusExpired)
	_, err = f.svc.Claim(ctx, claimantActor(), expired.ID)
	typed := requireCode(t, err, pkgerrors.CodeInvalidState)
	assert.Equal(t, map[string]any{"current_status": "EXPIRED"}, typed.Details())

	assert.Empty(t, f.events(t, meal.ID))
}

func TestCancelFromPickupReadyRevertsMeal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	claimant := claimantActor()
	meal := f.seedMeal(t, uuid.New(), enums.MealStatusPickupReady)
	claim := f.seedClaim(t, meal.ID, claimant.ID, enums.ClaimStatusActive, baseTime.Add(-20*time.Minute))

	out, err := f.svc.Cancel(ctx, claimant, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MealStatusAvailable, out.Meal.Status)
	assert.Equal(t, enums.ClaimStatusCancelled, out.Claim.Status)
	require.NotNil(t, out.Claim.CancelledAt)

	logs := f.events(t, meal.ID)
	require.Len(t, logs, 1)
	assert.Equal(t, enums.MealStatusPickupReady, logs[0].FromStatus)
	assert.Equal(t, enums.MealStatusAvailable, logs[0].ToStatus)

	_, err = f.svc.Cancel(ctx, claimant, claim.ID)
	requireCode(t, err, pkgerrors.CodeInvalidState)
}

func TestCancelFromPickedUpIsAllowed(t *testing.T) {
	f := newFixture(t, nil)
	claimant := claimantActor()
	meal := f.seedMeal(t, uuid.New(), enums.MealStatusPickedUp)
	claim := f.seedClaim(t, meal.ID, claimant.ID, enums.ClaimStatusActive, baseTime.Add(-time.Hour))

	out, err := f.svc.Cancel(context.Background(), claimant, claim.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MealStatusAvailable, out.Meal.Status)
}

func TestConfirmCompletionRejectsNonPositiveCount(t *testing.T) {
	for _, count := range []int{-10, 0} {
		f := newFixture(t, nil)
		claimant := claimantActor()
		meal := f.seedMeal(t, uuid.New(), enums.MealStatusPickedUp)
		claim := f.seedClaim(t, meal.ID, claimant.ID, enums.ClaimStatusActive, baseTime.Add(-time.Hour))

		_, err := f.svc.ConfirmCompletion(context.Background(), claimant, claim.ID, count)
		requireCode(t, err, pkgerrors.CodeInvalidFormat)

		assert.Equal(t, enums.MealStatusPickedUp, f.meal(t, meal.ID).Status)
		stored := f.claim(t, claim.ID)
		assert.Equal(t, enums.ClaimStatusActive, stored.Status)
		assert.Nil(t, stored.CompletedAt)
		assert.Nil(t, stored.BeneficiariesCount)
		assert.Empty(t, f.events(t, meal.ID))
	}
}

func TestClaimantAndOwnerChecks(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	provider := providerActor()
	claimant := claimantActor()
	meal := f.seedMeal(t, provider.ID, enums.MealStatusClaimed)
	claim := f.seedClaim(t, meal.ID, claimant.ID, enums.ClaimStatusActive, baseTime)

	_, err := f.svc.MarkPickupReady(ctx, providerActor(), meal.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.Cancel(ctx, claimantActor(), claim.ID)
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = f.svc.ConfirmPickup(ctx, claimant, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = f.svc.MarkPickupReady(ctx, provider, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestMarkPickupReadyRequiresActiveClaim(t *testing.T) {
	f := newFixture(t, nil)
	provider := providerActor()
	meal := f.seedMeal(t, provider.ID, enums.MealStatusClaimed)

	_, err := f.svc.MarkPickupReady(context.Background(), provider, meal.ID)
	requireCode(t, err, pkgerrors.CodeInvalidState)
	assert.Equal(t, enums.MealStatusClaimed, f.meal(t, meal.ID).Status)
}

func TestTransitionsRequireActiveClaim(t *testing.T) {
	f := newFixture(t, nil)
	claimant := claimantActor()
	meal := f.seedMeal(t, uuid.New(), enums.MealStatusPickupReady)
	claim := f.seedClaim(t, meal.ID, claimant.ID, enums.ClaimStatusCancelled, baseTime)

	_, err := f.svc.ConfirmPickup(context.Background(), claimant, claim.ID)
	typed := requireCode(t, err, pkgerrors.CodeInvalidState)
	assert.Equal(t, map[string]any{"current_status": "PICKUP_READY", "claim_status": "CANCELLED"}, typed.Details())
}

func TestStateMachineCoverage(t *testing.T) {
	type op struct {
		name    string
		valid   []enums.MealStatus
		noClaim bool
		run     func(f *fixture, provider, claimant access.Actor, meal *models.Meal, claim *models.Claim) error
	}
	ctx := context.Background()
	ops := []op{
		{
			name:    "claim",
			valid:   []enums.MealStatus{enums.MealStatusAvailable},
			noClaim: true,
			run: func(f *fixture, _, claimant access.Actor, meal *models.Meal, _ *models.Claim) error {
				_, err := f.svc.Claim(ctx, claimant, meal.ID)
				return err
			},
		},
		{
			name:  "mark_ready",
			valid: []enums.MealStatus{enums.MealStatusClaimed},
			run: func(f *fixture, provider, _ access.Actor, meal *models.Meal, _ *models.Claim) error {
				_, err := f.svc.MarkPickupReady(ctx, provider, meal.ID)
				return err
			},
		},
		{
			name:  "confirm_pickup",
			valid: []enums.MealStatus{enums.MealStatusPickupReady},
			run: func(f *fixture, _, claimant access.Actor, _ *models.Meal, claim *models.Claim) error {
				_, err := f.svc.ConfirmPickup(ctx, claimant, claim.ID)
				return err
			},
		},
		{
			name:  "confirm_completion",
			valid: []enums.MealStatus{enums.MealStatusPickedUp},
			run: func(f *fixture, _, claimant access.Actor, _ *models.Meal, claim *models.Claim) error {
				_, err := f.svc.ConfirmCompletion(ctx, claimant, claim.ID, 12)
				return err
			},
		},
		{
			name:  "cancel",
			valid: []enums.MealStatus{enums.MealStatusClaimed, enums.MealStatusPickupReady, enums.MealStatusPickedUp},
			run: func(f *fixture, _, claimant access.Actor, _ *models.Meal, claim *models.Claim) error {
				_, err := f.svc.Cancel(ctx, claimant, claim.ID)
				return err
			},
		},
	}

	for _, o := range ops {
		for _, status := range enums.MealStatuses() {
			o, status := o, status
			t.Run(o.name+"/"+string(status), func(t *testing.T) {
				f := newFixture(t, nil)
				provider := providerActor()
				claimant := claimantActor()
				meal := f.seedMeal(t, provider.ID, status)
				var claim *models.Claim
				if !o.noClaim {
					claim = f.seedClaim(t, meal.ID, claimant.ID, enums.ClaimStatusActive, baseTime.Add(-10*time.Minute))
				}

				err := o.run(f, provider, claimant, meal, claim)
				if (meals.Rule{From: o.valid}).Allows(status) {
					require.NoError(t, err)
					assert.NotEqual(t, status, f.meal(t, meal.ID).Status)
					return
				}
				typed := requireCode(t, err, pkgerrors.CodeInvalidState)
				details, ok := typed.Details().(map[string]any)
				require.True(t, ok)
				assert.Equal(t, string(status), details["current_status"])
				assert.Equal(t, status, f.meal(t, meal.ID).Status)
			})
		}
	}
}

type losingMealsRepo struct {
	meals.Repository
}

func (r losingMealsRepo) WithTx(tx *gorm.DB) meals.Repository {
	return losingMealsRepo{Repository: r.Repository.WithTx(tx)}
}

func (r losingMealsRepo) TransitionStatus(context.Context, uuid.UUID, meals.Rule, time.Time) (bool, error) {
	return false, nil
}

func TestLostCompareAndSwapReportsConflict(t *testing.T) {
	f := newFixture(t, func(inner meals.Repository) meals.Repository {
		return losingMealsRepo{Repository: inner}
	})
	meal := f.seedMeal(t, uuid.New(), enums.MealStatusAvailable)

	_, err := f.svc.Claim(context.Background(), claimantActor(), meal.ID)
	typed := requireCode(t, err, pkgerrors.CodeConflict)
	assert.Equal(t, map[string]any{"current_status": "AVAILABLE"}, typed.Details())

	var count int64
	require.NoError(t, f.conn.Model(&models.Claim{}).Where("meal_id = ?", meal.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.Empty(t, f.events(t, meal.ID))
}

func TestExpireMealCancelsActiveClaim(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	meal := f.seedMeal(t, uuid.New(), enums.MealStatusClaimed)
	past := baseTime.Add(-time.Hour)
	require.NoError(t, f.conn.Model(&models.Meal{}).Where("id = ?", meal.ID).UpdateColumn("expiry_at", past).Error)
	claim := f.seedClaim(t, meal.ID, uuid.New(), enums.ClaimStatusActive, baseTime.Add(-10*time.Minute))

	changed, err := f.svc.ExpireMeal(ctx, meal.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, enums.MealStatusExpired, f.meal(t, meal.ID).Status)
	assert.Equal(t, enums.ClaimStatusCancelled, f.claim(t, claim.ID).Status)

	changed, err = f.svc.ExpireMeal(ctx, meal.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	logs := f.events(t, meal.ID)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].ChangedBy)
	assert.Equal(t, enums.MealStatusExpired, logs[0].ToStatus)
}

func TestExpireMealIgnoresFutureExpiry(t *testing.T) {
	f := newFixture(t, nil)
	meal := f.seedMeal(t, uuid.New(), enums.MealStatusAvailable)
	future := baseTime.Add(time.Hour)
	require.NoError(t, f.conn.Model(&models.Meal{}).Where("id = ?", meal.ID).UpdateColumn("expiry_at", future).Error)

	changed, err := f.svc.ExpireMeal(context.Background(), meal.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, enums.MealStatusAvailable, f.meal(t, meal.ID).Status)
}

func TestExpireReservation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	cutoff := baseTime.Add(-30 * time.Minute)

	meal := f.seedMeal(t, uuid.New(), enums.MealStatusClaimed)
	stale := f.seedClaim(t, meal.ID, uuid.New(), enums.ClaimStatusActive, baseTime.Add(-time.Hour))

	fresh := f.seedMeal(t, uuid.New(), enums.MealStatusClaimed)
	recent := f.seedClaim(t, fresh.ID, uuid.New(), enums.ClaimStatusActive, baseTime.Add(-5*time.Minute))

	changed, err := f.svc.ExpireReservation(ctx, stale.ID, cutoff)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, enums.ClaimStatusCancelled, f.claim(t, stale.ID).Status)
	assert.Equal(t, enums.MealStatusAvailable, f.meal(t, meal.ID).Status)

	changed, err = f.svc.ExpireReservation(ctx, stale.ID, cutoff)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = f.svc.ExpireReservation(ctx, recent.ID, cutoff)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, enums.ClaimStatusActive, f.claim(t, recent.ID).Status)
}

func TestCancelStalePickup(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	meal := f.seedMeal(t, uuid.New(), enums.MealStatusPickupReady)
	require.NoError(t, f.conn.Model(&models.Meal{}).Where("id = ?", meal.ID).UpdateColumn("updated_at", baseTime.Add(-3*time.Hour)).Error)
	claim := f.seedClaim(t, meal.ID, uuid.New(), enums.ClaimStatusActive, baseTime.Add(-4*time.Hour))

	changed, err := f.svc.CancelStalePickup(ctx, meal.ID, baseTime.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, enums.MealStatusCancelled, f.meal(t, meal.ID).Status)
	assert.Equal(t, enums.ClaimStatusCancelled, f.claim(t, claim.ID).Status)

	changed, err = f.svc.CancelStalePickup(ctx, meal.ID, baseTime.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestListMine(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	claimant := claimantActor()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		meal := f.seedMeal(t, uuid.New(), enums.MealStatusCancelled)
		claim := f.seedClaim(t, meal.ID, claimant.ID, enums.ClaimStatusCancelled, baseTime.Add(time.Duration(i)*time.Hour))
		ids = append(ids, claim.ID)
	}
	other := f.seedMeal(t, uuid.New(), enums.MealStatusClaimed)
	f.seedClaim(t, other.ID, uuid.New(), enums.ClaimStatusActive, baseTime)

	page, err := f.svc.ListMine(ctx, claimant, ListClaimsInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[2], page.Items[0].ID)
	assert.Equal(t, ids[1], page.Items[1].ID)
	require.NotNil(t, page.Items[0].Meal)
	require.NotEmpty(t, page.NextCursor)

	page, err = f.svc.ListMine(ctx, claimant, ListClaimsInput{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, ids[0], page.Items[0].ID)
	assert.Empty(t, page.NextCursor)

	_, err = f.svc.ListMine(ctx, providerActor(), ListClaimsInput{})
	requireCode(t, err, pkgerrors.CodeForbidden)
}

func TestRepositoryFindExpiredReservations(t *testing.T) {
	f := newFixture(t, nil)
	repo := NewRepository(f.conn)
	cutoff := baseTime.Add(-30 * time.Minute)

	claimedMeal := f.seedMeal(t, uuid.New(), enums.MealStatusClaimed)
	due := f.seedClaim(t, claimedMeal.ID, uuid.New(), enums.ClaimStatusActive, baseTime.Add(-time.Hour))

	pickedMeal := f.seedMeal(t, uuid.New(), enums.MealStatusPickedUp)
	f.seedClaim(t, pickedMeal.ID, uuid.New(), enums.ClaimStatusActive, baseTime.Add(-time.Hour))

	freshMeal := f.seedMeal(t, uuid.New(), enums.MealStatusClaimed)
	f.seedClaim(t, freshMeal.ID, uuid.New(), enums.ClaimStatusActive, baseTime.Add(-10*time.Minute))

	rows, err := repo.FindExpiredReservations(context.Background(), cutoff, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, due.ID, rows[0].ID)

	_, _, err = repo.ListByClaimant(context.Background(), uuid.New(), pagination.Params{}, nil)
	require.NoError(t, err)
}
