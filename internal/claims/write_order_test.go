package claims

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sharemeal/sharemeal-backend/internal/access"
	"github.com/sharemeal/sharemeal-backend/internal/mealevents"
	"github.com/sharemeal/sharemeal-backend/internal/meals"
	"github.com/sharemeal/sharemeal-backend/pkg/db/dbtest"
	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
	"github.com/sharemeal/sharemeal-backend/pkg/enums"
)

// writeLog records which table each transactional write touched, in order.
type writeLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *writeLog) add(table string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, table)
}

func (l *writeLog) take() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.entries
	l.entries = nil
	return out
}

type loggedMeals struct {
	meals.Repository
	log *writeLog
}

func (r loggedMeals) WithTx(tx *gorm.DB) meals.Repository {
	return loggedMeals{Repository: r.Repository.WithTx(tx), log: r.log}
}

func (r loggedMeals) TransitionStatus(ctx context.Context, id uuid.UUID, rule meals.Rule, at time.Time) (bool, error) {
	r.log.add("meals")
	return r.Repository.TransitionStatus(ctx, id, rule, at)
}

type loggedClaims struct {
	Repository
	log *writeLog
}

func (r loggedClaims) WithTx(tx *gorm.DB) Repository {
	return loggedClaims{Repository: r.Repository.WithTx(tx), log: r.log}
}

func (r loggedClaims) Create(ctx context.Context, claim *models.Claim) error {
	r.log.add("claims")
	return r.Repository.Create(ctx, claim)
}

func (r loggedClaims) UpdateIfStatus(ctx context.Context, id uuid.UUID, from enums.ClaimStatus, updates map[string]any) (bool, error) {
	r.log.add("claims")
	return r.Repository.UpdateIfStatus(ctx, id, from, updates)
}

func (r loggedClaims) CancelActiveForMeal(ctx context.Context, mealID uuid.UUID, at time.Time) (int64, error) {
	r.log.add("claims")
	return r.Repository.CancelActiveForMeal(ctx, mealID, at)
}

func newLoggedFixture(t *testing.T) (*fixture, *writeLog) {
	t.Helper()
	client, conn := dbtest.NewClient(t)
	clock := &testClock{now: baseTime}
	log := &writeLog{}
	svc, err := NewService(ServiceParams{
		Claims:   loggedClaims{Repository: NewRepository(conn), log: log},
		Meals:    loggedMeals{Repository: meals.NewRepository(conn), log: log},
		Tx:       client,
		Recorder: mealevents.NewRecorder(mealevents.NewRepository(conn), nil),
		Gate:     access.NewGate(true),
		Now:      clock.Now,
	})
	require.NoError(t, err)
	return &fixture{svc: svc, conn: conn, clock: clock}, log
}

func TestEveryTransitionWritesMealBeforeClaim(t *testing.T) {
	ctx := context.Background()
	f, log := newLoggedFixture(t)
	provider := providerActor()
	claimant := claimantActor()
	mealThenClaim := []string{"meals", "claims"}

	// Interactive path through completion.
	meal := f.seedMeal(t, provider.ID, enums.MealStatusAvailable)
	res, err := f.svc.Claim(ctx, claimant, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, mealThenClaim, log.take(), "claim")

	_, err = f.svc.MarkPickupReady(ctx, provider, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"meals"}, log.take(), "mark ready")

	_, err = f.svc.ConfirmPickup(ctx, claimant, res.Claim.ID)
	require.NoError(t, err)
	assert.Equal(t, mealThenClaim, log.take(), "pickup")

	_, err = f.svc.ConfirmCompletion(ctx, claimant, res.Claim.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, mealThenClaim, log.take(), "completion")

	// Claimant cancel.
	meal = f.seedMeal(t, provider.ID, enums.MealStatusAvailable)
	res, err = f.svc.Claim(ctx, claimant, meal.ID)
	require.NoError(t, err)
	log.take()
	_, err = f.svc.Cancel(ctx, claimant, res.Claim.ID)
	require.NoError(t, err)
	assert.Equal(t, mealThenClaim, log.take(), "cancel")
	assert.Equal(t, enums.MealStatusAvailable, f.meal(t, meal.ID).Status)
	assert.Equal(t, enums.ClaimStatusCancelled, f.claim(t, res.Claim.ID).Status)

	// Guard: reservation window elapsed.
	meal = f.seedMeal(t, provider.ID, enums.MealStatusClaimed)
	claim := f.seedClaim(t, meal.ID, claimant.ID, enums.ClaimStatusActive, baseTime.Add(-time.Hour))
	changed, err := f.svc.ExpireReservation(ctx, claim.ID, baseTime.Add(-30*time.Minute))
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, mealThenClaim, log.take(), "reservation timeout")
	assert.Equal(t, enums.MealStatusAvailable, f.meal(t, meal.ID).Status)
	assert.Equal(t, enums.ClaimStatusCancelled, f.claim(t, claim.ID).Status)

	// Guard: expiry passed while claimed.
	meal = f.seedMeal(t, provider.ID, enums.MealStatusClaimed)
	f.seedClaim(t, meal.ID, claimant.ID, enums.ClaimStatusActive, baseTime.Add(-10*time.Minute))
	require.NoError(t, f.conn.Model(&models.Meal{}).Where("id = ?", meal.ID).
		Update("expiry_at", baseTime.Add(-time.Minute)).Error)
	changed, err = f.svc.ExpireMeal(ctx, meal.ID)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, mealThenClaim, log.take(), "expire meal")

	// Guard: stale pickup.
	meal = f.seedMeal(t, provider.ID, enums.MealStatusPickupReady)
	f.seedClaim(t, meal.ID, claimant.ID, enums.ClaimStatusActive, baseTime.Add(-3*time.Hour))
	changed, err = f.svc.CancelStalePickup(ctx, meal.ID, baseTime.Add(-30*time.Minute))
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, mealThenClaim, log.take(), "stale pickup")
}

func TestLostReservationRaceLeavesClaimUntouched(t *testing.T) {
	ctx := context.Background()
	client, conn := dbtest.NewClient(t)
	log := &writeLog{}
	svc, err := NewService(ServiceParams{
		Claims:   loggedClaims{Repository: NewRepository(conn), log: log},
		Meals:    racingMeals{Repository: loggedMeals{Repository: meals.NewRepository(conn), log: log}},
		Tx:       client,
		Recorder: mealevents.NewRecorder(mealevents.NewRepository(conn), nil),
		Gate:     access.NewGate(true),
		Now:      (&testClock{now: baseTime}).Now,
	})
	require.NoError(t, err)
	f := &fixture{svc: svc, conn: conn}

	meal := f.seedMeal(t, providerActor().ID, enums.MealStatusClaimed)
	claim := f.seedClaim(t, meal.ID, claimantActor().ID, enums.ClaimStatusActive, baseTime.Add(-time.Hour))

	changed, err := f.svc.ExpireReservation(ctx, claim.ID, baseTime.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, []string{"meals"}, log.take())
	assert.Equal(t, enums.MealStatusClaimed, f.meal(t, meal.ID).Status)
	assert.Equal(t, enums.ClaimStatusActive, f.claim(t, claim.ID).Status)
	assert.Empty(t, f.events(t, meal.ID))
}

// racingMeals moves the meal to PICKED_UP inside the transaction right before
// the status write, as a pickup confirmed after the sweep loaded the meal would.
type racingMeals struct {
	meals.Repository
	tx *gorm.DB
}

func (r racingMeals) WithTx(tx *gorm.DB) meals.Repository {
	return racingMeals{Repository: r.Repository.WithTx(tx), tx: tx}
}

func (r racingMeals) TransitionStatus(ctx context.Context, id uuid.UUID, rule meals.Rule, at time.Time) (bool, error) {
	if r.tx != nil {
		if err := r.tx.Model(&models.Meal{}).Where("id = ?", id).
			Update("status", string(enums.MealStatusPickedUp)).Error; err != nil {
			return false, err
		}
	}
	return r.Repository.TransitionStatus(ctx, id, rule, at)
}
