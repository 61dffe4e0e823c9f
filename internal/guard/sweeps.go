package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/sharemeal/sharemeal-backend/internal/claims"
	"github.com/sharemeal/sharemeal-backend/pkg/db/models"
)

const (
	SweepExpireMeals        = "expire-meals"
	SweepReservationTimeout = "reservation-timeout"
	SweepStalePickup        = "stale-pickup"

	defaultBatchSize = 500
)

// Sweep is one time-based scan. Run returns how many transitions it applied;
// a partial failure still reports the transitions that went through.
type Sweep interface {
	Name() string
	Run(ctx context.Context, now time.Time) (int, error)
}

type mealFinder interface {
	FindExpirable(ctx context.Context, now time.Time, limit int) ([]models.Meal, error)
	FindStalePickupReady(ctx context.Context, cutoff time.Time, limit int) ([]models.Meal, error)
}

type reservationFinder interface {
	FindExpiredReservations(ctx context.Context, cutoff time.Time, limit int) ([]models.Claim, error)
}

// NewExpireMealsSweep expires AVAILABLE or CLAIMED meals whose expiry has passed.
func NewExpireMealsSweep(finder mealFinder, transitions claims.SystemTransitions, batch int) Sweep {
	return &expireMealsSweep{finder: finder, transitions: transitions, batch: batchOrDefault(batch)}
}

type expireMealsSweep struct {
	finder      mealFinder
	transitions claims.SystemTransitions
	batch       int
}

func (s *expireMealsSweep) Name() string { return SweepExpireMeals }

func (s *expireMealsSweep) Run(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.finder.FindExpirable(ctx, now, s.batch)
	if err != nil {
		return 0, fmt.Errorf("find expirable meals: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return apply(ctx, ids, s.transitions.ExpireMeal)
}

// NewReservationTimeoutSweep cancels claims left without pickup past the reservation window.
func NewReservationTimeoutSweep(finder reservationFinder, transitions claims.SystemTransitions, window time.Duration, batch int) Sweep {
	return &reservationTimeoutSweep{finder: finder, transitions: transitions, window: window, batch: batchOrDefault(batch)}
}

type reservationTimeoutSweep struct {
	finder      reservationFinder
	transitions claims.SystemTransitions
	window      time.Duration
	batch       int
}

func (s *reservationTimeoutSweep) Name() string { return SweepReservationTimeout }

func (s *reservationTimeoutSweep) Run(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.window)
	rows, err := s.finder.FindExpiredReservations(ctx, cutoff, s.batch)
	if err != nil {
		return 0, fmt.Errorf("find expired reservations: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return apply(ctx, ids, func(ctx context.Context, id uuid.UUID) (bool, error) {
		return s.transitions.ExpireReservation(ctx, id, cutoff)
	})
}

// NewStalePickupSweep cancels meals left PICKUP_READY past the staleness window.
func NewStalePickupSweep(finder mealFinder, transitions claims.SystemTransitions, window time.Duration, batch int) Sweep {
	return &stalePickupSweep{finder: finder, transitions: transitions, window: window, batch: batchOrDefault(batch)}
}

type stalePickupSweep struct {
	finder      mealFinder
	transitions claims.SystemTransitions
	window      time.Duration
	batch       int
}

func (s *stalePickupSweep) Name() string { return SweepStalePickup }

func (s *stalePickupSweep) Run(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.window)
	rows, err := s.finder.FindStalePickupReady(ctx, cutoff, s.batch)
	if err != nil {
		return 0, fmt.Errorf("find stale pickups: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return apply(ctx, ids, func(ctx context.Context, id uuid.UUID) (bool, error) {
		return s.transitions.CancelStalePickup(ctx, id, cutoff)
	})
}

// apply runs fn for every id, counting changes and collecting failures without
// stopping at the first one.
func apply(ctx context.Context, ids []uuid.UUID, fn func(context.Context, uuid.UUID) (bool, error)) (int, error) {
	var (
		count int
		errs  error
	)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return count, multierr.Append(errs, err)
		}
		changed, err := fn(ctx, id)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		if changed {
			count++
		}
	}
	return count, errs
}

func batchOrDefault(batch int) int {
	if batch <= 0 {
		return defaultBatchSize
	}
	return batch
}
