package guard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/sharemeal/sharemeal-backend/pkg/logger"
	"github.com/sharemeal/sharemeal-backend/pkg/metrics"
)

// SweepResult counts the transitions one guard sweep applied.
type SweepResult struct {
	Expired         int `json:"expired"`
	CancelledClaims int `json:"cancelledClaims"`
	StaleCancelled  int `json:"staleCancelled"`
}

// Total is the number of transitions across all sweeps.
func (r SweepResult) Total() int {
	return r.Expired + r.CancelledClaims + r.StaleCancelled
}

// SweeperParams configure a Sweeper.
type SweeperParams struct {
	Logger  *logger.Logger
	Sweeps  []Sweep
	Metrics *metrics.GuardMetrics
	Now     func() time.Time
}

// Sweeper runs every sweep once per call. It keeps no state between calls;
// each run derives its work from current timestamps.
type Sweeper struct {
	logg    *logger.Logger
	sweeps  []Sweep
	metrics *metrics.GuardMetrics
	now     func() time.Time
}

// NewSweeper builds a Sweeper over the provided sweeps, run in order.
func NewSweeper(params SweeperParams) (*Sweeper, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	sweeps := make([]Sweep, 0, len(params.Sweeps))
	for _, sweep := range params.Sweeps {
		if sweep != nil {
			sweeps = append(sweeps, sweep)
		}
	}
	if len(sweeps) == 0 {
		return nil, fmt.Errorf("at least one sweep required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Sweeper{
		logg:    params.Logger,
		sweeps:  sweeps,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

// RunGuardSweep runs every sweep and returns the per-sweep counts. It never
// fails: each sweep logs its own error and the next sweep still runs.
func (s *Sweeper) RunGuardSweep(ctx context.Context) SweepResult {
	if ctx == nil {
		ctx = context.Background()
	}
	now := s.now()
	ctx = s.logg.WithField(ctx, "event", "guard.sweep")
	s.logg.Info(ctx, "guard sweep starting")

	var (
		result SweepResult
		errs   error
	)
	for _, sweep := range s.sweeps {
		count, err := s.runOne(ctx, sweep, now)
		switch sweep.Name() {
		case SweepExpireMeals:
			result.Expired += count
		case SweepReservationTimeout:
			result.CancelledClaims += count
		case SweepStalePickup:
			result.StaleCancelled += count
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", sweep.Name(), err))
		}
	}

	doneCtx := s.logg.WithFields(ctx, map[string]any{
		"expired":          result.Expired,
		"cancelled_claims": result.CancelledClaims,
		"stale_cancelled":  result.StaleCancelled,
	})
	if errs != nil {
		doneCtx = s.logg.WithField(doneCtx, "failed_sweeps", len(multierr.Errors(errs)))
		s.logg.Warn(doneCtx, "guard sweep completed with failures")
		return result
	}
	s.logg.Info(doneCtx, "guard sweep complete")
	return result
}

func (s *Sweeper) runOne(ctx context.Context, sweep Sweep, now time.Time) (count int, err error) {
	sweepCtx := s.logg.WithField(ctx, "sweep", sweep.Name())
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		duration := time.Since(start)
		s.metrics.ObserveDuration(sweep.Name(), duration)
		s.metrics.AddTransitions(sweep.Name(), count)
		sweepCtx = s.logg.WithFields(sweepCtx, map[string]any{
			"duration_ms": duration.Milliseconds(),
			"transitions": count,
		})
		if err != nil {
			s.metrics.IncFailure(sweep.Name())
			s.logg.Error(sweepCtx, "guard sweep failed", err)
			return
		}
		s.metrics.IncSuccess(sweep.Name())
		s.logg.Info(sweepCtx, "guard sweep step completed")
	}()

	return sweep.Run(sweepCtx, now)
}
