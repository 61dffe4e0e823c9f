package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sharemeal/sharemeal-backend/pkg/logger"
	"github.com/sharemeal/sharemeal-backend/pkg/metrics"
)

const (
	defaultSchedule = "@every 5m"
	heartbeatName   = "guard-worker"
)

type heartbeatRecorder interface {
	RecordHeartbeat(ctx context.Context, name string, at time.Time, ttl time.Duration) error
}

// SchedulerParams configure the guard scheduler.
type SchedulerParams struct {
	Logger     *logger.Logger
	Sweeper    *Sweeper
	Lock       Lock
	Metrics    *metrics.GuardMetrics
	Heartbeat  heartbeatRecorder
	Schedule   string
	StartDelay time.Duration
}

// Scheduler triggers RunGuardSweep once shortly after start and then on a cron
// schedule. Overlapping triggers are skipped rather than queued.
type Scheduler struct {
	logg       *logger.Logger
	sweeper    *Sweeper
	lock       Lock
	metrics    *metrics.GuardMetrics
	heartbeat  heartbeatRecorder
	schedule   cron.Schedule
	spec       string
	startDelay time.Duration
}

// NewScheduler validates the schedule expression and builds a Scheduler.
func NewScheduler(params SchedulerParams) (*Scheduler, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Sweeper == nil {
		return nil, fmt.Errorf("sweeper required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	spec := params.Schedule
	if spec == "" {
		spec = defaultSchedule
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse guard schedule %q: %w", spec, err)
	}
	return &Scheduler{
		logg:       params.Logger,
		sweeper:    params.Sweeper,
		lock:       params.Lock,
		metrics:    params.Metrics,
		heartbeat:  params.Heartbeat,
		schedule:   schedule,
		spec:       spec,
		startDelay: params.StartDelay,
	}, nil
}

// Run blocks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if s.startDelay > 0 {
		timer := time.NewTimer(s.startDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	s.RunCycle(ctx)

	cronLog := cronLogger{logg: s.logg, ctx: ctx}
	runner := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	runner.Schedule(s.schedule, cron.FuncJob(func() { s.RunCycle(ctx) }))
	runner.Start()
	s.logg.Info(s.logg.WithField(ctx, "schedule", s.spec), "guard scheduler started")

	<-ctx.Done()
	stopped := runner.Stop()
	<-stopped.Done()
	s.logg.Info(ctx, "guard scheduler stopped")
	return ctx.Err()
}

// RunCycle takes the lock, runs one sweep and records the heartbeat. A cycle
// whose lock is held elsewhere is skipped.
func (s *Scheduler) RunCycle(ctx context.Context) (SweepResult, bool) {
	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logg.Error(ctx, "guard lock acquire failed", err)
		return SweepResult{}, false
	}
	if !locked {
		s.metrics.IncSkipped()
		s.logg.Info(ctx, "another guard worker holds the lock; skipping this cycle")
		return SweepResult{}, false
	}
	defer func() {
		if relErr := s.lock.Release(ctx); relErr != nil {
			s.logg.Error(ctx, "failed to release guard lock", relErr)
		}
	}()

	result := s.sweeper.RunGuardSweep(ctx)

	if s.heartbeat != nil {
		if err := s.heartbeat.RecordHeartbeat(ctx, heartbeatName, time.Now().UTC(), s.heartbeatTTL()); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "failed to record guard heartbeat")
		}
	}
	return result, true
}

// heartbeatTTL outlives two missed cycles.
func (s *Scheduler) heartbeatTTL() time.Duration {
	now := time.Now()
	next := s.schedule.Next(now)
	interval := next.Sub(now)
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return 3 * interval
}

// cronLogger adapts the structured logger to the cron runner.
type cronLogger struct {
	logg *logger.Logger
	ctx  context.Context
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logg.Debug(c.withPairs(keysAndValues), "cron: "+msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logg.Error(c.withPairs(keysAndValues), "cron: "+msg, err)
}

func (c cronLogger) withPairs(keysAndValues []interface{}) context.Context {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return c.logg.WithFields(c.ctx, fields)
}
