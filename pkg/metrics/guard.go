package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GuardMetrics records guard sweep executions and the transitions they apply.
type GuardMetrics struct {
	duration    *prometheus.HistogramVec
	success     *prometheus.CounterVec
	failure     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	skipped     prometheus.Counter
}

// NewGuardMetrics registers the guard metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewGuardMetrics(reg prometheus.Registerer) *GuardMetrics {
	if reg == nil {
		return &GuardMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sharemeal",
		Subsystem: "guard",
		Name:      "sweep_duration_seconds",
		Help:      "Duration of guard sweeps in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"sweep"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharemeal",
		Subsystem: "guard",
		Name:      "sweep_success_total",
		Help:      "Guard sweeps that completed without error.",
	}, []string{"sweep"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharemeal",
		Subsystem: "guard",
		Name:      "sweep_failure_total",
		Help:      "Guard sweeps that returned an error.",
	}, []string{"sweep"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharemeal",
		Subsystem: "guard",
		Name:      "transitions_total",
		Help:      "Meal transitions applied by guard sweeps.",
	}, []string{"sweep"})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharemeal",
		Subsystem: "guard",
		Name:      "cycles_skipped_total",
		Help:      "Guard cycles skipped because another worker held the lock.",
	})
	reg.MustRegister(duration, success, failure, transitions, skipped)
	return &GuardMetrics{
		duration:    duration,
		success:     success,
		failure:     failure,
		transitions: transitions,
		skipped:     skipped,
	}
}

// ObserveDuration records the duration for the named sweep.
func (g *GuardMetrics) ObserveDuration(sweep string, duration time.Duration) {
	if g == nil || g.duration == nil {
		return
	}
	g.duration.WithLabelValues(normalizeLabel(sweep)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named sweep.
func (g *GuardMetrics) IncSuccess(sweep string) {
	if g == nil || g.success == nil {
		return
	}
	g.success.WithLabelValues(normalizeLabel(sweep)).Inc()
}

// IncFailure increments the failure counter for the named sweep.
func (g *GuardMetrics) IncFailure(sweep string) {
	if g == nil || g.failure == nil {
		return
	}
	g.failure.WithLabelValues(normalizeLabel(sweep)).Inc()
}

// AddTransitions adds n applied transitions for the named sweep.
func (g *GuardMetrics) AddTransitions(sweep string, n int) {
	if g == nil || g.transitions == nil || n <= 0 {
		return
	}
	g.transitions.WithLabelValues(normalizeLabel(sweep)).Add(float64(n))
}

// IncSkipped counts a cycle that did not run because the lock was held elsewhere.
func (g *GuardMetrics) IncSkipped() {
	if g == nil || g.skipped == nil {
		return
	}
	g.skipped.Inc()
}

func normalizeLabel(sweep string) string {
	if sweep == "" {
		return "unknown"
	}
	return sweep
}
