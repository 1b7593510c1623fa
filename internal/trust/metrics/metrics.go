package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for trust score mutation.
type Metrics struct {
	Adjustments     *prometheus.CounterVec
	Clamped         prometheus.Counter
	AdjustDuration  prometheus.Histogram
	SweepAdjusted   prometheus.Counter
	SweepFailures   prometheus.Counter
	StorageFailures prometheus.Counter
}

// New registers the trust module metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers on reg. Tests pass a fresh prometheus.NewRegistry().
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Adjustments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_trust_adjustments_total",
			Help: "Trust score adjustments applied, by action",
		}, []string{"action"}),
		Clamped: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_trust_adjustments_clamped_total",
			Help: "Adjustments whose result was clamped to 0 or 100",
		}),
		AdjustDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgate_trust_adjust_duration_seconds",
			Help:    "Duration of the locked read-modify-write of a trust score",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		SweepAdjusted: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_trust_sweep_adjusted_total",
			Help: "Users whose score changed during a time_based sweep",
		}),
		SweepFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_trust_sweep_failures_total",
			Help: "Per-user failures during a time_based sweep",
		}),
		StorageFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_trust_storage_failures_total",
			Help: "Trust mutations that failed on storage",
		}),
	}
}

func (m *Metrics) IncrementAdjustment(action string, clamped bool) {
	if m == nil {
		return
	}
	m.Adjustments.WithLabelValues(action).Inc()
	if clamped {
		m.Clamped.Inc()
	}
}

// ObserveAdjust records the duration of an adjustment started at start.
func (m *Metrics) ObserveAdjust(start time.Time) {
	if m == nil {
		return
	}
	m.AdjustDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementSweep(adjusted, failed int) {
	if m == nil {
		return
	}
	m.SweepAdjusted.Add(float64(adjusted))
	m.SweepFailures.Add(float64(failed))
}

func (m *Metrics) IncrementStorageFailure() {
	if m == nil {
		return
	}
	m.StorageFailures.Inc()
}
