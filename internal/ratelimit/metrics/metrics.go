package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Checks        *prometheus.CounterVec
	StoreFailures prometheus.Counter
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Checks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_ratelimit_checks_total",
			Help: "Rate limit decisions, by outcome",
		}, []string{"outcome"}),
		StoreFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_ratelimit_store_failures_total",
			Help: "Rate limit checks skipped because the bucket store failed",
		}),
	}
}

func (m *Metrics) IncrementCheck(allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "rejected"
	}
	m.Checks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementStoreFailure() {
	if m == nil {
		return
	}
	m.StoreFailures.Inc()
}
