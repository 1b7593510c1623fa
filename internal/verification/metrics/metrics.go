package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow.
type Metrics struct {
	Submissions     *prometheus.CounterVec
	Reviews         *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
	QueueDuration   prometheus.Histogram
	StorageFailures prometheus.Counter
}

func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_verification_submissions_total",
			Help: "Registrations accepted at intake, by risk level",
		}, []string{"risk_level"}),
		Reviews: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustgate_verification_reviews_total",
			Help: "Admin review decisions, by outcome",
		}, []string{"decision"}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "trustgate_verification_queue_depth",
			Help: "Pending submissions seen by the last queue read",
		}),
		QueueDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustgate_verification_queue_duration_seconds",
			Help:    "Time to load and rank the review queue",
			Buckets: prometheus.DefBuckets,
		}),
		StorageFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustgate_verification_storage_failures_total",
			Help: "Verification operations that failed on storage",
		}),
	}
}

func (m *Metrics) IncrementSubmission(riskLevel string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(riskLevel).Inc()
}

func (m *Metrics) IncrementReview(decision string) {
	if m == nil {
		return
	}
	m.Reviews.WithLabelValues(decision).Inc()
}

// ObserveQueue records the depth and load time of a queue read started at start.
func (m *Metrics) ObserveQueue(depth int, start time.Time) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
	m.QueueDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementStorageFailure() {
	if m == nil {
		return
	}
	m.StorageFailures.Inc()
}
