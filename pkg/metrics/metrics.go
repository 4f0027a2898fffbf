package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glowlink",
			Name:      "booking_submissions_total",
			Help:      "Count of booking submissions by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "glowlink",
			Name:      "booking_sessions_active",
			Help:      "Number of open booking form sessions.",
		},
	)

	ordersStored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "glowlink",
			Name:      "orders_stored_total",
			Help:      "Count of orders written to storage by mode.",
		},
		[]string{"mode"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "glowlink",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(submissions, sessionsActive, ordersStored, httpDuration)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Submission outcomes.
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

func IncSubmission(mode, outcome string) {
	submissions.WithLabelValues(mode, outcome).Inc()
}

func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

func IncOrderStored(mode string) {
	ordersStored.WithLabelValues(mode).Inc()
}

func ObserveHTTP(route, status string, elapsed time.Duration) {
	httpDuration.WithLabelValues(route, status).Observe(elapsed.Seconds())
}
