package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	availabilityRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slotnik",
			Name:      "availability_requests_total",
			Help:      "Count of availability computations by outcome.",
		},
		[]string{"outcome"},
	)

	slotsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "slotnik",
			Name:      "slots_returned",
			Help:      "Number of slots returned per availability request.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
	)

	conflictsDetected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slotnik",
			Name:      "conflicts_detected_total",
			Help:      "Count of conflicts found at validation time by kind.",
		},
		[]string{"kind"},
	)

	commitOutcome = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slotnik",
			Name:      "commit_total",
			Help:      "Count of booking commit attempts by final state.",
		},
		[]string{"state"},
	)

	commitRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slotnik",
			Name:      "commit_retries_total",
			Help:      "Count of commit re-validations caused by a lost write race.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slotnik",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			availabilityRequests, slotsReturned, conflictsDetected,
			commitOutcome, commitRetries, httpRequests,
		)
	})
}

func IncAvailability(outcome string) {
	availabilityRequests.WithLabelValues(outcome).Inc()
}

func ObserveSlotsReturned(n int) {
	slotsReturned.Observe(float64(n))
}

func IncConflict(kind string) {
	conflictsDetected.WithLabelValues(kind).Inc()
}

func IncCommit(state string) {
	commitOutcome.WithLabelValues(state).Inc()
}

func IncCommitRetry() {
	commitRetries.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
