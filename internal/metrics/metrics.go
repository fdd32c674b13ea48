package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "seminar"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		},
		[]string{"endpoint", "status"},
	)

	reservationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_outcomes_total",
			Help:      "Reservation lifecycle results by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	storeRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_retries_total",
			Help:      "Reservation creates retried after a transient store failure.",
		},
	)

	roomCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_cache_lookups_total",
			Help:      "Public room listing cache lookups by result.",
		},
		[]string{"result"},
	)

	backupRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_runs_total",
			Help:      "Store snapshots by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservationOutcomes, storeRetries, roomCacheLookups, backupRuns)
	})
}

// IncHTTP increments the request counter for an endpoint label.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncReservation counts a lifecycle result, e.g. ("create", "duplicate").
func IncReservation(operation, outcome string) {
	reservationOutcomes.WithLabelValues(operation, outcome).Inc()
}

func IncStoreRetry() {
	storeRetries.Inc()
}

// IncRoomCache counts a cache hit or miss.
func IncRoomCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	roomCacheLookups.WithLabelValues(result).Inc()
}

func IncBackup(outcome string) {
	backupRuns.WithLabelValues(outcome).Inc()
}
