package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomfinder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roomfinder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomfinder_booking_submissions_total",
			Help: "Total number of booking submissions by outcome",
		},
		[]string{"outcome"},
	)

	BookingCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomfinder_booking_cancellations_total",
			Help: "Total number of booking cancellations",
		},
	)

	BookingsImportedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomfinder_bookings_imported_total",
			Help: "Total number of imported booking records by result",
		},
		[]string{"result"},
	)

	AvailabilityQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomfinder_availability_queries_total",
			Help: "Total number of availability queries",
		},
		[]string{"degraded"},
	)

	DirectoryRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomfinder_directory_rooms",
			Help: "Number of rooms in the current directory snapshot",
		},
	)

	EventPublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roomfinder_event_publish_failures_total",
			Help: "Total number of booking events that could not be published",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordSubmission counts a booking submission; outcome is "committed" or an error kind
func RecordSubmission(outcome string) {
	BookingSubmissionsTotal.WithLabelValues(outcome).Inc()
}

func RecordCancellation() {
	BookingCancellationsTotal.Inc()
}

func RecordImport(result string, n int) {
	BookingsImportedTotal.WithLabelValues(result).Add(float64(n))
}

func RecordAvailabilityQuery(degraded bool) {
	label := "false"
	if degraded {
		label = "true"
	}
	AvailabilityQueriesTotal.WithLabelValues(label).Inc()
}

func SetDirectoryRooms(n int) {
	DirectoryRooms.Set(float64(n))
}

func RecordPublishFailure() {
	EventPublishFailuresTotal.Inc()
}
