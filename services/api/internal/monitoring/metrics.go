package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings successfully admitted, by offer kind",
		},
		[]string{"offer_kind"},
	)

	bookingsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_rejected_total",
			Help: "Booking attempts rejected by an admission rule",
		},
		[]string{"reason"},
	)

	notificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_notification_failures_total",
			Help: "Confirmation dispatches that failed after commit",
		},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
)

// BookingCreated records one admitted booking.
func BookingCreated(offerKind string) {
	bookingsCreated.WithLabelValues(offerKind).Inc()
}

// BookingRejected records one refused admission with its rule name.
func BookingRejected(reason string) {
	bookingsRejected.WithLabelValues(reason).Inc()
}

// NotificationFailed records a post-commit dispatch failure.
func NotificationFailed() {
	notificationFailures.Inc()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, status string, elapsed time.Duration) {
	httpDuration.WithLabelValues(method, status).Observe(elapsed.Seconds())
}
