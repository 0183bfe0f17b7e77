package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitline",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "code"},
	)

	admitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pitline",
			Name:      "appointments_admitted_total",
			Help:      "Appointment requests admitted into the schedule.",
		},
	)

	denied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pitline",
			Name:      "appointments_denied_total",
			Help:      "Appointment requests denied, by reason.",
		},
		[]string{"reason"},
	)

	notificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pitline",
			Name:      "notifications_sent_total",
			Help:      "Notifications delivered to the sink.",
		},
	)

	notificationsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pitline",
			Name:      "notifications_failed_total",
			Help:      "Notification deliveries that exhausted retries.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, admitted, denied, notificationsSent, notificationsFailed)
	})
}

// IncHTTP increments the request counter for an endpoint label.
func IncHTTP(endpoint, code string) {
	httpRequests.WithLabelValues(endpoint, code).Inc()
}

// IncAdmitted counts an appointment accepted into a day.
func IncAdmitted() {
	admitted.Inc()
}

// IncDenied counts a denied appointment; reason is "closed", "full" or
// "rate_limited".
func IncDenied(reason string) {
	denied.WithLabelValues(reason).Inc()
}

func IncNotificationSent() {
	notificationsSent.Inc()
}

func IncNotificationFailed() {
	notificationsFailed.Inc()
}
