package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riverside",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	wizardSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "riverside",
			Name:      "wizard_step_transitions_total",
			Help:      "Booking wizard step transitions by target step.",
		},
		[]string{"step"},
	)

	reservationsConfirmed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "riverside",
			Name:      "reservations_confirmed_total",
			Help:      "Reservations confirmed by the desk.",
		},
	)

	deskFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "riverside",
			Name:      "desk_failures_total",
			Help:      "Failed reservation attempts against the desk.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, wizardSteps, reservationsConfirmed, deskFailures)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncWizardStep increments the transition counter for a wizard step label.
func IncWizardStep(step string) {
	wizardSteps.WithLabelValues(step).Inc()
}

// IncReservationConfirmed counts a successful desk confirmation.
func IncReservationConfirmed() {
	reservationsConfirmed.Inc()
}

// IncDeskFailure counts a failed desk confirmation.
func IncDeskFailure() {
	deskFailures.Inc()
}
