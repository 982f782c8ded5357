// Package metrics exposes Prometheus collectors for registration traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for admission attempts.
const (
	OutcomeAdmitted          = "admitted"
	OutcomeEventNotFound     = "event_not_found"
	OutcomeEventExpired      = "event_expired"
	OutcomeUserNotFound      = "user_not_found"
	OutcomeAlreadyRegistered = "already_registered"
	OutcomeEventFull         = "event_full"
	OutcomeTransient         = "transient"
	OutcomeInternal          = "internal"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RegistrationAttempts *prometheus.CounterVec
	Cancellations        prometheus.Counter
	RegistrationTxTime   prometheus.Histogram
	EventsCreated        prometheus.Counter
	UsersCreated         prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistrationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "event_registration_attempts_total",
			Help: "Registration attempts by outcome",
		}, []string{"outcome"}),
		Cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "event_registration_cancellations_total",
			Help: "Registrations cancelled",
		}),
		RegistrationTxTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "event_registration_tx_duration_seconds",
			Help:    "Time spent in the admission transaction, lock wait included",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		EventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "event_registration_events_created_total",
			Help: "Events created",
		}),
		UsersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "event_registration_users_created_total",
			Help: "Users created",
		}),
	}
	reg.MustRegister(
		m.RegistrationAttempts,
		m.Cancellations,
		m.RegistrationTxTime,
		m.EventsCreated,
		m.UsersCreated,
	)
	return m
}

// ObserveRegistration records one admission attempt. A nil receiver is a no-op
// so services can run without metrics in tests.
func (m *Metrics) ObserveRegistration(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.RegistrationAttempts.WithLabelValues(outcome).Inc()
	m.RegistrationTxTime.Observe(took.Seconds())
}

// IncrementCancellations counts one cancelled registration.
func (m *Metrics) IncrementCancellations() {
	if m == nil {
		return
	}
	m.Cancellations.Inc()
}

// IncrementEventsCreated counts one created event.
func (m *Metrics) IncrementEventsCreated() {
	if m == nil {
		return
	}
	m.EventsCreated.Inc()
}

// IncrementUsersCreated counts one created user.
func (m *Metrics) IncrementUsersCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}
