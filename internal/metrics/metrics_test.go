package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRegistration(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRegistration(OutcomeAdmitted, 3*time.Millisecond)
	m.ObserveRegistration(OutcomeAdmitted, time.Millisecond)
	m.ObserveRegistration(OutcomeEventFull, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RegistrationAttempts.WithLabelValues(OutcomeAdmitted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationAttempts.WithLabelValues(OutcomeEventFull)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RegistrationTxTime))
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementCancellations()
	m.IncrementEventsCreated()
	m.IncrementEventsCreated()
	m.IncrementUsersCreated()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cancellations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UsersCreated))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRegistration(OutcomeInternal, time.Second)
		m.IncrementCancellations()
		m.IncrementEventsCreated()
		m.IncrementUsersCreated()
	})
}
