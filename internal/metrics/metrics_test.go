package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHelpers(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordOutbound("text", nil)
	m.RecordOutbound("text", errors.New("boom"))
	m.RecordOutbound("document", nil)
	m.RecordIntent("brochure")
	m.RecordMessage("text")
	m.RecordGenAI(time.Now(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboundMessages.WithLabelValues("text", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboundMessages.WithLabelValues("text", OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntentsDispatched.WithLabelValues("brochure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenAIRequests.WithLabelValues(OutcomeSuccess)))

	m.SetActiveSessions(2)
	m.RecordSessionsExpired(0)
	m.RecordSessionsExpired(3)
	m.RecordBookingConfirmation("Confirmed")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SessionsExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingConfirmations.WithLabelValues("Confirmed")))

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOutbound("text", nil)
		m.RecordIntent("x")
		m.RecordMessage("text")
		m.RecordGenAI(time.Now(), nil)
		m.SetActiveSessions(3)
		m.RecordSessionsExpired(1)
		m.RecordBookingConfirmation("Confirmed")
	})
}
