// Package metrics provides Prometheus collectors for the bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all collectors.
type Metrics struct {
	MessagesReceived     *prometheus.CounterVec
	IntentsDispatched    *prometheus.CounterVec
	OutboundMessages     *prometheus.CounterVec
	GenAIRequests        *prometheus.CounterVec
	GenAIDuration        prometheus.Histogram
	SessionsActive       prometheus.Gauge
	SessionsExpired      prometheus.Counter
	BookingConfirmations *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers collectors with the default registry.
func New() *Metrics {
	m := newWithRegisterer(prometheus.DefaultRegisterer)
	m.gatherer = prometheus.DefaultGatherer
	return m
}

// NewWithRegistry registers collectors with reg (tests use a fresh registry).
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := newWithRegisterer(reg)
	m.gatherer = reg
	return m
}

func newWithRegisterer(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		MessagesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whatsapp_messages_received_total",
			Help: "Inbound WhatsApp messages by message type.",
		}, []string{"type"}),
		IntentsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conversation_intents_total",
			Help: "Dispatcher rule that handled each inbound message.",
		}, []string{"intent"}),
		OutboundMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "whatsapp_outbound_messages_total",
			Help: "Outbound messaging calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		GenAIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genai_requests_total",
			Help: "Generative answer attempts by outcome.",
		}, []string{"outcome"}),
		GenAIDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "genai_request_duration_seconds",
			Help:    "Latency of generative answer attempts.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "conversation_sessions_active",
			Help: "Sessions currently held in memory.",
		}),
		SessionsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "conversation_sessions_expired_total",
			Help: "Sessions evicted after the idle TTL.",
		}),
		BookingConfirmations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_confirmations_total",
			Help: "Site-visit rows processed by the confirmation poller, by resulting status.",
		}, []string{"status"}),
	}
}

// Gatherer returns the registry backing these metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// RecordOutbound counts one outbound call.
func (m *Metrics) RecordOutbound(kind string, err error) {
	if m == nil {
		return
	}
	m.OutboundMessages.WithLabelValues(kind, outcome(err)).Inc()
}

// RecordGenAI counts one generative attempt and its latency.
func (m *Metrics) RecordGenAI(started time.Time, err error) {
	if m == nil {
		return
	}
	m.GenAIRequests.WithLabelValues(outcome(err)).Inc()
	m.GenAIDuration.Observe(time.Since(started).Seconds())
}

// RecordIntent counts the rule that handled a message.
func (m *Metrics) RecordIntent(intent string) {
	if m == nil {
		return
	}
	m.IntentsDispatched.WithLabelValues(intent).Inc()
}

// RecordMessage counts one inbound message.
func (m *Metrics) RecordMessage(msgType string) {
	if m == nil {
		return
	}
	m.MessagesReceived.WithLabelValues(msgType).Inc()
}

// SetActiveSessions reports the current session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// RecordSessionsExpired counts evicted sessions.
func (m *Metrics) RecordSessionsExpired(n int) {
	if m == nil || n == 0 {
		return
	}
	m.SessionsExpired.Add(float64(n))
}

// RecordBookingConfirmation counts one poller row outcome.
func (m *Metrics) RecordBookingConfirmation(status string) {
	if m == nil {
		return
	}
	m.BookingConfirmations.WithLabelValues(status).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
