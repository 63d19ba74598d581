package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records webhook and checkout activity for dashboards.
type PaymentMetrics struct {
	eventsReceived *prometheus.CounterVec
	eventsApplied  *prometheus.CounterVec
	eventsDropped  *prometheus.CounterVec
	eventsReplayed *prometheus.CounterVec
	sessions       *prometheus.CounterVec
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_received",
		Help: "Webhook events accepted after signature verification.",
	}, []string{"type"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_applied",
		Help: "Webhook events that produced a ledger transition.",
	}, []string{"type"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_dropped",
		Help: "Webhook events acknowledged but not applied (unknown session).",
	}, []string{"type"})
	replayed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_events_replayed",
		Help: "Webhook events ignored because the session was already terminal.",
	}, []string{"type"})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_created",
		Help: "Checkout sessions created per subject type.",
	}, []string{"subject"})
	reg.MustRegister(received, applied, dropped, replayed, sessions)
	return &PaymentMetrics{
		eventsReceived: received,
		eventsApplied:  applied,
		eventsDropped:  dropped,
		eventsReplayed: replayed,
		sessions:       sessions,
	}
}

// IncReceived counts a verified incoming event.
func (m *PaymentMetrics) IncReceived(eventType string) {
	if m == nil || m.eventsReceived == nil {
		return
	}
	m.eventsReceived.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncApplied counts an event that changed ledger state.
func (m *PaymentMetrics) IncApplied(eventType string) {
	if m == nil || m.eventsApplied == nil {
		return
	}
	m.eventsApplied.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDropped counts an event acknowledged without a matching session.
func (m *PaymentMetrics) IncDropped(eventType string) {
	if m == nil || m.eventsDropped == nil {
		return
	}
	m.eventsDropped.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncReplayed counts an event ignored because the session was terminal.
func (m *PaymentMetrics) IncReplayed(eventType string) {
	if m == nil || m.eventsReplayed == nil {
		return
	}
	m.eventsReplayed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncSessionCreated counts a new checkout session per subject type.
func (m *PaymentMetrics) IncSessionCreated(subjectType string) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.WithLabelValues(normalizeLabel(subjectType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
