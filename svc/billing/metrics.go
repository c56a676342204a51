package billing

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts billing outcomes. A nil *Metrics records nothing.
type Metrics struct {
	outcomes      *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
	reconciles    *prometheus.CounterVec
	profileWrites prometheus.Counter
}

// NewMetrics registers the billing collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutorhub",
			Subsystem: "billing",
			Name:      "outcomes_total",
			Help:      "Billing operations by operation and resulting mode or error code",
		}, []string{"operation", "result"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutorhub",
			Subsystem: "billing",
			Name:      "webhook_events_total",
			Help:      "Processor webhook events by type and handling result",
		}, []string{"type", "result"}),
		reconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutorhub",
			Subsystem: "billing",
			Name:      "reconciled_profiles_total",
			Help:      "Profiles visited by the reconciliation sweep by result",
		}, []string{"result"}),
		profileWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tutorhub",
			Subsystem: "billing",
			Name:      "profile_write_failures_total",
			Help:      "Profile writes that failed after the processor accepted a change",
		}),
	}
	reg.MustRegister(m.outcomes, m.webhooks, m.reconciles, m.profileWrites)
	return m
}

func (m *Metrics) outcome(operation, result string) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) webhook(eventType, result string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) reconciled(result string) {
	if m == nil {
		return
	}
	m.reconciles.WithLabelValues(result).Inc()
}

func (m *Metrics) profileWriteFailed() {
	if m == nil {
		return
	}
	m.profileWrites.Inc()
}
