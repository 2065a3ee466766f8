package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics tracks order intake and the payment gateway round trip.
type OrderMetrics struct {
	created        *prometheus.CounterVec
	chargeRequests *prometheus.CounterVec
	callbacks      *prometheus.CounterVec
	claimConflicts prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders accepted, by payment method.",
	}, []string{"payment_method"})
	chargeRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "stk_requests_total",
		Help:      "STK push initiations, by outcome.",
	}, []string{"outcome"})
	callbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "callbacks_total",
		Help:      "Gateway callbacks received, by how they were applied.",
	}, []string{"outcome"})
	claimConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "orders",
		Name:      "claim_conflicts_total",
		Help:      "Claims rejected because another staff member won the race.",
	})
	reg.MustRegister(created, chargeRequests, callbacks, claimConflicts)
	return &OrderMetrics{
		created:        created,
		chargeRequests: chargeRequests,
		callbacks:      callbacks,
		claimConflicts: claimConflicts,
	}
}

func (m *OrderMetrics) IncCreated(paymentMethod string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncChargeRequest records an STK push attempt; outcome is accepted,
// rejected or error.
func (m *OrderMetrics) IncChargeRequest(outcome string) {
	if m == nil || m.chargeRequests == nil {
		return
	}
	m.chargeRequests.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCallback records a callback outcome such as applied, duplicate,
// stale or unmatched.
func (m *OrderMetrics) IncCallback(outcome string) {
	if m == nil || m.callbacks == nil {
		return
	}
	m.callbacks.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *OrderMetrics) IncClaimConflict() {
	if m == nil || m.claimConflicts == nil {
		return
	}
	m.claimConflicts.Inc()
}
