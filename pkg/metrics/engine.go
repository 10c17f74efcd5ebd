package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records checkout and reconciliation outcomes.
type EngineMetrics struct {
	checkouts          *prometheus.CounterVec
	reconcileApplied   prometheus.Counter
	reconcileDuplicate prometheus.Counter
	webhookRejected    *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_total",
		Help: "Orders created at checkout, by payment method.",
	}, []string{"method"})
	applied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_applied_total",
		Help: "Gateway notifications that applied payment side effects.",
	})
	duplicate := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconcile_duplicate_total",
		Help: "Gateway notifications dropped by the idempotency gates.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_rejected_total",
		Help: "Webhook deliveries rejected before reconciliation.",
	}, []string{"reason"})
	reg.MustRegister(checkouts, applied, duplicate, rejected)
	return &EngineMetrics{
		checkouts:          checkouts,
		reconcileApplied:   applied,
		reconcileDuplicate: duplicate,
		webhookRejected:    rejected,
	}
}

// IncCheckout increments the checkout counter for the payment method.
func (m *EngineMetrics) IncCheckout(method string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncReconcileApplied increments the applied-reconciliation counter.
func (m *EngineMetrics) IncReconcileApplied() {
	if m == nil || m.reconcileApplied == nil {
		return
	}
	m.reconcileApplied.Inc()
}

// IncReconcileDuplicate increments the duplicate-notification counter.
func (m *EngineMetrics) IncReconcileDuplicate() {
	if m == nil || m.reconcileDuplicate == nil {
		return
	}
	m.reconcileDuplicate.Inc()
}

// IncWebhookRejected increments the rejected-webhook counter for the reason.
func (m *EngineMetrics) IncWebhookRejected(reason string) {
	if m == nil || m.webhookRejected == nil {
		return
	}
	m.webhookRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
