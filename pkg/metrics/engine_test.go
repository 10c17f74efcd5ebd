package metrics

import (
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestEngineMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewEngineMetrics(reg)

	metrics.IncCheckout("cash_on_delivery")
	metrics.IncCheckout("cash_on_delivery")
	metrics.IncCheckout("gateway_card")
	metrics.IncReconcileApplied()
	metrics.IncReconcileDuplicate()
	metrics.IncReconcileDuplicate()
	metrics.IncWebhookRejected("signature")
	metrics.IncWebhookRejected("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "checkout_orders_total", "method", "cash_on_delivery"); err != nil {
		t.Fatalf("fetch checkout cash: %v", err)
	} else if got != 2 {
		t.Fatalf("expected cash checkouts=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "checkout_orders_total", "method", "gateway_card"); err != nil {
		t.Fatalf("fetch checkout card: %v", err)
	} else if got != 1 {
		t.Fatalf("expected card checkouts=1, got %f", got)
	}

	if got, err := fetchPlainCounter(mfs, "reconcile_applied_total"); err != nil {
		t.Fatalf("fetch applied: %v", err)
	} else if got != 1 {
		t.Fatalf("expected applied=1, got %f", got)
	}

	if got, err := fetchPlainCounter(mfs, "reconcile_duplicate_total"); err != nil {
		t.Fatalf("fetch duplicate: %v", err)
	} else if got != 2 {
		t.Fatalf("expected duplicate=2, got %f", got)
	}

	// Empty reason falls back to the "unknown" label.
	if got, err := fetchCounterValue(mfs, "webhook_rejected_total", "reason", "unknown"); err != nil {
		t.Fatalf("fetch rejected unknown: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejected unknown=1, got %f", got)
	}
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var metrics *EngineMetrics
	metrics.IncCheckout("cash_on_delivery")
	metrics.IncReconcileApplied()
	metrics.IncReconcileDuplicate()
	metrics.IncWebhookRejected("signature")

	unregistered := NewEngineMetrics(nil)
	unregistered.IncCheckout("cash_on_delivery")
	unregistered.IncReconcileApplied()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchPlainCounter(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	if len(mf.GetMetric()) == 0 {
		return 0, fmt.Errorf("metric %q has no samples", name)
	}
	return mf.GetMetric()[0].GetCounter().GetValue(), nil
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
