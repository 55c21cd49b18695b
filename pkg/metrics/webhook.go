package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records payment webhook delivery outcomes and the latency of
// authoritative provider lookups.
type WebhookMetrics struct {
	deliveries    *prometheus.CounterVec
	providerFetch *prometheus.HistogramVec
}

// Delivery outcomes used as label values.
const (
	OutcomeApplied        = "applied"
	OutcomeReplayed       = "replayed"
	OutcomeRejected       = "rejected"
	OutcomeIgnored        = "ignored"
	OutcomeUpstreamFailed = "upstream_failed"
)

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_deliveries_total",
		Help: "Payment webhook deliveries by outcome.",
	}, []string{"outcome"})
	providerFetch := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_provider_fetch_seconds",
		Help:    "Duration of authoritative payment lookups.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
	reg.MustRegister(deliveries, providerFetch)
	return &WebhookMetrics{
		deliveries:    deliveries,
		providerFetch: providerFetch,
	}
}

// IncDelivery increments the delivery counter for the given outcome.
func (m *WebhookMetrics) IncDelivery(outcome string) {
	if m == nil || m.deliveries == nil {
		return
	}
	m.deliveries.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveProviderFetch records the duration of one provider lookup.
func (m *WebhookMetrics) ObserveProviderFetch(status string, duration time.Duration) {
	if m == nil || m.providerFetch == nil {
		return
	}
	m.providerFetch.WithLabelValues(normalizeLabel(status)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
