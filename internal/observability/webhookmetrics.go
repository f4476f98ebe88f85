package observability

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WebhookMetrics counts webhook deliveries by GitHub event type and the
// outcome reported to the sender.
type WebhookMetrics struct {
	deliveries *prometheus.CounterVec
}

func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	return &WebhookMetrics{
		deliveries: promauto.With(registererOrDefault(reg)).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "deliveries_total",
			Help:      "Webhook deliveries by event type and outcome.",
		}, []string{"event", "outcome"}),
	}
}

func (m *WebhookMetrics) ObserveDelivery(eventType, outcome string) {
	m.deliveries.WithLabelValues(eventLabel(eventType), outcome).Inc()
}

// eventLabel bounds the event label: the header is recorded before the
// signature is checked, so any client controls its value.
func eventLabel(eventType string) string {
	switch e := strings.ToLower(strings.TrimSpace(eventType)); e {
	case "ping", "push", "pull_request":
		return e
	case "":
		return "unknown"
	default:
		return "other"
	}
}
