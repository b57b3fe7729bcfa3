package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(webhookDeliveriesTotal) }

var webhookDeliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "migration_webhook_deliveries_total",
		Help: "Webhook delivery attempts by HTTP status class ('2xx', '4xx', '5xx', 'error').",
	},
	[]string{"class"},
)

func IncWebhookDelivery(class string) {
	webhookDeliveriesTotal.WithLabelValues(norm(class)).Inc()
}
