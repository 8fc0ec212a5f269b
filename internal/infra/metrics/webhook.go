package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(webhookUpdatesTotal, echoRateLimitedTotal)
}

var (
	webhookUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_updates_total",
			Help: "Inbound Telegram updates by outcome (start, text, dropped reason).",
		},
		[]string{"outcome"},
	)

	echoRateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Echo replies suppressed by the per-user rate limit.",
		},
	)
)

func IncWebhookUpdate(outcome string) {
	webhookUpdatesTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncRateLimitTriggered() {
	echoRateLimitedTotal.Inc()
}
