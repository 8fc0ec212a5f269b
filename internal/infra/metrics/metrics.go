// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(telegramRequestsTotal, telegramLatency)
}

var (
	telegramRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_requests_total",
			Help: "Bot API calls by method and outcome.",
		},
		[]string{"method", "success"},
	)

	telegramLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telegram_request_duration_seconds",
			Help:    "Bot API call latency.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 3, 5, 10},
		},
		[]string{"method"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ObserveTelegramCall records one Bot API request.
func ObserveTelegramCall(method string, took time.Duration, success bool) {
	telegramRequestsTotal.WithLabelValues(method, strconv.FormatBool(success)).Inc()
	telegramLatency.WithLabelValues(method).Observe(took.Seconds())
}
