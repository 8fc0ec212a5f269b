package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(deliveriesProcessedTotal, deliveriesClaimedTotal, deliveriesEnqueuedTotal, deliveryTickDuration)
}

var (
	deliveriesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deliveries_processed_total",
			Help: "Queued deliveries that reached a terminal state, labeled by status.",
		},
		[]string{"status"}, // 'sent', 'failed', 'lost', 'released'
	)

	deliveriesClaimedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "delivery_claimed_total",
			Help: "Queued deliveries claimed by worker ticks.",
		},
	)

	deliveriesEnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "deliveries_enqueued_total",
			Help: "Queued deliveries created by /start events.",
		},
	)

	deliveryTickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "delivery_tick_duration_seconds",
			Help:    "Wall time of one delivery worker tick.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

// ObserveDeliveryTick records one tick. Released rows went back to the queue unsent.
func ObserveDeliveryTick(claimed, sent, failed, lost, released int, took time.Duration) {
	deliveriesClaimedTotal.Add(float64(claimed))
	deliveriesProcessedTotal.WithLabelValues("sent").Add(float64(sent))
	deliveriesProcessedTotal.WithLabelValues("failed").Add(float64(failed))
	if lost > 0 {
		deliveriesProcessedTotal.WithLabelValues("lost").Add(float64(lost))
	}
	if released > 0 {
		deliveriesProcessedTotal.WithLabelValues("released").Add(float64(released))
	}
	deliveryTickDuration.Observe(took.Seconds())
}

func AddDeliveriesEnqueued(n int) {
	deliveriesEnqueuedTotal.Add(float64(n))
}
