package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outcomes of an approved payment notification.
const (
	ApprovalHandled   = "handled"
	ApprovalDuplicate = "duplicate"
	ApprovalBusy      = "busy"
)

func init() { register(paymentWebhooks, paymentApprovals, paymentRevenue) }

var (
	paymentWebhooks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_webhooks_total",
			Help: "Payment notifications stored, by provider status.",
		},
		[]string{"status"},
	)

	paymentApprovals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_approvals_total",
			Help: "Approved notifications by how they were handled.",
		},
		[]string{"outcome"},
	)

	paymentRevenue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_revenue_total",
			Help: "Plan price of handled approvals, by currency.",
		},
		[]string{"currency"},
	)
)

func ObservePaymentWebhook(status string) {
	paymentWebhooks.WithLabelValues(norm(status)).Inc()
}

func ObserveApproval(outcome string) {
	paymentApprovals.WithLabelValues(outcome).Inc()
}

// AddRevenue ignores non-positive amounts; the counter only grows.
func AddRevenue(currency string, amount float64) {
	if amount <= 0 {
		return
	}
	paymentRevenue.WithLabelValues(norm(currency)).Add(amount)
}
