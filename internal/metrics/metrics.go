package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Payment callbacks by gateway status
	PaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Gateway callbacks processed, by reported status",
		},
		[]string{"status"}, // PENDING|COMPLETE|FULL_REFUND|CANCELED|UNKNOWN
	)
	PaymentRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_rejections_total",
			Help: "Rejected payment callbacks, by reason",
		},
		[]string{"reason"}, // invalid_payload|unauthorized|not_found|invalid_signature|unknown_status|internal
	)
	OrdersCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders persisted from verified COMPLETE callbacks",
		},
	)

	// Audit worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// handler for the /metrics endpoint
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(PaymentsTotal)
	prometheus.MustRegister(PaymentRejections)
	prometheus.MustRegister(OrdersCreated)
	prometheus.MustRegister(WorkerQueueDepth)
}
