package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sari_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sari_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// UtangPaymentsTotal counts payment requests by outcome:
	// ok, invalid_amount, overpayment, unknown_customer, error
	UtangPaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sari_utang_payments_total",
			Help: "Utang payment requests by outcome",
		},
		[]string{"outcome"},
	)

	UtangAllocationsPerPayment = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sari_utang_allocations_per_payment",
			Help:    "Number of credit records touched by one payment",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
	)

	SalesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sari_sales_total",
			Help: "Completed checkouts by payment method",
		},
		[]string{"method"},
	)

	LedgerCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sari_ledger_cache_total",
			Help: "Consolidated ledger cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)

	RealtimeClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sari_realtime_clients",
			Help: "Connected websocket clients",
		},
	)
)
