package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gobank"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Payment metrics
	PaymentsCompleted prometheus.Counter
	PaymentsFailed    *prometheus.CounterVec
	TransferDuration  prometheus.Histogram
	TransferAmount    prometheus.Histogram
	TransferRetries   prometheus.Counter

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsClosed  prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Redis-backed features
	CacheLookups       *prometheus.CounterVec
	IdempotencyReplays prometheus.Counter

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter
}

// New creates all metrics and registers them with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		PaymentsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_completed_total",
			Help:      "Total number of completed payments",
		}),
		PaymentsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_failed_total",
				Help:      "Total number of rejected payments by error kind",
			},
			[]string{"kind"},
		),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_duration_seconds",
			Help:      "Duration of transfer operations",
			Buckets:   prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_amount",
			Help:      "Transfer amounts",
			Buckets:   []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		TransferRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_retries_total",
			Help:      "Transfers retried after a deadlock or serialization failure",
		}),

		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_created_total",
			Help:      "Total number of accounts created",
		}),
		AccountsClosed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_closed_total",
			Help:      "Total number of accounts closed",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "User cache lookups by result",
			},
			[]string{"result"},
		),
		IdempotencyReplays: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "idempotency_replays_total",
			Help:      "Responses served from the idempotency store",
		}),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total rate limited requests",
		}),

		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Outbox events published",
		}),
		OutboxErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_errors_total",
			Help:      "Outbox events that failed to publish",
		}),
	}
}
