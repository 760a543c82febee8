package infrastructure

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the service. Registered on the default registry;
// /metrics exposes them via promhttp.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfqpulse_http_requests_total",
		Help: "HTTP requests by method, route and status class.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rfqpulse_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	RFQsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfqpulse_rfqs_imported_total",
		Help: "Workbooks successfully imported into the store.",
	})

	ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfqpulse_parse_failures_total",
		Help: "Workbook parses that failed layout detection or extraction.",
	})
)
