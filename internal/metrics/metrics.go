// Package metrics provides Prometheus metrics for the rfmboard HTTP server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rfmboard",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint, method and status code.",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rfmboard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	viewComputations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rfmboard",
			Name:      "view_computations_total",
			Help:      "Derived-view recomputations performed.",
		},
	)

	tableRows = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rfmboard",
			Name:      "table_rows",
			Help:      "Rows in the loaded customer table.",
		},
	)
)

func init() {
	registry.MustRegister(
		httpRequests,
		httpDuration,
		viewComputations,
		tableRows,
		collectors.NewGoCollector(),
	)
}

// RecordHTTPRequest counts one completed request.
func RecordHTTPRequest(endpoint, method, status string) {
	httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

// RecordHTTPDuration observes one request's latency in seconds.
func RecordHTTPDuration(endpoint string, seconds float64) {
	httpDuration.WithLabelValues(endpoint).Observe(seconds)
}

// RecordViewComputation counts one derived-view recomputation.
func RecordViewComputation() {
	viewComputations.Inc()
}

// SetTableRows records the size of the loaded table.
func SetTableRows(n int) {
	tableRows.Set(float64(n))
}

// Handler serves the registry in Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
