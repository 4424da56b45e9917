// Package metrics declares the Prometheus collectors shared by the HTTP
// surface and the data-source layer. Collectors are registered on the
// default registry via promauto and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts served HTTP requests by method, route
	// pattern, and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainlens_http_requests_total",
		Help: "Total HTTP requests served.",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chainlens_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// HTTPRequestsInFlight gauges requests currently being served.
	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chainlens_http_requests_in_flight",
		Help: "HTTP requests currently in flight.",
	})

	// UpstreamRequestsTotal counts outbound data-source calls by chain,
	// tier (api or rpc), operation, and outcome (ok, error, not_found).
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chainlens_upstream_requests_total",
		Help: "Total upstream data-source calls.",
	}, []string{"chain", "tier", "operation", "outcome"})
)
