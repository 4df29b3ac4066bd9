package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// OpenWeather API call rate per operation (geocode, current, forecast).
	// Watch for: error vs success ratio.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream latency per call. Watch for: p95 > 2s (upstream degradation).
	UpstreamCallDuration *prometheus.HistogramVec

	// Per-IP quota rejections. Watch for: abusive clients, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	// Comparison batch sizes (1..5). Watch for: typical fan-out width.
	CompareBatchSize prometheus.Histogram

	// Comparison legs that resolved to an error entry. Watch for: upstream
	// flakiness surfacing as partial results.
	ComparePartialFailuresTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	UpstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamCallsTotal",
			Help: "Total number of OpenWeather API calls",
		},
		[]string{"operation", "status"},
	)
	UpstreamCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamCallDurationSeconds",
			Help:    "OpenWeather API latency in seconds (per call)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "status"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by the per-IP rate limiter (429)",
		},
	)
	CompareBatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compareBatchSize",
			Help:    "Number of cities per comparison request",
			Buckets: []float64{1, 2, 3, 4, 5},
		},
	)
	ComparePartialFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "comparePartialFailuresTotal",
			Help: "Comparison legs that resolved to a per-city error entry",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamCallDuration,
		RateLimitDeniedTotal,
		CompareBatchSize, ComparePartialFailuresTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
