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

	// ERDDAP call rate per endpoint (tabledap, info, search). Watch for: error vs success ratio.
	ErddapRequestsTotal *prometheus.CounterVec

	// ERDDAP latency per endpoint. Watch for: p95 > 2s (upstream degradation).
	ErddapRequestDuration *prometheus.HistogramVec

	// Catalog refreshes by result. Watch for: repeated failures = stale dataset list.
	CatalogRefreshesTotal *prometheus.CounterVec

	// Datasets in the catalog after the last successful refresh.
	CatalogDatasets prometheus.Gauge

	// Coverage assembly latency. Table-size dependent; watch the tail.
	CoverageAssemblyDuration prometheus.Histogram

	// Response-cache hits. Hit rate = hits/(hits + tabledap calls).
	CoverageCacheHitsTotal prometheus.Counter

	// Cache backend errors by operation (get, set). Watch for: memcached connectivity.
	CacheErrorsTotal *prometheus.CounterVec

	// Variables whose sdn_parameter_urn could not be rewritten into a vocabulary URI.
	VocabResolutionErrorsTotal prometheus.Counter

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
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
	ErddapRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "erddapRequestsTotal",
			Help: "Total number of ERDDAP upstream calls",
		},
		[]string{"endpoint", "status"},
	)
	ErddapRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "erddapRequestDurationSeconds",
			Help:    "ERDDAP upstream latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)
	CatalogRefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogRefreshesTotal",
			Help: "Total number of dataset catalog refresh attempts",
		},
		[]string{"result"},
	)
	CatalogDatasets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalogDatasets",
			Help: "Datasets in the catalog after the last successful refresh",
		},
	)
	CoverageAssemblyDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coverageAssemblyDurationSeconds",
			Help:    "Time spent assembling CoverageJSON documents",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)
	CoverageCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coverageCacheHitsTotal",
			Help: "Coverage responses served from cache",
		},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache backend errors by operation",
		},
		[]string{"operation"},
	)
	VocabResolutionErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vocabResolutionErrorsTotal",
			Help: "Variables whose vocabulary code could not be resolved to a URI",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		ErddapRequestsTotal, ErddapRequestDuration,
		CatalogRefreshesTotal, CatalogDatasets,
		CoverageAssemblyDuration, CoverageCacheHitsTotal, CacheErrorsTotal,
		VocabResolutionErrorsTotal,
		RateLimitDeniedTotal,
	)
}

// StatusLabel buckets an upstream HTTP status into a stable metric label.
func StatusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == 429:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
