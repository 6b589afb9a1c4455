package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kjstillabower/weather-advisor-service/internal/circuitbreaker"
	"github.com/kjstillabower/weather-advisor-service/internal/traffic"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases, SLO breaches.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Upstream call rate by api (openweather, onecall, moenv, openai) and status.
	UpstreamCallsTotal *prometheus.CounterVec

	// Upstream latency. Watch for: p95 > 2s on openweather, p99 near the AI timeout.
	UpstreamDuration *prometheus.HistogramVec

	// Retry attempts. Only the forecast client retries.
	UpstreamRetriesTotal *prometheus.CounterVec

	// Upstream failures by category (see client.CategorizeError).
	UpstreamErrorsTotal *prometheus.CounterVec

	// Circuit breaker state per component: 0 closed, 1 open, 2 half-open.
	CircuitBreakerState *prometheus.GaugeVec

	// Cache hits by dataset (weather, aqi) and lookup (fresh, stale).
	CacheHitsTotal *prometheus.CounterVec

	// Cache backend failures by operation. Requests fall through to upstream.
	CacheErrorsTotal *prometheus.CounterVec

	// AI completions by topic and result (success, error).
	AICompletionsTotal *prometheus.CounterVec

	// Advisory reports by mode (gpt, fallback). A rising fallback share with AI configured means the provider is failing.
	AdvisoryReportsTotal *prometheus.CounterVec

	// Alerts emitted by kind (rule, official) and severity.
	AlertsEmittedTotal *prometheus.CounterVec

	// Lookups per city and endpoint.
	CityQueriesTotal *prometheus.CounterVec

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter

	rateLimitGaugesOnce sync.Once
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
			Help: "Total number of upstream API calls",
		},
		[]string{"api", "status"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstreamDurationSeconds",
			Help:    "Upstream API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"api", "status"},
	)
	UpstreamRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamRetriesTotal",
			Help: "Total number of retry attempts for upstream calls",
		},
		[]string{"api"},
	)
	UpstreamErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstreamErrorsTotal",
			Help: "Upstream failures by error category",
		},
		[]string{"api", "category"},
	)
	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuitBreakerState",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half_open)",
		},
		[]string{"component"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheHitsTotal",
			Help: "Total number of cache hits",
		},
		[]string{"dataset", "lookup"},
	)
	CacheErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheErrorsTotal",
			Help: "Cache backend errors by operation",
		},
		[]string{"operation"},
	)
	AICompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aiCompletionsTotal",
			Help: "AI completion calls by advisory topic and result",
		},
		[]string{"topic", "result"},
	)
	AdvisoryReportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisoryReportsTotal",
			Help: "Advisory reports produced, by mode",
		},
		[]string{"mode"},
	)
	AlertsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alertsEmittedTotal",
			Help: "Weather alerts returned to callers",
		},
		[]string{"kind", "severity"},
	)
	CityQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cityQueriesTotal",
			Help: "Lookups per city and endpoint",
		},
		[]string{"city", "endpoint"},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		UpstreamCallsTotal, UpstreamDuration, UpstreamRetriesTotal, UpstreamErrorsTotal,
		CircuitBreakerState,
		CacheHitsTotal, CacheErrorsTotal,
		AICompletionsTotal, AdvisoryReportsTotal, AlertsEmittedTotal,
		CityQueriesTotal,
		RateLimitDeniedTotal,
	)
}

// RegisterRateLimitGauges registers load and rejects gauges for the rate-limited path.
// Call from main after config load with the overload window.
func RegisterRateLimitGauges(window time.Duration) {
	rateLimitGaugesOnce.Do(func() {
		registry.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRequestsInWindow",
					Help: "Requests hitting rate-limited path in sliding window; load/capacity planning",
				},
				func() float64 { return float64(traffic.Requests().RequestCount(window)) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "rateLimitRejectsInWindow",
					Help: "429 responses in sliding window; are we rejecting requests",
				},
				func() float64 { return float64(traffic.Requests().DenialCount(window)) },
			),
		)
	})
}

// RecordCityQuery counts one lookup. city must come from the registry so labels stay bounded.
func RecordCityQuery(city, endpoint string) {
	CityQueriesTotal.WithLabelValues(city, endpoint).Inc()
}

// RecordCompletion counts one AI call outcome.
func RecordCompletion(topic string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	AICompletionsTotal.WithLabelValues(topic, result).Inc()
}

// BreakerStateChanged is a circuitbreaker.Config.OnStateChange hook that keeps the state gauge current.
func BreakerStateChanged(component string, _, to circuitbreaker.State) {
	CircuitBreakerState.WithLabelValues(component).Set(float64(to))
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
