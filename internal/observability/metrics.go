package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the HTTP surface and model calls.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	modelCalls      *prometheus.CounterVec
	modelDuration   prometheus.Histogram
	modelInFlight   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
}

// NewMetrics initialises the registry and collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finsight_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "finsight_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	modelCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finsight_model_calls_total",
		Help: "Outbound model calls by outcome.",
	}, []string{"outcome"})
	modelDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "finsight_model_call_duration_seconds",
		Help:    "Duration of outbound model calls.",
		Buckets: []float64{0.5, 1, 2, 4, 8, 15, 30, 60},
	})
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "finsight_model_calls_in_flight",
		Help: "Model calls currently awaiting a response.",
	})
	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "finsight_insights_cache_total",
		Help: "Insights cache lookups by result.",
	}, []string{"result"})
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requests, duration, modelCalls, modelDuration, inFlight, cacheLookups,
	)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		modelCalls:      modelCalls,
		modelDuration:   modelDuration,
		modelInFlight:   inFlight,
		cacheLookups:    cacheLookups,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records request count and duration per route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ModelCallStarted marks a model call as in flight.
func (m *Metrics) ModelCallStarted() {
	if m == nil {
		return
	}
	m.modelInFlight.Inc()
}

// ModelCallFinished records the outcome and duration of a model call.
func (m *Metrics) ModelCallFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.modelInFlight.Dec()
	m.modelCalls.WithLabelValues(outcome).Inc()
	m.modelDuration.Observe(elapsed.Seconds())
}

// CacheLookup counts an insights cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
