// Package telemetry exposes service metrics in the Prometheus format.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akiliki/arruti-app-sub000/internal/application/orderstore"
)

// Config holds metrics configuration
type Config struct {
	// Namespace prefixes every metric name
	Namespace string

	// Buckets are the histogram buckets for durations, in seconds
	Buckets []float64

	// RuntimeCollectors adds the Go runtime and process collectors
	RuntimeCollectors bool
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Namespace:         "bakery",
		Buckets:           []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		RuntimeCollectors: true,
	}
}

// Metrics collects order store, gateway and HTTP metrics on a private registry.
// It implements orderstore.Metrics and gateway.RequestObserver.
type Metrics struct {
	registry *prometheus.Registry

	mutationsTotal     *prometheus.CounterVec
	mutationDuration   *prometheus.HistogramVec
	refreshTotal       *prometheus.CounterVec
	refreshDuration    prometheus.Histogram
	orders             prometheus.Gauge
	gatewayRequests    *prometheus.CounterVec
	gatewayDuration    *prometheus.HistogramVec
	streamClients      prometheus.Gauge
	httpRequests       *prometheus.CounterVec
	httpRequestLatency *prometheus.HistogramVec
}

var _ orderstore.Metrics = (*Metrics)(nil)

// NewMetrics creates and registers all metrics
func NewMetrics(cfg Config) *Metrics {
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = DefaultConfig().Buckets
	}
	ns := cfg.Namespace

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		mutationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "mutations_total",
			Help:      "Optimistic order mutations by kind and outcome.",
		}, []string{"kind", "outcome"}),
		mutationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "mutation_duration_seconds",
			Help:      "Time an optimistic mutation stayed unconfirmed.",
			Buckets:   cfg.Buckets,
		}, []string{"kind"}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "refresh_total",
			Help:      "Full reloads of the order collection by result.",
		}, []string{"result"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of full reloads of the order collection.",
			Buckets:   cfg.Buckets,
		}),
		orders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "orders",
			Help:      "Orders currently held by the store.",
		}),
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "gateway_requests_total",
			Help:      "Requests to the remote order service by action and outcome.",
		}, []string{"action", "outcome"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "gateway_request_duration_seconds",
			Help:      "Duration of requests to the remote order service.",
			Buckets:   cfg.Buckets,
		}, []string{"action"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "stream_clients",
			Help:      "Connected order stream clients.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "HTTP requests served by route and status.",
		}, []string{"method", "route", "status"}),
		httpRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.mutationsTotal, m.mutationDuration,
		m.refreshTotal, m.refreshDuration, m.orders,
		m.gatewayRequests, m.gatewayDuration,
		m.streamClients, m.httpRequests, m.httpRequestLatency,
	)
	if cfg.RuntimeCollectors {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveMutation implements orderstore.Metrics
func (m *Metrics) ObserveMutation(kind orderstore.MutationKind, outcome orderstore.Outcome, d time.Duration) {
	m.mutationsTotal.WithLabelValues(string(kind), string(outcome)).Inc()
	m.mutationDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

// ObserveRefresh implements orderstore.Metrics
func (m *Metrics) ObserveRefresh(err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.refreshTotal.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(d.Seconds())
}

// SetOrderCount implements orderstore.Metrics
func (m *Metrics) SetOrderCount(n int) {
	m.orders.Set(float64(n))
}

// ObserveGatewayRequest implements gateway.RequestObserver
func (m *Metrics) ObserveGatewayRequest(action, outcome string, d time.Duration) {
	m.gatewayRequests.WithLabelValues(action, outcome).Inc()
	m.gatewayDuration.WithLabelValues(action).Observe(d.Seconds())
}

// StreamOpened counts a connected stream client
func (m *Metrics) StreamOpened() {
	m.streamClients.Inc()
}

// StreamClosed counts a disconnected stream client
func (m *Metrics) StreamClosed() {
	m.streamClients.Dec()
}

// GinMiddleware records request counts and latency by matched route
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
