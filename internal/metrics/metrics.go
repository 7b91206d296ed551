package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "enquiry_timeline"

// HTTPCollector exposes Prometheus metrics for inbound HTTP requests.
type HTTPCollector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

// NewHTTPCollector constructs a collector with default histograms/counters.
func NewHTTPCollector() (*HTTPCollector, error) {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency distribution for inbound HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of inbound HTTP requests.",
	}, []string{"method", "path", "status"})

	if err := registry.Register(requestDuration); err != nil {
		return nil, err
	}

	if err := registry.Register(requestTotal); err != nil {
		return nil, err
	}

	collector := &HTTPCollector{
		registry:        registry,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
	}

	return collector, nil
}

// Registry exposes the underlying registry so other collectors can share
// the same /metrics endpoint.
func (c *HTTPCollector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *HTTPCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler to record HTTP metrics.
func (c *HTTPCollector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.URL.Path

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// SyncCollector records source sync outcomes and session occupancy.
type SyncCollector struct {
	syncTotal      *prometheus.CounterVec
	syncDuration   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

// NewSyncCollector constructs a collector registered against the given
// registry (normally the HTTP collector's, so one /metrics serves both).
func NewSyncCollector(registry *prometheus.Registry) (*SyncCollector, error) {
	syncTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "requests_total",
		Help:      "Total number of source fetch attempts by outcome.",
	}, []string{"source", "status"})

	syncDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "sync",
		Name:      "duration_seconds",
		Help:      "Latency distribution for source fetches.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"source"})

	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of live per-enquiry timeline sessions.",
	})

	for _, collector := range []prometheus.Collector{syncTotal, syncDuration, activeSessions} {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}

	return &SyncCollector{
		syncTotal:      syncTotal,
		syncDuration:   syncDuration,
		activeSessions: activeSessions,
	}, nil
}

// ObserveSync records one fetch attempt.
func (c *SyncCollector) ObserveSync(source, status string, duration time.Duration) {
	c.syncTotal.WithLabelValues(source, status).Inc()
	c.syncDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// SetActiveSessions records current session occupancy.
func (c *SyncCollector) SetActiveSessions(n int) {
	c.activeSessions.Set(float64(n))
}
