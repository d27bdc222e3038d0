// Package metrics is the process-wide metrics sink: health gauges written by
// the prober, the comment counter, and HTTP request instrumentation, exposed
// for pull-based scraping.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names scraped by the external monitoring stack.
const (
	CommentHealth         = "comment_health"
	CommentDBAvailability = "comment_health_mongo_availability"
	CommentCount          = "comment_count"
)

// HealthLabels are the label names carried by the health gauges.
var HealthLabels = []string{"version", "commit_hash", "branch"}

// Sink owns a dedicated Prometheus registry. All methods are safe for
// concurrent use; scrapes observe either the previous or the new value of a
// gauge, never a partial write.
type Sink struct {
	registry *prometheus.Registry

	// fixed at construction; read-only afterwards
	gauges   map[string]*prometheus.GaugeVec
	counters map[string]prometheus.Counter

	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
}

// NewSink registers the service collectors on a fresh registry.
func NewSink() (*Sink, error) {
	s := &Sink{
		registry: prometheus.NewRegistry(),
		gauges:   make(map[string]*prometheus.GaugeVec),
		counters: make(map[string]prometheus.Counter),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		),
		httpRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
	}

	s.gauges[CommentHealth] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: CommentHealth,
		Help: "Health status of Comment service",
	}, HealthLabels)
	s.gauges[CommentDBAvailability] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: CommentDBAvailability,
		Help: "Check if the comment database is available to Comment",
	}, HealthLabels)
	s.counters[CommentCount] = prometheus.NewCounter(prometheus.CounterOpts{
		Name: CommentCount,
		Help: "A counter of new comments",
	})

	toRegister := []prometheus.Collector{
		s.gauges[CommentHealth],
		s.gauges[CommentDBAvailability],
		s.counters[CommentCount],
		s.httpRequestsTotal,
		s.httpRequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range toRegister {
		if err := s.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register collector: %w", err)
		}
	}
	return s, nil
}

// Registry returns the underlying registry.
func (s *Sink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler exposes the registry for scraping.
func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

// SetGauge overwrites the named gauge for the given label set.
func (s *Sink) SetGauge(name string, labels map[string]string, value float64) error {
	vec, ok := s.gauges[name]
	if !ok {
		return fmt.Errorf("unknown gauge %q", name)
	}
	g, err := vec.GetMetricWith(labels)
	if err != nil {
		return fmt.Errorf("gauge %s labels: %w", name, err)
	}
	g.Set(value)
	return nil
}

// IncCounter adds one to the named counter.
func (s *Sink) IncCounter(name string) error {
	c, ok := s.counters[name]
	if !ok {
		return fmt.Errorf("unknown counter %q", name)
	}
	c.Inc()
	return nil
}

// IncComments records one successful comment creation.
func (s *Sink) IncComments() {
	s.counters[CommentCount].Inc()
}

// RecordHealth writes one probe result into both health gauges.
func (s *Sink) RecordHealth(status, commentDB int, labels map[string]string) error {
	if err := s.SetGauge(CommentHealth, labels, float64(status)); err != nil {
		return err
	}
	return s.SetGauge(CommentDBAvailability, labels, float64(commentDB))
}

// ObserveHTTPRequest increments the HTTP request metrics.
func (s *Sink) ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	s.httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	s.httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
