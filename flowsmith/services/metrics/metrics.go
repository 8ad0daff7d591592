// Package metrics holds the Prometheus collectors for the workflow pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flowsmith"

// Flow labels.
const (
	FlowChat     = "chat"
	FlowGenerate = "generate"
)

// Collector owns a private registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	GenerationRequests *prometheus.CounterVec
	Extractions        *prometheus.CounterVec
	ModelCallDuration  *prometheus.HistogramVec
	HTTPRequests       *prometheus.CounterVec
}

// NewCollector creates and registers every metric.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		GenerationRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generation_requests_total",
				Help:      "Chat and generate requests by outcome",
			},
			[]string{"flow", "outcome"},
		),
		Extractions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_total",
				Help:      "Workflow extraction attempts by result",
			},
			[]string{"flow", "result"},
		),
		ModelCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Latency of calls to the generation provider",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"provider"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method and status",
			},
			[]string{"method", "status"},
		),
	}
	c.registry.MustRegister(
		c.GenerationRequests,
		c.Extractions,
		c.ModelCallDuration,
		c.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveRequest counts one chat or generate request.
func (c *Collector) ObserveRequest(flow, outcome string) {
	if c == nil {
		return
	}
	c.GenerationRequests.WithLabelValues(flow, outcome).Inc()
}

// ObserveExtraction counts one extractor run.
func (c *Collector) ObserveExtraction(flow string, found bool) {
	if c == nil {
		return
	}
	result := "miss"
	if found {
		result = "hit"
	}
	c.Extractions.WithLabelValues(flow, result).Inc()
}

// ObserveModelCall records provider latency.
func (c *Collector) ObserveModelCall(provider string, d time.Duration) {
	if c == nil {
		return
	}
	c.ModelCallDuration.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveHTTP counts one served HTTP request.
func (c *Collector) ObserveHTTP(method string, status int) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
