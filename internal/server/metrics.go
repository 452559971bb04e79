package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/resume-tools/internal/pipeline/steps"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rejected        *prometheus.CounterVec
	runs            *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	runsActive      prometheus.Gauge
}

// NewMetrics registers the collectors on a new registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_tools_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"route", "code"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resume_tools_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 30, 60, 120},
			},
			[]string{"route"},
		),
		rejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_tools_http_rejected_total",
				Help: "Requests rejected before reaching the pipeline",
			},
			[]string{"reason"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resume_tools_pipeline_runs_total",
				Help: "Total number of pipeline runs by operation and result",
			},
			[]string{"operation", "result"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resume_tools_pipeline_run_duration_seconds",
				Help:    "Duration of pipeline runs in seconds",
				Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"operation"},
		),
		runsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "resume_tools_pipeline_runs_active",
				Help: "Number of pipeline runs in progress",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// observeRun records one finished pipeline run.
func (m *Metrics) observeRun(op steps.Operation, elapsed time.Duration, err error) {
	result := "success"
	if err != nil {
		_, body := classify(err)
		result = body.Code
	}
	m.runs.WithLabelValues(string(op), result).Inc()
	m.runDuration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}
