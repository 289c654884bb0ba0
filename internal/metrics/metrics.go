// Package metrics exposes pipeline observability as Prometheus metrics:
// job and phase counters, latency histograms, and an in-flight gauge,
// served on the native /metrics endpoint.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scriven-ai/scriven/internal/jobs"
)

// Collector implements the pipeline observer over a private registry so
// tests can run collectors side by side without global registration
// conflicts.
type Collector struct {
	registry *prometheus.Registry

	jobsStarted   prometheus.Counter
	jobsFinished  *prometheus.CounterVec
	jobsInFlight  prometheus.Gauge
	jobDuration   prometheus.Histogram
	phases        *prometheus.CounterVec
	phaseDuration *prometheus.HistogramVec
}

// NewCollector creates and registers the pipeline metric set.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scriven_jobs_started_total",
			Help: "Total number of analysis jobs started",
		}),
		jobsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scriven_jobs_finished_total",
			Help: "Total number of analysis jobs finished, by terminal status",
		}, []string{"status"}),
		jobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "scriven_jobs_in_flight",
			Help: "Current number of running analysis jobs",
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scriven_job_duration_seconds",
			Help:    "End-to-end analysis job duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scriven_phases_total",
			Help: "Total number of phase executions, by kind and outcome",
		}, []string{"kind", "status"}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scriven_phase_duration_seconds",
			Help:    "Single phase duration in seconds, by kind",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}, []string{"kind"}),
	}

	c.registry.MustRegister(
		c.jobsStarted,
		c.jobsFinished,
		c.jobsInFlight,
		c.jobDuration,
		c.phases,
		c.phaseDuration,
	)

	return c
}

// Handler returns the scrape endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// JobStarted records a job entering the pipeline.
func (c *Collector) JobStarted() {
	c.jobsStarted.Inc()
	c.jobsInFlight.Inc()
}

// JobFinished records a job reaching a terminal status.
func (c *Collector) JobFinished(status jobs.Status, duration time.Duration) {
	c.jobsInFlight.Dec()
	c.jobsFinished.WithLabelValues(string(status)).Inc()
	c.jobDuration.Observe(duration.Seconds())
}

// PhaseObserved records one phase execution outcome.
func (c *Collector) PhaseObserved(kind jobs.PhaseKind, status jobs.Status, duration time.Duration) {
	c.phases.WithLabelValues(string(kind), string(status)).Inc()
	c.phaseDuration.WithLabelValues(string(kind)).Observe(duration.Seconds())
}
