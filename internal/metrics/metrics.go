// Package metrics exposes Prometheus collectors for the verification service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	jobsTotal          *prometheus.CounterVec
	claimsAnalyzed     prometheus.Counter
	extractionAttempts *prometheus.CounterVec
	searchQueriesTotal *prometheus.CounterVec
	pipelineEvents     *prometheus.CounterVec
	activeWorkers      prometheus.Gauge
	queueDepth         prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
// Observe helpers are no-ops until Init runs; telemetry is best-effort and
// must never panic into pipeline logic.
func Init() {
	once.Do(func() {
		jobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veritas_jobs_total",
				Help: "Total number of verification jobs processed, labeled by terminal status.",
			},
			[]string{"status"},
		)

		claimsAnalyzed = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "veritas_claims_analyzed_total",
				Help: "Total number of claims run through the linguistic analyzer.",
			},
		)

		extractionAttempts = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veritas_extraction_attempts_total",
				Help: "Total content extraction attempts, labeled by method and outcome.",
			},
			[]string{"method", "outcome"},
		)

		searchQueriesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veritas_search_queries_total",
				Help: "Total external search queries, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		pipelineEvents = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "veritas_pipeline_events_total",
				Help: "Progress events observed by the telemetry sink, labeled by source and type.",
			},
			[]string{"source", "type"},
		)

		activeWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "veritas_active_workers",
				Help: "Number of workers currently processing a job.",
			},
		)

		queueDepth = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "veritas_queue_depth",
				Help: "Number of jobs waiting in the submission queue.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveJob increments the terminal-job counter for the given status.
func ObserveJob(status string) {
	if jobsTotal == nil {
		return
	}
	jobsTotal.WithLabelValues(status).Inc()
}

// ObserveClaimAnalyzed increments the analyzed-claims counter.
func ObserveClaimAnalyzed() {
	if claimsAnalyzed == nil {
		return
	}
	claimsAnalyzed.Inc()
}

// ObserveExtraction records one extraction attempt.
func ObserveExtraction(method, outcome string) {
	if extractionAttempts == nil {
		return
	}
	if method == "" {
		method = "none"
	}
	extractionAttempts.WithLabelValues(method, outcome).Inc()
}

// ObserveSearch records one search query by outcome.
func ObserveSearch(outcome string) {
	if searchQueriesTotal == nil {
		return
	}
	searchQueriesTotal.WithLabelValues(outcome).Inc()
}

// ObservePipelineEvent counts a progress event by source and type.
func ObservePipelineEvent(source, eventType string) {
	if pipelineEvents == nil {
		return
	}
	pipelineEvents.WithLabelValues(source, eventType).Inc()
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	if activeWorkers == nil {
		return
	}
	activeWorkers.Dec()
}

// SetQueueDepth records the current submission queue depth.
func SetQueueDepth(depth int) {
	if queueDepth == nil {
		return
	}
	queueDepth.Set(float64(depth))
}
