package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// search service.
type Metrics struct {
	SearchesStarted   prometheus.Counter
	SearchesCompleted prometheus.Counter
	SearchesFailed    *prometheus.CounterVec // label: reason={city_not_found,invalid_range,upstream,integrity,internal}

	// Range-cache metrics.
	ReconcileGaps  prometheus.Histogram
	EntriesStored  prometheus.Counter
	StoreConflicts prometheus.Counter
	EntryCache     *prometheus.CounterVec // label: result={hit,miss}

	// Upstream catalog metrics.
	UpstreamRequests *prometheus.CounterVec // label: outcome={success,error}
	UpstreamDuration prometheus.Histogram

	// Job runner metrics.
	JobsSubmitted prometheus.Counter
	JobsRunning   prometheus.Gauge
	JobDuration   prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SearchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakesvc",
			Name:      "searches_started_total",
			Help:      "Total search runs started.",
		}),
		SearchesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakesvc",
			Name:      "searches_completed_total",
			Help:      "Total search runs that produced a combined result.",
		}),
		SearchesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakesvc",
			Name:      "searches_failed_total",
			Help:      "Failed search runs by reason.",
		}, []string{"reason"}),
		ReconcileGaps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakesvc",
			Name:      "reconcile_gaps",
			Help:      "Number of uncached gaps per reconciled request.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		}),
		EntriesStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakesvc",
			Name:      "cache_entries_stored_total",
			Help:      "Total cache entries written.",
		}),
		StoreConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakesvc",
			Name:      "cache_store_conflicts_total",
			Help:      "Inserts rejected because the range was already covered (racing writers).",
		}),
		EntryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakesvc",
			Name:      "entry_cache_total",
			Help:      "Read-through entry cache lookups by result.",
		}, []string{"result"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakesvc",
			Name:      "upstream_requests_total",
			Help:      "USGS catalog requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakesvc",
			Name:      "upstream_request_duration_seconds",
			Help:      "USGS catalog request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		JobsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "quakesvc",
			Name:      "jobs_submitted_total",
			Help:      "Total search jobs accepted.",
		}),
		JobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quakesvc",
			Name:      "jobs_running",
			Help:      "Search jobs currently executing.",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quakesvc",
			Name:      "job_duration_seconds",
			Help:      "Duration of a search job from dequeue to completion.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	prometheus.MustRegister(
		m.SearchesStarted,
		m.SearchesCompleted,
		m.SearchesFailed,
		m.ReconcileGaps,
		m.EntriesStored,
		m.StoreConflicts,
		m.EntryCache,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.JobsSubmitted,
		m.JobsRunning,
		m.JobDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics backed by unregistered collectors to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SearchesStarted:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakesvc", Name: "searches_started_total"}),
		SearchesCompleted: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakesvc", Name: "searches_completed_total"}),
		SearchesFailed:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quakesvc", Name: "searches_failed_total"}, []string{"reason"}),
		ReconcileGaps:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quakesvc", Name: "reconcile_gaps"}),
		EntriesStored:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakesvc", Name: "cache_entries_stored_total"}),
		StoreConflicts:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakesvc", Name: "cache_store_conflicts_total"}),
		EntryCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quakesvc", Name: "entry_cache_total"}, []string{"result"}),
		UpstreamRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "quakesvc", Name: "upstream_requests_total"}, []string{"outcome"}),
		UpstreamDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quakesvc", Name: "upstream_request_duration_seconds"}),
		JobsSubmitted:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quakesvc", Name: "jobs_submitted_total"}),
		JobsRunning:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "quakesvc", Name: "jobs_running"}),
		JobDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "quakesvc", Name: "job_duration_seconds"}),
	}
}
