// Package metrics exposes Prometheus instrumentation for the
// discovery pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters updated during relationship discovery.
type Metrics struct {
	ClassifierCalls     prometheus.Counter // Batches sent to the classifier
	ClassifierErrors    prometheus.Counter // Batches that failed after all retries
	CacheHits           prometheus.Counter // Candidate pairs skipped via fresh cache entries
	CacheMisses         prometheus.Counter // Candidate pairs sent on for classification
	Relationships       prometheus.Counter // Relationships accepted into the graph
	EventsProcessed     prometheus.Counter // Source events run through discovery
	PendingEdgesParked  prometheus.Gauge   // Edges waiting for an unknown endpoint
	CandidatesPerSource prometheus.Histogram
}

// New creates and registers the discovery metrics. The registerer is
// a parameter so tests can use an isolated registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ClassifierCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsgraph_classifier_calls_total",
			Help: "Total classifier batch requests issued",
		}),
		ClassifierErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsgraph_classifier_errors_total",
			Help: "Total classifier batches that failed after retries",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsgraph_relcache_hits_total",
			Help: "Candidate pairs answered by a fresh cache entry",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsgraph_relcache_misses_total",
			Help: "Candidate pairs that required classification",
		}),
		Relationships: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsgraph_relationships_total",
			Help: "Relationships accepted into the causation graph",
		}),
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "newsgraph_events_processed_total",
			Help: "Source events run through relationship discovery",
		}),
		PendingEdgesParked: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "newsgraph_pending_edges",
			Help: "Relationships parked waiting for an unknown endpoint event",
		}),
		CandidatesPerSource: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsgraph_candidates_per_source",
			Help:    "Candidate count selected per source event",
			Buckets: prometheus.LinearBuckets(0, 3, 8),
		}),
	}

	reg.MustRegister(
		m.ClassifierCalls,
		m.ClassifierErrors,
		m.CacheHits,
		m.CacheMisses,
		m.Relationships,
		m.EventsProcessed,
		m.PendingEdgesParked,
		m.CandidatesPerSource,
	)
	return m
}
