package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// recovery analysis service.
type Metrics struct {
	EventsProcessed prometheus.Counter
	ProcessFailures prometheus.Counter
	InvalidInputs   prometheus.Counter

	ProcessingDuration prometheus.Histogram

	// Result cache metrics.
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Publishing metrics.
	ResultsPublished prometheus.Counter
	PublishErrors    prometheus.Counter

	// Store metrics.
	StoreOpDuration *prometheus.HistogramVec // labels: op={insert,get,list}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		EventsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_recovery",
			Name:      "events_processed_total",
			Help:      "Total flood events fully analyzed.",
		}),
		ProcessFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_recovery",
			Name:      "process_failures_total",
			Help:      "Total analysis runs that ended in an internal error.",
		}),
		InvalidInputs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_recovery",
			Name:      "invalid_inputs_total",
			Help:      "Total requests rejected for invalid parameters.",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "flood_recovery",
			Name:      "processing_duration_seconds",
			Help:      "Duration of a complete simulate-analyze-store cycle.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_recovery",
			Name:      "result_cache_hits_total",
			Help:      "Total seeded requests answered from the result cache.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_recovery",
			Name:      "result_cache_misses_total",
			Help:      "Total seeded requests that missed the result cache.",
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_recovery",
			Name:      "results_published_total",
			Help:      "Total results written to the results topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flood_recovery",
			Name:      "publish_errors_total",
			Help:      "Total failures publishing results.",
		}),
		StoreOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "flood_recovery",
			Name:      "store_op_duration_seconds",
			Help:      "Event store operation duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
	}

	prometheus.MustRegister(
		m.EventsProcessed,
		m.ProcessFailures,
		m.InvalidInputs,
		m.ProcessingDuration,
		m.CacheHits,
		m.CacheMisses,
		m.ResultsPublished,
		m.PublishErrors,
		m.StoreOpDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		EventsProcessed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_recovery", Name: "events_processed_total"}),
		ProcessFailures:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_recovery", Name: "process_failures_total"}),
		InvalidInputs:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_recovery", Name: "invalid_inputs_total"}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "flood_recovery", Name: "processing_duration_seconds"}),
		CacheHits:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_recovery", Name: "result_cache_hits_total"}),
		CacheMisses:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_recovery", Name: "result_cache_misses_total"}),
		ResultsPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_recovery", Name: "results_published_total"}),
		PublishErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "flood_recovery", Name: "publish_errors_total"}),
		StoreOpDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "flood_recovery", Name: "store_op_duration_seconds"}, []string{"op"}),
	}
}
