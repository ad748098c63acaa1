package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LookupMetrics tracks classification lookups against the small-body database.
type LookupMetrics struct {
	requestsTotal   *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	requestDuration prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewLookupMetrics creates and registers lookup metrics.
func NewLookupMetrics(registry prometheus.Registerer) (*LookupMetrics, error) {
	m := &LookupMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_lookup_requests_total",
			Help: "Classification lookups by outcome.",
		}, []string{"status"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_lookup_errors_total",
			Help: "Classification lookup failures by error type.",
		}, []string{"error_type"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalog_lookup_duration_seconds",
			Help:    "Duration of remote classification requests.",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_lookup_cache_hits_total",
			Help: "Classification lookups answered from cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_lookup_cache_misses_total",
			Help: "Classification lookups that required a remote request.",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation implements Recorder. Cache outcomes go to the cache counters.
func (m *LookupMetrics) RecordOperation(_, status string) {
	switch status {
	case StatusHit:
		m.cacheHits.Inc()
	case StatusMiss:
		m.cacheMisses.Inc()
	default:
		m.requestsTotal.WithLabelValues(status).Inc()
	}
}

// RecordDuration implements Recorder.
func (m *LookupMetrics) RecordDuration(_ string, seconds float64) {
	m.requestDuration.Observe(seconds)
}

// RecordError implements Recorder.
func (m *LookupMetrics) RecordError(_, errorType string) {
	m.errorsTotal.WithLabelValues(errorType).Inc()
}

// Describe implements prometheus.Collector.
func (m *LookupMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	ch <- m.requestDuration.Desc()
	ch <- m.cacheHits.Desc()
	ch <- m.cacheMisses.Desc()
}

// Collect implements prometheus.Collector.
func (m *LookupMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	ch <- m.requestDuration
	ch <- m.cacheHits
	ch <- m.cacheMisses
}
