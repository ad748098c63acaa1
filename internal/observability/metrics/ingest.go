package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics tracks ingestion sweeps and per-file outcomes.
type IngestMetrics struct {
	filesTotal        *prometheus.CounterVec
	observationsTotal *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	durations         *prometheus.HistogramVec
	lastRun           prometheus.Gauge
}

// NewIngestMetrics creates and registers ingest metrics.
func NewIngestMetrics(registry prometheus.Registerer) (*IngestMetrics, error) {
	m := &IngestMetrics{
		filesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_ingest_files_total",
			Help: "Files handled by the ingestion pipeline by terminal state.",
		}, []string{"state"}),
		observationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_ingest_observations_total",
			Help: "Observations stored by the ingestion pipeline, created or already present.",
		}, []string{"outcome"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_ingest_errors_total",
			Help: "Per-file ingestion errors by category.",
		}, []string{"operation", "error_type"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_ingest_duration_seconds",
			Help:    "Duration of ingestion of single files and whole sweeps.",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		}, []string{"operation"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_ingest_last_run_timestamp_seconds",
			Help: "Unix time of the last completed ingestion sweep.",
		}),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordOperation implements Recorder. File operations are labelled with the
// terminal state; get_or_create with created or existing.
func (m *IngestMetrics) RecordOperation(operation, status string) {
	switch operation {
	case OpIngestFile:
		m.filesTotal.WithLabelValues(status).Inc()
	case OpGetOrCreate:
		m.observationsTotal.WithLabelValues(status).Inc()
	case OpIngestRun:
		m.lastRun.Set(float64(time.Now().Unix()))
	}
}

// RecordDuration implements Recorder.
func (m *IngestMetrics) RecordDuration(operation string, seconds float64) {
	m.durations.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder.
func (m *IngestMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// Describe implements prometheus.Collector.
func (m *IngestMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.filesTotal.Describe(ch)
	m.observationsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.durations.Describe(ch)
	ch <- m.lastRun.Desc()
}

// Collect implements prometheus.Collector.
func (m *IngestMetrics) Collect(ch chan<- prometheus.Metric) {
	m.filesTotal.Collect(ch)
	m.observationsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.durations.Collect(ch)
	ch <- m.lastRun
}
