package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// HTTPMetrics contains Prometheus metrics for the HTTP surface.
type HTTPMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	responseSize    *prometheus.HistogramVec
	transfersTotal  *prometheus.CounterVec
}

// NewHTTPMetrics creates and registers HTTP metrics.
func NewHTTPMetrics(registry prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "path", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "Time taken to serve HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		responseSize: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "catalog_http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(BucketStart100B, BucketFactor10, BucketCount6),
		}, []string{"method", "path"}),
		transfersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_http_transfers_total",
			Help: "FITS downloads and VOTable exports by outcome.",
		}, []string{"kind", "status"}),
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordRequest records a completed request. path must be the route
// template, not the raw URL, to keep label cardinality bounded.
func (m *HTTPMetrics) RecordRequest(method, path string, status int, seconds float64, size int64) {
	m.requestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, path).Observe(seconds)
	if size >= 0 {
		m.responseSize.WithLabelValues(method, path).Observe(float64(size))
	}
}

// RecordTransfer records a download or export, kind is OpDownload or OpExport.
func (m *HTTPMetrics) RecordTransfer(kind, status string) {
	m.transfersTotal.WithLabelValues(kind, status).Inc()
}

// RequestCount returns the current request counter for one label set.
func (m *HTTPMetrics) RequestCount(method, path string, status int) float64 {
	c, err := m.requestsTotal.GetMetricWithLabelValues(method, path, strconv.Itoa(status))
	if err != nil {
		return 0
	}
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		return 0
	}
	if metric.Counter != nil && metric.Counter.Value != nil {
		return *metric.Counter.Value
	}
	return 0
}

// Describe implements prometheus.Collector.
func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
	m.responseSize.Describe(ch)
	m.transfersTotal.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
	m.responseSize.Collect(ch)
	m.transfersTotal.Collect(ch)
}
