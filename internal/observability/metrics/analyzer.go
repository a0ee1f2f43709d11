// Package metrics provides analyzer client metrics for observability
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AnalyzerMetrics contains Prometheus metrics for remote analyzer calls
type AnalyzerMetrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

// NewAnalyzerMetrics creates and registers new analyzer metrics
func NewAnalyzerMetrics(registry *prometheus.Registry) (*AnalyzerMetrics, error) {
	m := &AnalyzerMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *AnalyzerMetrics) initMetrics() error {
	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyzer_requests_total",
			Help: "Total number of archive analysis requests",
		},
		[]string{"status"}, // success, error
	)

	m.requestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "analyzer_request_duration_seconds",
		Help: "Duration of archive analysis requests in seconds",
		// Archive analysis runs from seconds to minutes
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	return nil
}

// Describe implements the Collector interface
func (m *AnalyzerMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requestsTotal.Describe(ch)
	m.requestDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *AnalyzerMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requestsTotal.Collect(ch)
	m.requestDuration.Collect(ch)
}

// RecordRequest records one analysis round trip
func (m *AnalyzerMetrics) RecordRequest(durationSeconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.requestsTotal.WithLabelValues(status).Inc()
	m.requestDuration.Observe(durationSeconds)
}
