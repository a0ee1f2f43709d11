// Package metrics provides per-subsystem Prometheus metric collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Disposition label values for ingested records.
const (
	DispositionAutoAccepted = "auto_accepted"
	DispositionNeedsReview  = "needs_review"
	DispositionDropped      = "dropped"
)

// Decision label values for review decisions.
const (
	DecisionConfirmed = "confirmed"
	DecisionSkipped   = "skipped"
)

// ReviewMetrics contains Prometheus metrics for the triage and review workflow
type ReviewMetrics struct {
	registry *prometheus.Registry

	// Ingestion metrics
	batchesIngestedTotal prometheus.Counter
	batchIngestErrors    prometheus.Counter
	recordsIngestedTotal *prometheus.CounterVec

	// Review queue metrics
	reviewDecisionsTotal  *prometheus.CounterVec
	validationErrorsTotal prometheus.Counter
	pendingReviewGauge    prometheus.Gauge
}

// NewReviewMetrics creates and registers new review metrics
func NewReviewMetrics(registry *prometheus.Registry) (*ReviewMetrics, error) {
	m := &ReviewMetrics{registry: registry}
	if err := m.initMetrics(); err != nil {
		return nil, err
	}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *ReviewMetrics) initMetrics() error {
	m.batchesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "review_batches_ingested_total",
		Help: "Total number of prediction batches ingested into the review session",
	})

	m.batchIngestErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "review_batch_ingest_errors_total",
		Help: "Total number of rejected prediction batches (malformed payloads)",
	})

	m.recordsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_records_ingested_total",
			Help: "Total number of prediction records processed at ingestion",
		},
		[]string{"disposition"}, // auto_accepted, needs_review, dropped
	)

	m.reviewDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "review_decisions_total",
			Help: "Total number of reviewer decisions",
		},
		[]string{"decision"}, // confirmed, skipped
	)

	m.validationErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "review_validation_errors_total",
		Help: "Total number of rejected confirm submissions (blank species or reasoning)",
	})

	m.pendingReviewGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "review_pending_items",
		Help: "Number of items currently awaiting manual review",
	})

	return nil
}

// Describe implements the Collector interface
func (m *ReviewMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.batchesIngestedTotal.Describe(ch)
	m.batchIngestErrors.Describe(ch)
	m.recordsIngestedTotal.Describe(ch)
	m.reviewDecisionsTotal.Describe(ch)
	m.validationErrorsTotal.Describe(ch)
	m.pendingReviewGauge.Describe(ch)
}

// Collect implements the Collector interface
func (m *ReviewMetrics) Collect(ch chan<- prometheus.Metric) {
	m.batchesIngestedTotal.Collect(ch)
	m.batchIngestErrors.Collect(ch)
	m.recordsIngestedTotal.Collect(ch)
	m.reviewDecisionsTotal.Collect(ch)
	m.validationErrorsTotal.Collect(ch)
	m.pendingReviewGauge.Collect(ch)
}

// RecordBatchIngested records a successfully ingested batch and its record dispositions
func (m *ReviewMetrics) RecordBatchIngested(autoAccepted, needsReview, dropped int) {
	m.batchesIngestedTotal.Inc()
	m.recordsIngestedTotal.WithLabelValues(DispositionAutoAccepted).Add(float64(autoAccepted))
	m.recordsIngestedTotal.WithLabelValues(DispositionNeedsReview).Add(float64(needsReview))
	m.recordsIngestedTotal.WithLabelValues(DispositionDropped).Add(float64(dropped))
	m.pendingReviewGauge.Set(float64(needsReview))
}

// RecordBatchIngestError records a rejected batch
func (m *ReviewMetrics) RecordBatchIngestError() {
	m.batchIngestErrors.Inc()
}

// RecordDecision records a reviewer decision and the new pending count
func (m *ReviewMetrics) RecordDecision(decision string, pending int) {
	m.reviewDecisionsTotal.WithLabelValues(decision).Inc()
	m.pendingReviewGauge.Set(float64(pending))
}

// RecordValidationError records a rejected confirm submission
func (m *ReviewMetrics) RecordValidationError() {
	m.validationErrorsTotal.Inc()
}
