package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Ingest outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// MediaMetrics records media lifecycle activity.
type MediaMetrics struct {
	ingest         *prometheus.CounterVec
	ingestBytes    *prometheus.CounterVec
	deletes        *prometheus.CounterVec
	removeFailures *prometheus.CounterVec
}

// NewMediaMetrics registers the media metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewMediaMetrics(reg prometheus.Registerer) *MediaMetrics {
	if reg == nil {
		return &MediaMetrics{}
	}
	ingest := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_ingest_total",
		Help: "Media ingest attempts by category and outcome.",
	}, []string{"category", "outcome"})
	ingestBytes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_ingest_bytes_total",
		Help: "Bytes accepted into the blob store by category.",
	}, []string{"category"})
	deletes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_delete_total",
		Help: "Media deletions by kind (soft, hard).",
	}, []string{"kind"})
	removeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_blob_remove_failures_total",
		Help: "Best-effort blob removals that failed.",
	}, []string{"operation"})
	reg.MustRegister(ingest, ingestBytes, deletes, removeFailures)
	return &MediaMetrics{
		ingest:         ingest,
		ingestBytes:    ingestBytes,
		deletes:        deletes,
		removeFailures: removeFailures,
	}
}

// ObserveIngest records one ingest attempt. Bytes are only counted on success.
func (m *MediaMetrics) ObserveIngest(category, outcome string, sizeBytes int64) {
	if m == nil || m.ingest == nil {
		return
	}
	category = normalizeLabel(category)
	m.ingest.WithLabelValues(category, normalizeLabel(outcome)).Inc()
	if outcome == OutcomeSuccess && sizeBytes > 0 {
		m.ingestBytes.WithLabelValues(category).Add(float64(sizeBytes))
	}
}

// IncDelete counts a completed deletion of the given kind.
func (m *MediaMetrics) IncDelete(kind string) {
	if m == nil || m.deletes == nil {
		return
	}
	m.deletes.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncBlobRemoveFailure counts a blob removal that failed during operation.
func (m *MediaMetrics) IncBlobRemoveFailure(operation string) {
	if m == nil || m.removeFailures == nil {
		return
	}
	m.removeFailures.WithLabelValues(normalizeLabel(operation)).Inc()
}
