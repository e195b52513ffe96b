// Package metrics holds the Prometheus instrumentation for the
// catalog/storage/ingest surfaces, grounded on the teacher's
// internal/api/metrics.go promauto style: package-level collectors
// registered at import time, thin recording functions called from the
// spots that own the relevant counters.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ingestBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtvault_ingest_bytes_total",
		Help: "Total bytes written to a storage backend by create_video.",
	}, []string{"storage_label"})

	ingestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dtvault_ingest_duration_seconds",
		Help:    "Duration of a complete create_video call.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2.0, 12),
	}, []string{"outcome"})

	egressBytesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtvault_egress_bytes_total",
		Help: "Total bytes streamed out of a storage backend by get_video.",
	}, []string{"storage_label"})

	placementDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtvault_placement_decisions_total",
		Help: "Total placement decisions by chosen storage label.",
	}, []string{"storage_label"})

	eventQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dtvault_event_queue_depth",
		Help: "Current number of events queued in the video_created pipeline.",
	})

	eventHandlerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtvault_event_handler_failures_total",
		Help: "Total event handler invocations that returned an error.",
	}, []string{"event"})

	thumbnailAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dtvault_thumbnail_attempts_total",
		Help: "Total encoder thumbnail requests by outcome.",
	}, []string{"outcome"})
)

// RecordIngestBytes adds n bytes to the running total for the backend
// labeled storageLabel.
func RecordIngestBytes(storageLabel string, n int) {
	ingestBytesTotal.WithLabelValues(storageLabel).Add(float64(n))
}

// RecordIngestDuration observes how long a create_video call took,
// labeled by its outcome ("committed", "aborted", "rejected").
func RecordIngestDuration(outcome string, d time.Duration) {
	ingestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordEgressBytes adds n bytes to the running total for get_video
// reads from the backend labeled storageLabel.
func RecordEgressBytes(storageLabel string, n int) {
	egressBytesTotal.WithLabelValues(storageLabel).Add(float64(n))
}

// RecordPlacementDecision counts one placement.Decide outcome, labeled
// by the storage backend it resolved to.
func RecordPlacementDecision(storageLabel string) {
	placementDecisionsTotal.WithLabelValues(storageLabel).Inc()
}

// SetEventQueueDepth reports the current depth of the video_created
// pipeline's bounded channel.
func SetEventQueueDepth(depth int) {
	eventQueueDepth.Set(float64(depth))
}

// RecordEventHandlerFailure counts one failed handler invocation for
// the named event type.
func RecordEventHandlerFailure(event string) {
	eventHandlerFailuresTotal.WithLabelValues(event).Inc()
}

// RecordThumbnailAttempt counts one encoder thumbnail request by
// outcome ("success", "failure").
func RecordThumbnailAttempt(outcome string) {
	thumbnailAttemptsTotal.WithLabelValues(outcome).Inc()
}
