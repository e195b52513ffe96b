package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	if err := counter.Write(metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func TestRecordIngestBytes_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(ingestBytesTotal.WithLabelValues("primary"))
	RecordIngestBytes("primary", 128)
	after := testutil.ToFloat64(ingestBytesTotal.WithLabelValues("primary"))
	if after-before != 128 {
		t.Fatalf("expected counter to advance by 128, got delta %v", after-before)
	}
}

func TestRecordPlacementDecision_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(placementDecisionsTotal.WithLabelValues("archive"))
	RecordPlacementDecision("archive")
	after := testutil.ToFloat64(placementDecisionsTotal.WithLabelValues("archive"))
	if after-before != 1 {
		t.Fatalf("expected counter to advance by 1, got delta %v", after-before)
	}
}

func TestSetEventQueueDepth_SetsGauge(t *testing.T) {
	SetEventQueueDepth(4)
	if got := testutil.ToFloat64(eventQueueDepth); got != 4 {
		t.Fatalf("expected gauge 4, got %v", got)
	}
	SetEventQueueDepth(0)
	if got := testutil.ToFloat64(eventQueueDepth); got != 0 {
		t.Fatalf("expected gauge 0, got %v", got)
	}
}

func TestRecordIngestDuration_ObservesHistogram(t *testing.T) {
	RecordIngestDuration("committed", 250*time.Millisecond)
}

func TestRecordThumbnailAttempt_IncrementsCounter(t *testing.T) {
	before := getCounterValue(t, thumbnailAttemptsTotal.WithLabelValues("success"))
	RecordThumbnailAttempt("success")
	after := getCounterValue(t, thumbnailAttemptsTotal.WithLabelValues("success"))
	if after-before != 1 {
		t.Fatalf("expected counter to advance by 1, got delta %v", after-before)
	}
}
