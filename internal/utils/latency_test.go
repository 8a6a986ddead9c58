package utils

import (
	"testing"
	"time"
)

func TestLatencyTrackerReportCadence(t *testing.T) {
	tracker := NewLatencyTracker(64)
	reports := 0
	for i := 1; i <= 45; i++ {
		if tracker.Observe(time.Duration(i) * time.Millisecond) {
			if i%reportEvery != 0 {
				t.Fatalf("report signalled at observation %d", i)
			}
			reports++
		}
	}
	if reports != 2 {
		t.Fatalf("got %d reports over 45 observations, want 2", reports)
	}
}

func TestLatencyTrackerSummary(t *testing.T) {
	tracker := NewLatencyTracker(8)
	for i := 1; i <= 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}

	sum := tracker.Summary()
	if sum.Samples != 10 {
		t.Errorf("samples = %d, want total observations including evicted ones", sum.Samples)
	}
	if sum.Min != 3*time.Millisecond {
		t.Errorf("min = %v, want 3ms after eviction of the two oldest", sum.Min)
	}
	if sum.Max != 10*time.Millisecond {
		t.Errorf("max = %v, want 10ms", sum.Max)
	}
	if sum.P50 < sum.Min || sum.P50 > sum.P95 || sum.P95 > sum.Max {
		t.Errorf("percentiles out of order: %+v", sum)
	}
}

func TestLatencyTrackerEmptySummary(t *testing.T) {
	tracker := NewLatencyTracker(4)
	if sum := tracker.Summary(); sum != (LatencySummary{}) {
		t.Fatalf("expected zero summary for empty tracker, got %+v", sum)
	}
}
