package utils

import (
	"sort"
	"sync"
	"time"
)

// reportEvery paces latency summaries: Observe signals a report once per
// this many observations.
const reportEvery = 20

// LatencySummary is a snapshot of the retained latency window. Samples
// counts every observation ever made, including evicted ones.
type LatencySummary struct {
	Samples int
	Min     time.Duration
	Max     time.Duration
	P50     time.Duration
	P95     time.Duration
}

// LatencyTracker keeps a bounded window of answer latencies and paces
// percentile reporting so callers log summaries instead of raw samples.
type LatencyTracker struct {
	mu      sync.Mutex
	samples []time.Duration
	maxSize int
	seen    int
}

// NewLatencyTracker creates a tracker retaining up to maxSize samples.
func NewLatencyTracker(maxSize int) *LatencyTracker {
	if maxSize <= 0 {
		maxSize = 512
	}
	return &LatencyTracker{maxSize: maxSize}
}

// Observe records a duration and reports whether a summary is due. The
// first report waits for a full reportEvery observations so percentiles
// are never computed over a handful of samples.
func (l *LatencyTracker) Observe(d time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seen++
	l.samples = append(l.samples, d)
	if len(l.samples) > l.maxSize {
		// Drop the oldest sample to bound memory.
		copy(l.samples, l.samples[1:])
		l.samples = l.samples[:l.maxSize]
	}
	return l.seen%reportEvery == 0
}

// Summary computes percentiles over the retained window. Returns the zero
// value when nothing was observed.
func (l *LatencyTracker) Summary() LatencySummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.samples) == 0 {
		return LatencySummary{}
	}
	sorted := append([]time.Duration(nil), l.samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencySummary{
		Samples: l.seen,
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		P50:     sorted[rankIndex(50, len(sorted))],
		P95:     sorted[rankIndex(95, len(sorted))],
	}
}

// rankIndex maps a percentile to an index into a sorted slice of length n.
func rankIndex(p float64, n int) int {
	idx := int(p / 100.0 * float64(n-1))
	if idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}
