package gapanalysis

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric definitions for the gap analysis engine

var (
	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datagov",
			Subsystem: "gapanalysis",
			Name:      "analyses_total",
			Help:      "Total number of analysis runs by outcome",
		},
		[]string{"outcome"},
	)

	analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "datagov",
			Subsystem: "gapanalysis",
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~5m
		},
	)

	detectorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "datagov",
			Subsystem: "gapanalysis",
			Name:      "detector_duration_seconds",
			Help:      "Per-detector stage duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"category"},
	)

	gapsFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datagov",
			Subsystem: "gapanalysis",
			Name:      "gaps_found_total",
			Help:      "Total unique gaps found by severity",
		},
		[]string{"severity"},
	)

	detectorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datagov",
			Subsystem: "gapanalysis",
			Name:      "detector_failures_total",
			Help:      "Non-fatal detector failures by category",
		},
		[]string{"category"},
	)
)

// memoryTracker samples process heap usage and remembers the peak observed
// during a run. Sampling happens at stage boundaries only; the peak is a
// lower bound on true peak usage.
type memoryTracker struct {
	peakBytes uint64
}

func newMemoryTracker() *memoryTracker {
	t := &memoryTracker{}
	t.Sample()
	return t
}

// Sample reads current heap allocation and updates the peak
func (t *memoryTracker) Sample() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if m.Alloc > t.peakBytes {
		t.peakBytes = m.Alloc
	}
}

// PeakMB returns the peak observed heap allocation in megabytes
func (t *memoryTracker) PeakMB() float64 {
	return float64(t.peakBytes) / (1024 * 1024)
}
