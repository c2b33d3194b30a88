package clustergo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    fitCounter       prometheus.Counter
//	    predictHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordFit(steps int, duration time.Duration, err error) {
//	    p.fitCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordFit is called after each training round.
	// steps is the number of refinement steps executed, duration is the
	// total time taken, err is nil if successful.
	RecordFit(steps int, duration time.Duration, err error)

	// RecordPredict is called after each assignment operation.
	// points is the number of points assigned.
	RecordPredict(points int, duration time.Duration, err error)

	// RecordScore is called after each scoring operation.
	RecordScore(points int, duration time.Duration, err error)

	// RecordTransform is called after each distance transform.
	RecordTransform(points int, duration time.Duration, err error)

	// RecordSnapshot is called after each model snapshot save or load.
	RecordSnapshot(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFit(int, time.Duration, error)       {}
func (NoopMetricsCollector) RecordPredict(int, time.Duration, error)   {}
func (NoopMetricsCollector) RecordScore(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordTransform(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	FitCount          atomic.Int64
	FitErrors         atomic.Int64
	FitSteps          atomic.Int64
	FitTotalNanos     atomic.Int64
	PredictCount      atomic.Int64
	PredictErrors     atomic.Int64
	PredictPoints     atomic.Int64
	PredictTotalNanos atomic.Int64
	ScoreCount        atomic.Int64
	ScoreErrors       atomic.Int64
	TransformCount    atomic.Int64
	TransformErrors   atomic.Int64
	SnapshotCount     atomic.Int64
	SnapshotErrors    atomic.Int64
}

// RecordFit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFit(steps int, duration time.Duration, err error) {
	b.FitCount.Add(1)
	b.FitSteps.Add(int64(steps))
	b.FitTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FitErrors.Add(1)
	}
}

// RecordPredict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPredict(points int, duration time.Duration, err error) {
	b.PredictCount.Add(1)
	b.PredictPoints.Add(int64(points))
	b.PredictTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.PredictErrors.Add(1)
	}
}

// RecordScore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScore(points int, duration time.Duration, err error) {
	b.ScoreCount.Add(1)
	if err != nil {
		b.ScoreErrors.Add(1)
	}
}

// RecordTransform implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransform(points int, duration time.Duration, err error) {
	b.TransformCount.Add(1)
	if err != nil {
		b.TransformErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FitCount:        b.FitCount.Load(),
		FitErrors:       b.FitErrors.Load(),
		FitSteps:        b.FitSteps.Load(),
		FitAvgNanos:     b.getAvgFitNanos(),
		PredictCount:    b.PredictCount.Load(),
		PredictErrors:   b.PredictErrors.Load(),
		PredictPoints:   b.PredictPoints.Load(),
		PredictAvgNanos: b.getAvgPredictNanos(),
		ScoreCount:      b.ScoreCount.Load(),
		ScoreErrors:     b.ScoreErrors.Load(),
		TransformCount:  b.TransformCount.Load(),
		TransformErrors: b.TransformErrors.Load(),
		SnapshotCount:   b.SnapshotCount.Load(),
		SnapshotErrors:  b.SnapshotErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgFitNanos() int64 {
	count := b.FitCount.Load()
	if count == 0 {
		return 0
	}
	return b.FitTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgPredictNanos() int64 {
	count := b.PredictCount.Load()
	if count == 0 {
		return 0
	}
	return b.PredictTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FitCount        int64
	FitErrors       int64
	FitSteps        int64
	FitAvgNanos     int64
	PredictCount    int64
	PredictErrors   int64
	PredictPoints   int64
	PredictAvgNanos int64
	ScoreCount      int64
	ScoreErrors     int64
	TransformCount  int64
	TransformErrors int64
	SnapshotCount   int64
	SnapshotErrors  int64
}
