// Package observe provides the OpenTelemetry metric instruments recorded by
// the silence-removal pipeline and the provider setup that exposes them to
// Prometheus.
//
// Tests should build a [Metrics] with [NewMetrics] and a ManualReader-backed
// provider. A nil *Metrics is valid and records nothing.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all silentcut metrics.
const meterName = "github.com/maauso/silentcut"

// Run outcomes recorded on the runs counter.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the pipeline instruments. All fields are safe for concurrent
// use.
type Metrics struct {
	// StageDuration tracks time spent per pipeline stage. Use with attribute:
	//   attribute.String("stage", ...)
	StageDuration metric.Float64Histogram

	// Runs counts completed pipeline runs. Use with attribute:
	//   attribute.String("outcome", ...)
	Runs metric.Int64Counter

	// RemovedSeconds accumulates the seconds of silence cut from outputs.
	RemovedSeconds metric.Float64Counter

	// Segments records how many segments each successful run kept.
	Segments metric.Int64Histogram
}

// stageBuckets covers everything from a quick probe to a long re-encode.
var stageBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300,
}

var segmentBuckets = []float64{1, 2, 5, 10, 20, 50, 100, 200, 500}

// NewMetrics creates all instruments using the given [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.StageDuration, err = m.Float64Histogram("silentcut.pipeline.stage.duration",
		metric.WithDescription("Time spent in each pipeline stage."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(stageBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Runs, err = m.Int64Counter("silentcut.pipeline.runs",
		metric.WithDescription("Total pipeline runs by outcome."),
	); err != nil {
		return nil, err
	}
	if met.RemovedSeconds, err = m.Float64Counter("silentcut.pipeline.removed_seconds",
		metric.WithDescription("Seconds of silence removed from outputs."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	if met.Segments, err = m.Int64Histogram("silentcut.pipeline.segments",
		metric.WithDescription("Number of segments kept per run."),
		metric.WithExplicitBucketBoundaries(segmentBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// RecordStage records how long a named stage took.
func (m *Metrics) RecordStage(ctx context.Context, stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}

// RecordRun counts one finished run.
func (m *Metrics) RecordRun(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordResult records the output shape of a successful run.
func (m *Metrics) RecordResult(ctx context.Context, segments int, removedSec float64) {
	if m == nil {
		return
	}
	m.Segments.Record(ctx, int64(segments))
	if removedSec > 0 {
		m.RemovedSeconds.Add(ctx, removedSec)
	}
}
