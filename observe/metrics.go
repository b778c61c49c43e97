// Package observe provides the OpenTelemetry instruments the benchmark loop
// records into, and a summary reader for end-of-run reporting.
//
// Instruments are created from a caller-supplied [metric.MeterProvider].
// When metrics are not requested the global provider (a no-op until one is
// installed) is used, so recording is always safe.
package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for all vadbench metrics.
const meterName = "github.com/weiihann/vadbench"

// Instrument names.
const (
	FrameDurationName = "vadbench.frame.duration"
	FramesName        = "vadbench.frames"
	EngineErrorsName  = "vadbench.engine.errors"
)

// latencyBuckets are histogram boundaries in microseconds, sized for
// per-frame VAD calls that typically take tens to hundreds of microseconds.
var latencyBuckets = []float64{
	10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000,
}

// Metrics holds the instruments recorded by the benchmark loop.
type Metrics struct {
	// FrameDuration tracks the duration of each engine process call in
	// microseconds. Use with attribute.String("engine", ...).
	FrameDuration metric.Float64Histogram

	// Frames counts successfully processed frames.
	Frames metric.Int64Counter

	// EngineErrors counts non-success engine statuses. Use with
	// attribute.String("engine", ...), attribute.String("op", ...).
	EngineErrors metric.Int64Counter
}

// NewMetrics creates the instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FrameDuration, err = m.Float64Histogram(FrameDurationName,
		metric.WithDescription("Duration of a single engine process call."),
		metric.WithUnit("us"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Frames, err = m.Int64Counter(FramesName,
		metric.WithDescription("Frames processed by the engine."),
	); err != nil {
		return nil, err
	}
	if met.EngineErrors, err = m.Int64Counter(EngineErrorsName,
		metric.WithDescription("Engine calls that returned a failure status."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// GlobalMetrics returns instruments bound to the global meter provider.
func GlobalMetrics() (*Metrics, error) {
	return NewMetrics(otel.GetMeterProvider())
}

// RecordFrame records one successful frame that took d.
func (m *Metrics) RecordFrame(ctx context.Context, engine string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("engine", engine))
	m.FrameDuration.Record(ctx, float64(d)/float64(time.Microsecond), attrs)
	m.Frames.Add(ctx, 1, attrs)
}

// RecordEngineError records a failure status returned by op.
func (m *Metrics) RecordEngineError(ctx context.Context, engine, op string) {
	m.EngineErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("engine", engine),
		attribute.String("op", op),
	))
}
