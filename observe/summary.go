package observe

import (
	"context"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// Latency summarizes the per-frame duration histogram.
type Latency struct {
	Count uint64        `json:"count"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
	Mean  time.Duration `json:"mean_ns"`
}

// NewProvider returns a meter provider backed by a manual reader that
// CollectLatency can read at the end of a run.
func NewProvider() (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return mp, reader
}

// CollectLatency reads the frame duration histogram from reader and merges
// its data points.
func CollectLatency(ctx context.Context, reader sdkmetric.Reader) (Latency, error) {
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		return Latency{}, fmt.Errorf("collect metrics: %w", err)
	}

	var (
		lat    Latency
		sum    float64
		lo, hi float64
		seen   bool
	)

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != FrameDurationName {
				continue
			}

			hist, ok := m.Data.(metricdata.Histogram[float64])
			if !ok {
				return Latency{}, fmt.Errorf(
					"metric %s has unexpected type %T", m.Name, m.Data,
				)
			}

			for _, dp := range hist.DataPoints {
				if dp.Count == 0 {
					continue
				}

				lat.Count += dp.Count
				sum += dp.Sum

				if v, ok := dp.Min.Value(); ok && (!seen || v < lo) {
					lo = v
				}
				if v, ok := dp.Max.Value(); ok && (!seen || v > hi) {
					hi = v
				}
				seen = true
			}
		}
	}

	if lat.Count == 0 {
		return lat, nil
	}

	lat.Min = usec(lo)
	lat.Max = usec(hi)
	lat.Mean = usec(sum / float64(lat.Count))

	return lat, nil
}

func usec(v float64) time.Duration {
	return time.Duration(v * float64(time.Microsecond))
}
