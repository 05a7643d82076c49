package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestRegistry(t *testing.T) (*Registry, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	r, err := NewRegistryWithMeter(provider.Meter("aire-test"))
	require.NoError(t, err)
	return r, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", data)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestRegistry_PipelineCounters(t *testing.T) {
	ctx := context.Background()
	r, reader := newTestRegistry(t)

	r.RecordCollection(ctx, "AI", "incidents", 3)
	r.RecordCollection(ctx, "Bio", "incidents", 2)
	r.RecordFallback(ctx, "Bio", "incidents")
	r.RecordDropped(ctx, "AI", "incidents", 1)
	r.RecordDropped(ctx, "AI", "benchmarks", 0)
	r.RecordStore(ctx, "incidents", 5, nil)
	r.RecordStore(ctx, "incidents", 0, errors.New("timeout"))

	got := collect(t, reader)
	assert.Equal(t, int64(5), sumOf(t, got["aire.pipeline.records_collected"]))
	assert.Equal(t, int64(1), sumOf(t, got["aire.pipeline.fallbacks"]))
	assert.Equal(t, int64(1), sumOf(t, got["aire.pipeline.records_dropped"]))
	assert.Equal(t, int64(5), sumOf(t, got["aire.store.records_inserted"]))
	assert.Equal(t, int64(1), sumOf(t, got["aire.store.failures"]))

	collected := got["aire.pipeline.records_collected"].(metricdata.Sum[int64])
	assert.Len(t, collected.DataPoints, 2, "one series per domain and kind")
}

func TestRegistry_Scoring(t *testing.T) {
	ctx := context.Background()
	r, reader := newTestRegistry(t)

	r.RecordScoring(ctx, 3*time.Millisecond, "AI", false)
	r.RecordScoring(ctx, 12*time.Millisecond, "AI", true)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["aire.scoring.trainings"]))

	hist, ok := got["aire.scoring.duration"].(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	var total float64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		total += dp.Sum
	}
	assert.Equal(t, uint64(2), count)
	assert.InDelta(t, 15.0, total, 1e-9)
}

func TestRegistry_PoolGauge(t *testing.T) {
	r, reader := newTestRegistry(t)
	r.SetDBPoolAcquired(4)

	got := collect(t, reader)
	gauge, ok := got["aire.store.pool_acquired_connections"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(4), gauge.DataPoints[0].Value)
}
