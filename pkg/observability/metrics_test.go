package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/matches/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.CongruencyMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	cm, err := observability.NewCongruencyMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return cm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumInt64(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestCongruencyMetrics_RecordPair(t *testing.T) {
	t.Parallel()

	cm, reader := setupTestMeter(t)
	ctx := context.Background()

	cm.RecordPair(ctx, "pair", time.Millisecond, nil)
	cm.RecordPair(ctx, "pair", time.Millisecond, errors.New("boom"))

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumInt64(t, findMetric(rm, "matches.pairs.total")))
	assert.Equal(t, int64(1), sumInt64(t, findMetric(rm, "matches.errors.total")))

	duration := findMetric(rm, "matches.pair.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
}

func TestCongruencyMetrics_RecordClusterset(t *testing.T) {
	t.Parallel()

	cm, reader := setupTestMeter(t)
	ctx := context.Background()

	cm.RecordClusterset(ctx, 7)
	cm.RecordClusterset(ctx, 5)
	cm.RecordPass(ctx, "complete")

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumInt64(t, findMetric(rm, "matches.clustersets.parsed.total")))
	assert.Equal(t, int64(12), sumInt64(t, findMetric(rm, "matches.clustersets.elements.total")))
	assert.Equal(t, int64(1), sumInt64(t, findMetric(rm, "matches.passes.total")))
}

func TestCongruencyMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var cm *observability.CongruencyMetrics

	assert.NotPanics(t, func() {
		cm.RecordClusterset(context.Background(), 1)
		cm.RecordPair(context.Background(), "pair", time.Second, nil)
		cm.RecordPass(context.Background(), "pair")
	})
}
