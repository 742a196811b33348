package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/adplan/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func withAttr(kv attribute.KeyValue) func(metricdata.DataPoint[int64]) bool {
	return func(dp metricdata.DataPoint[int64]) bool {
		v, ok := dp.Attributes.Value(kv.Key)
		return ok && v == kv.Value
	}
}

func TestReconcileMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := telemetry.NewMeterProviderWithReader(reader, nil)
	defer mp.Shutdown(ctx)

	m, err := telemetry.NewReconcileMetrics(mp.Meter("reconcile"))
	require.NoError(t, err)

	m.RecordItem(ctx, "themes", "created")
	m.RecordItem(ctx, "themes", "existing")
	m.RecordItem(ctx, "themes", "existing")
	m.RecordItem(ctx, "supports", "linked")
	m.RecordRun(ctx, 3*time.Second, false)
	m.RecordLockContention(ctx, "reconcile-relationships")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.EqualValues(t, 4, sumOf(rm, "reconcile_items_total"))
	assert.EqualValues(t, 2, sumOf(rm, "reconcile_items_total",
		withAttr(telemetry.AttrStep.String("themes")),
		withAttr(telemetry.AttrOutcome.String("existing"))))
	assert.EqualValues(t, 1, sumOf(rm, "reconcile_runs_total", withAttr(telemetry.AttrDryRun.Bool(false))))
	assert.EqualValues(t, 1, histogramCount(rm, "reconcile_run_duration_seconds"))
	assert.EqualValues(t, 1, sumOf(rm, "reconcile_lock_contention_total"))
}

func TestReconcileMetrics_NilIsNoop(t *testing.T) {
	var m *telemetry.ReconcileMetrics
	assert.NotPanics(t, func() {
		m.RecordItem(context.Background(), "supports", "linked")
		m.RecordRun(context.Background(), time.Second, true)
		m.RecordLockContention(context.Background(), "x")
	})
}
