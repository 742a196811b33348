package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// ReconcileMetrics holds the instruments of one reconciliation job.
type ReconcileMetrics struct {
	items          *Counter   // reconcile_items_total
	runDuration    *Histogram // reconcile_run_duration_seconds
	runs           *Counter   // reconcile_runs_total
	lockContention *Counter   // reconcile_lock_contention_total
}

// NewReconcileMetrics creates the reconciliation instruments on meter.
func NewReconcileMetrics(meter metric.Meter) (*ReconcileMetrics, error) {
	items, err := NewCounter(meter,
		"reconcile_items_total",
		"Items processed by the backfill, by step and outcome",
		"{item}",
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "reconcile_run_duration_seconds",
		Description: "Duration of a reconciliation run in seconds",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	runs, err := NewCounter(meter,
		"reconcile_runs_total",
		"Completed reconciliation runs",
		"{run}",
	)
	if err != nil {
		return nil, err
	}

	lockContention, err := NewCounter(meter,
		"reconcile_lock_contention_total",
		"Runs aborted because another run held the lock",
		"{run}",
	)
	if err != nil {
		return nil, err
	}

	return &ReconcileMetrics{
		items:          items,
		runDuration:    runDuration,
		runs:           runs,
		lockContention: lockContention,
	}, nil
}

// RecordItem counts one item of a step with its outcome.
func (m *ReconcileMetrics) RecordItem(ctx context.Context, step, outcome string) {
	if m == nil {
		return
	}
	m.items.Inc(ctx, AttrStep.String(step), AttrOutcome.String(outcome))
}

// RecordRun records a finished run.
func (m *ReconcileMetrics) RecordRun(ctx context.Context, d time.Duration, dryRun bool) {
	if m == nil {
		return
	}
	m.runs.Inc(ctx, AttrDryRun.Bool(dryRun))
	m.runDuration.RecordDuration(ctx, d, AttrDryRun.Bool(dryRun))
}

// RecordLockContention counts a run that found the lock held.
func (m *ReconcileMetrics) RecordLockContention(ctx context.Context, lockName string) {
	if m == nil {
		return
	}
	m.lockContention.Inc(ctx, AttrLock.String(lockName))
}
