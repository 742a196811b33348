package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBMetrics holds the query instruments of the reconciliation store.
type DBMetrics struct {
	queryTotal     *Counter   // db_query_total
	queryDuration  *Histogram // db_query_duration_seconds
	slowQueryTotal *Counter   // db_slow_query_total
	errorTotal     *Counter   // db_query_errors_total

	slowThreshold time.Duration
}

// NewDBMetrics creates the query instruments on meter.
func NewDBMetrics(meter metric.Meter, slowThreshold time.Duration) (*DBMetrics, error) {
	if slowThreshold == 0 {
		slowThreshold = 200 * time.Millisecond
	}

	queryTotal, err := NewCounter(meter,
		"db_query_total",
		"Total number of database queries by operation and table",
		"{query}",
	)
	if err != nil {
		return nil, err
	}

	queryDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency distribution in seconds",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	slowQueryTotal, err := NewCounter(meter,
		"db_slow_query_total",
		"Total number of slow database queries",
		"{query}",
	)
	if err != nil {
		return nil, err
	}

	errorTotal, err := NewCounter(meter,
		"db_query_errors_total",
		"Total number of failed database queries",
		"{query}",
	)
	if err != nil {
		return nil, err
	}

	return &DBMetrics{
		queryTotal:     queryTotal,
		queryDuration:  queryDuration,
		slowQueryTotal: slowQueryTotal,
		errorTotal:     errorTotal,
		slowThreshold:  slowThreshold,
	}, nil
}

// RecordQuery records metrics for a database query.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "UNKNOWN"
	}
	if table == "" {
		table = "unknown"
	}

	m.queryTotal.Inc(ctx, AttrDBOperation.String(operation), AttrDBTable.String(table))
	m.queryDuration.RecordDuration(ctx, duration, AttrDBOperation.String(operation))

	if duration > m.slowThreshold {
		m.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		m.errorTotal.Inc(ctx, AttrDBOperation.String(operation), AttrDBTable.String(table))
	}
}

// DBMetricsPlugin is a GORM plugin that collects query metrics.
type DBMetricsPlugin struct {
	metrics *DBMetrics
}

// NewDBMetricsPlugin creates a new GORM plugin for database metrics.
func NewDBMetricsPlugin(metrics *DBMetrics) *DBMetricsPlugin {
	return &DBMetricsPlugin{metrics: metrics}
}

// Name returns the plugin name.
func (p *DBMetricsPlugin) Name() string {
	return "db_metrics"
}

// Initialize registers the GORM callbacks for metrics collection.
func (p *DBMetricsPlugin) Initialize(db *gorm.DB) error {
	before := func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, dbMetricsStartTimeKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(db *gorm.DB) {
			op := operation
			if op == "" {
				op = detectOperationType(db.Statement.SQL.String())
			}
			p.recordMetrics(db, op)
		}
	}

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("db_metrics:before_create", before); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("db_metrics:before_query", before); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("db_metrics:before_update", before); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("db_metrics:before_row", before); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("db_metrics:before_raw", before); err != nil {
		return err
	}

	if err := cb.Create().After("gorm:create").Register("db_metrics:after_create", after("INSERT")); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("db_metrics:after_query", after("SELECT")); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("db_metrics:after_update", after("UPDATE")); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("db_metrics:after_row", after("")); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("db_metrics:after_raw", after(""))
}

func (p *DBMetricsPlugin) recordMetrics(db *gorm.DB, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var duration time.Duration
	if start, ok := ctx.Value(dbMetricsStartTimeKey).(time.Time); ok {
		duration = time.Since(start)
	}

	p.metrics.RecordQuery(ctx, operation, db.Statement.Table, duration, db.Error)
}

// detectOperationType detects the SQL operation type from the query.
func detectOperationType(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))

	switch {
	case strings.HasPrefix(sql, "SELECT"):
		return "SELECT"
	case strings.HasPrefix(sql, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(sql, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(sql, "DELETE"):
		return "DELETE"
	default:
		return "OTHER"
	}
}

type dbMetricsContextKey string

const dbMetricsStartTimeKey dbMetricsContextKey = "db_metrics_start_time"

// RegisterDBMetrics installs the query metrics plugin on db.
// It does nothing when the meter provider is disabled.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, slowThreshold time.Duration, logger *zap.Logger) (*DBMetrics, error) {
	if mp == nil || !mp.IsEnabled() {
		return nil, nil
	}

	metrics, err := NewDBMetrics(mp.Meter("db.client"), slowThreshold)
	if err != nil {
		return nil, err
	}
	if err := db.Use(NewDBMetricsPlugin(metrics)); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Debug("Database metrics registered", zap.Duration("slow_query_threshold", metrics.slowThreshold))
	}
	return metrics, nil
}
