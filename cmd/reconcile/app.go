package main

import (
	"context"
	"fmt"
	"time"

	reconcileapp "github.com/adplan/backend/internal/application/reconcile"
	"github.com/adplan/backend/internal/domain/shared"
	"github.com/adplan/backend/internal/infrastructure/config"
	"github.com/adplan/backend/internal/infrastructure/lock"
	"github.com/adplan/backend/internal/infrastructure/logger"
	"github.com/adplan/backend/internal/infrastructure/persistence"
	"github.com/adplan/backend/internal/infrastructure/persistence/rest"
	"github.com/adplan/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// app holds the connections one command works with
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	meters  *telemetry.MeterProvider
	metrics *telemetry.ReconcileMetrics
	db      *persistence.Database // nil on the rest backend
	gateway persistence.Gateway
	repos   reconcileapp.Repositories
	closers []func(context.Context) error
}

func newApp(ctx context.Context, opts *options) (*app, error) {
	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	log, err := logger.New(logger.FromLogConfig(cfg.Log))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a := &app{cfg: cfg, log: log}

	if err := a.open(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) open(ctx context.Context) error {
	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.TracerConfigFrom(a.cfg.Telemetry), a.log)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.closers = append(a.closers, tracer.Shutdown)

	meters, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfigFrom(a.cfg.Telemetry), a.log)
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	a.meters = meters
	a.closers = append(a.closers, meters.Shutdown)

	a.metrics, err = telemetry.NewReconcileMetrics(meters.Meter("adplan/reconcile"))
	if err != nil {
		return fmt.Errorf("failed to create reconcile metrics: %w", err)
	}

	switch a.cfg.Reconcile.Backend {
	case "rest":
		gw, err := rest.NewSupabaseGateway(a.cfg.REST)
		if err != nil {
			return err
		}
		a.gateway = gw
	default:
		db, err := persistence.NewDatabase(&a.cfg.Database, a.log)
		if err != nil {
			return err
		}
		a.db = db
		a.closers = append(a.closers, func(context.Context) error { return db.Close() })

		if db.Driver == "sqlite" {
			if err := db.AutoMigrate(a.cfg.Tables); err != nil {
				return err
			}
		}
		if _, err := telemetry.RegisterDBMetrics(db.DB, meters, a.cfg.Database.SlowThreshold, a.log); err != nil {
			return err
		}
		if tracer.IsEnabled() {
			name := a.cfg.Database.DBName
			if db.Driver == "sqlite" {
				name = a.cfg.Database.Path
			}
			if err := telemetry.RegisterDBTracing(db.DB, name, a.log); err != nil {
				return err
			}
		}
		a.gateway = db.Gateway()
	}

	strategy, err := persistence.ParseIDStrategy(a.cfg.Reconcile.IDStrategy)
	if err != nil {
		return err
	}
	t := a.cfg.Tables
	a.repos = reconcileapp.Repositories{
		Media:        persistence.NewMediaRepository(a.gateway, t.Media),
		Supports:     persistence.NewSupportRepository(a.gateway, t.Supports),
		Clients:      persistence.NewClientRepository(a.gateway, t.Clients),
		Agencies:     persistence.NewAgencyRepository(a.gateway, t.Agencies),
		Contracts:    persistence.NewContractRepository(a.gateway, t.Contracts, strategy),
		Campaigns:    persistence.NewCampaignRepository(a.gateway, t.Campaigns, t.CampaignThemes),
		Themes:       persistence.NewThemeRepository(a.gateway, t.Themes),
		Plans:        persistence.NewPlanRepository(a.gateway, t.Plans),
		Alternatives: persistence.NewAlternativeRepository(a.gateway, t.Alternatives),
		Orders:       persistence.NewOrderRepository(a.gateway, t.Orders, t.OrderAlternatives),
		Runs:         persistence.NewRunRepository(a.gateway, t.ReconcileRuns),
	}

	a.log.Debug("Store opened",
		zap.String("backend", a.cfg.Reconcile.Backend),
		zap.String("id_strategy", string(strategy)),
	)
	return nil
}

// runLock builds the configured run lock, connecting to redis when needed.
// timeout bounds the run the lock guards.
func (a *app) runLock(ctx context.Context, timeout time.Duration) (shared.RunLock, error) {
	if err := lock.CheckRunTimeout(a.cfg.Reconcile, timeout); err != nil {
		return nil, err
	}
	deps := lock.Deps{Gateway: a.gateway}

	switch a.cfg.Reconcile.Lock {
	case "advisory":
		if a.db == nil || a.db.Driver != "postgres" {
			return nil, fmt.Errorf("advisory lock needs the postgres backend")
		}
		sqlDB, err := a.db.SQL()
		if err != nil {
			return nil, err
		}
		deps.SQL = sqlDB
	case "redis":
		client, err := lock.NewRedisClient(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		deps.Redis = client
	}

	return lock.New(a.cfg.Reconcile, a.cfg.Tables, deps)
}

// Close releases every connection in reverse order of opening
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn("Failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.log.Sync()
}
