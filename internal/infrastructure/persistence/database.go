package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/adplan/backend/internal/infrastructure/config"
	"github.com/adplan/backend/internal/infrastructure/logger"
	"github.com/adplan/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB     *gorm.DB
	Driver string
}

// NewDatabase opens the store configured in cfg. SQL is logged through zl
// at cfg.LogLevel; a nil zl silences GORM.
func NewDatabase(cfg *config.DatabaseConfig, zl *zap.Logger) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	var gl gormlogger.Interface = gormlogger.Discard
	if zl != nil {
		gl = logger.NewGormLogger(zl, logger.MapGormLogLevel(cfg.LogLevel),
			logger.WithSlowThreshold(cfg.SlowThreshold))
	}

	return open(dialector, cfg, gl)
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres", "":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func open(dialector gorm.Dialector, cfg *config.DatabaseConfig, gl gormlogger.Interface) (*Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db, Driver: dialector.Name()}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// SQL returns the underlying connection pool
func (d *Database) SQL() (*sql.DB, error) {
	return d.DB.DB()
}

// Gateway returns a Gateway over this connection
func (d *Database) Gateway() *GormGateway {
	return NewGormGateway(d.DB)
}

// AutoMigrate creates the tables named in tables from the models. It is used
// for sqlite stores, which the SQL migrations (postgres dialect) do not cover.
func (d *Database) AutoMigrate(tables config.TablesConfig) error {
	return AutoMigrate(d.DB, tables)
}

// AutoMigrate creates or updates every table on db, under its configured name
func AutoMigrate(db *gorm.DB, tables config.TablesConfig) error {
	targets := []struct {
		table string
		model any
	}{
		{tables.Clients, &models.ClientModel{}},
		{tables.Agencies, &models.AgencyModel{}},
		{tables.Providers, &models.ProviderModel{}},
		{tables.Media, &models.MediaModel{}},
		{tables.Supports, &models.SupportModel{}},
		{tables.Contracts, &models.ContractModel{}},
		{tables.Campaigns, &models.CampaignModel{}},
		{tables.Themes, &models.ThemeModel{}},
		{tables.CampaignThemes, &models.CampaignThemeModel{}},
		{tables.Plans, &models.PlanModel{}},
		{tables.Alternatives, &models.AlternativeModel{}},
		{tables.Orders, &models.OrderModel{}},
		{tables.OrderAlternatives, &models.OrderAlternativeModel{}},
		{tables.ReconcileRuns, &models.ReconcileRunModel{}},
		{tables.JobLocks, &models.JobLockModel{}},
	}
	for _, t := range targets {
		if err := ValidateIdentifier(t.table); err != nil {
			return err
		}
		if err := db.Table(t.table).AutoMigrate(t.model); err != nil {
			return fmt.Errorf("auto migrate %s: %w", t.table, err)
		}
	}
	return nil
}
