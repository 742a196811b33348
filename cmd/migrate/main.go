// Command migrate applies the PostgreSQL schema of the agency database.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/adplan/backend/internal/infrastructure/config"
	"github.com/adplan/backend/internal/infrastructure/logger"
	"github.com/adplan/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// defaultMigrationsDir is where create writes new files
const defaultMigrationsDir = "migrations"

type options struct {
	configPath string
	path       string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Database migration tool",
		Long:          "migrate applies the embedded schema, or the files under --path, with golang-migrate.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default: search config.toml)")
	root.PersistentFlags().StringVar(&opts.path, "path", "", "Migrations directory (default: embedded schema)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return withMigrator(opts, func(m *migration.Migrator, _ *zap.Logger) error { return m.Up() })
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return withMigrator(opts, func(m *migration.Migrator, _ *zap.Logger) error { return m.Down() })
			},
		},
		&cobra.Command{
			Use:   "step <n>",
			Short: "Apply n migrations (positive=up, negative=down)",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return withMigrator(opts, func(m *migration.Migrator, _ *zap.Logger) error { return m.Steps(n) })
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show the current migration version",
			Args:  cobra.NoArgs,
			RunE: func(*cobra.Command, []string) error {
				return withMigrator(opts, func(m *migration.Migrator, log *zap.Logger) error {
					version, dirty, err := m.Version()
					if err != nil {
						return err
					}
					if version == 0 {
						log.Info("No migrations applied")
						return nil
					}
					log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "force <version>",
			Short: "Force the migration version (use with caution)",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				version, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return withMigrator(opts, func(m *migration.Migrator, log *zap.Logger) error {
					log.Warn("Forcing migration version", zap.Int("version", version))
					return m.Force(version)
				})
			},
		},
		&cobra.Command{
			Use:   "create <name> [description]",
			Short: "Create a new migration file pair",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(_ *cobra.Command, args []string) error {
				log, err := newLogger(opts)
				if err != nil {
					return err
				}
				defer func() { _ = log.Sync() }()

				dir := opts.path
				if dir == "" {
					dir = defaultMigrationsDir
				}
				description := ""
				if len(args) > 1 {
					description = args[1]
				}
				mf, err := migration.CreateMigration(dir, args[0], description)
				if err != nil {
					return err
				}
				log.Info("Migration created",
					zap.String("version", mf.Version),
					zap.String("up_file", mf.UpPath),
					zap.String("down_file", mf.DownPath),
				)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List available migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				names, err := migration.ListMigrations(migration.Source(opts.path))
				if err != nil {
					return err
				}
				if len(names) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No migrations found")
					return nil
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), "  -", n)
				}
				return nil
			},
		},
	)
	return root
}

func newLogger(opts *options) (*zap.Logger, error) {
	cfg := logger.DefaultConfig()
	cfg.Level = opts.logLevel
	return logger.New(cfg)
}

// withMigrator connects to the configured postgres database and runs fn
func withMigrator(opts *options, fn func(*migration.Migrator, *zap.Logger) error) error {
	log, err := newLogger(opts)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("migrations target postgres, configured driver is %q", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	m, err := migration.New(db, migration.Source(opts.path), log)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	log.Info("Migration started", zap.String("database", cfg.Database.DBName))
	return fn(m, log)
}
