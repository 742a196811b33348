package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load
const EnvPrefix = "ADPLAN"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	REST      RESTConfig
	Redis     RedisConfig
	Log       LogConfig
	Telemetry TelemetryConfig
	Reconcile ReconcileConfig
	Tables    TablesConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string `validate:"oneof=postgres sqlite"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path, ":memory:" for tests
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int           // in minutes
	ConnMaxIdleTime int           // in minutes
	LogLevel        string        // silent, error, warn, info
	SlowThreshold   time.Duration // slow query warning threshold
}

// RESTConfig holds settings for the hosted table API (Supabase / PostgREST)
type RESTConfig struct {
	URL        string
	ServiceKey string
	Schema     string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TelemetryConfig holds OpenTelemetry metrics and tracing configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	Insecure          bool // Use insecure (non-TLS) connection (development only)
	ExportInterval    time.Duration
	SamplingRatio     float64 `validate:"gte=0,lte=1"`
}

// ReconcileConfig holds settings of the reconciliation job
type ReconcileConfig struct {
	Backend    string        `validate:"oneof=gorm rest"`          // where the graph lives
	Lock       string        `validate:"oneof=row advisory redis"` // run lock implementation
	LockName   string        `validate:"required"`                 // lock key shared by all runs
	LockTTL    time.Duration `validate:"gt=0"`                     // expiry of row and redis locks
	IDStrategy string        `validate:"oneof=store max_plus_one"` // contract id assignment
	DryRun     bool          // compute the report without writes
	Steps      []string      `validate:"dive,oneof=supports themes alternatives shares"`
}

// TablesConfig maps each entity to its table name. Columns are not configurable.
type TablesConfig struct {
	Clients           string `validate:"required"`
	Agencies          string `validate:"required"`
	Providers         string `validate:"required"`
	Media             string `validate:"required"`
	Supports          string `validate:"required"`
	Contracts         string `validate:"required"`
	Campaigns         string `validate:"required"`
	Plans             string `validate:"required"`
	Alternatives      string `validate:"required"`
	Orders            string `validate:"required"`
	OrderAlternatives string `validate:"required"`
	Themes            string `validate:"required"`
	CampaignThemes    string `validate:"required"`
	JobLocks          string `validate:"required"`
	ReconcileRuns     string `validate:"required"`
}

// DefaultTables returns the canonical table names
func DefaultTables() TablesConfig {
	return TablesConfig{
		Clients:           "clients",
		Agencies:          "agencies",
		Providers:         "providers",
		Media:             "media",
		Supports:          "supports",
		Contracts:         "contracts",
		Campaigns:         "campaigns",
		Plans:             "plans",
		Alternatives:      "alternatives",
		Orders:            "orders",
		OrderAlternatives: "order_alternatives",
		Themes:            "themes",
		CampaignThemes:    "campaign_themes",
		JobLocks:          "job_locks",
		ReconcileRuns:     "reconcile_runs",
	}
}

// Load loads configuration from config.toml and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with ADPLAN_ prefix (e.g., ADPLAN_DATABASE_PASSWORD)
// 2. Variables from a .env file in the working directory
// 3. config.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the given config file instead of
// searching for config.toml. An empty path searches the default locations.
func LoadFrom(configFile string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/adplan")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("telemetry.sampling_ratio", 1.0)

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
		},
		REST: RESTConfig{
			URL:        v.GetString("rest.url"),
			ServiceKey: v.GetString("rest.service_key"),
			Schema:     v.GetString("rest.schema"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
		},
		Reconcile: ReconcileConfig{
			Backend:    v.GetString("reconcile.backend"),
			Lock:       v.GetString("reconcile.lock"),
			LockName:   v.GetString("reconcile.lock_name"),
			LockTTL:    v.GetDuration("reconcile.lock_ttl"),
			IDStrategy: v.GetString("reconcile.id_strategy"),
			DryRun:     v.GetBool("reconcile.dry_run"),
			Steps:      v.GetStringSlice("reconcile.steps"),
		},
		Tables: TablesConfig{
			Clients:           v.GetString("tables.clients"),
			Agencies:          v.GetString("tables.agencies"),
			Providers:         v.GetString("tables.providers"),
			Media:             v.GetString("tables.media"),
			Supports:          v.GetString("tables.supports"),
			Contracts:         v.GetString("tables.contracts"),
			Campaigns:         v.GetString("tables.campaigns"),
			Plans:             v.GetString("tables.plans"),
			Alternatives:      v.GetString("tables.alternatives"),
			Orders:            v.GetString("tables.orders"),
			OrderAlternatives: v.GetString("tables.order_alternatives"),
			Themes:            v.GetString("tables.themes"),
			CampaignThemes:    v.GetString("tables.campaign_themes"),
			JobLocks:          v.GetString("tables.job_locks"),
			ReconcileRuns:     v.GetString("tables.reconcile_runs"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadDotEnv loads the given files into the process environment if they exist.
// Variables already set in the environment win.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("error loading %s: %w", f, err)
		}
	}
	return nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "adplan-reconciler"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "adplan"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "adplan.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 5
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 2
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.REST.Schema == "" {
		cfg.REST.Schema = "public"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
	if cfg.Reconcile.Backend == "" {
		cfg.Reconcile.Backend = "gorm"
	}
	if cfg.Reconcile.Lock == "" {
		cfg.Reconcile.Lock = "row"
	}
	if cfg.Reconcile.LockName == "" {
		cfg.Reconcile.LockName = "reconcile-relationships"
	}
	if cfg.Reconcile.LockTTL == 0 {
		cfg.Reconcile.LockTTL = 30 * time.Minute
	}
	if cfg.Reconcile.IDStrategy == "" {
		cfg.Reconcile.IDStrategy = "store"
	}
	applyTableDefaults(&cfg.Tables)
}

func applyTableDefaults(t *TablesConfig) {
	d := DefaultTables()
	fill := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	fill(&t.Clients, d.Clients)
	fill(&t.Agencies, d.Agencies)
	fill(&t.Providers, d.Providers)
	fill(&t.Media, d.Media)
	fill(&t.Supports, d.Supports)
	fill(&t.Contracts, d.Contracts)
	fill(&t.Campaigns, d.Campaigns)
	fill(&t.Plans, d.Plans)
	fill(&t.Alternatives, d.Alternatives)
	fill(&t.Orders, d.Orders)
	fill(&t.OrderAlternatives, d.OrderAlternatives)
	fill(&t.Themes, d.Themes)
	fill(&t.CampaignThemes, d.CampaignThemes)
	fill(&t.JobLocks, d.JobLocks)
	fill(&t.ReconcileRuns, d.ReconcileRuns)
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	switch c.Reconcile.Backend {
	case "rest":
		if c.REST.URL == "" {
			return fmt.Errorf("rest.url is required when reconcile.backend is rest")
		}
		if c.REST.ServiceKey == "" {
			return fmt.Errorf("rest.service_key is required when reconcile.backend is rest")
		}
		if c.Reconcile.Lock == "advisory" {
			return fmt.Errorf("reconcile.lock=advisory needs a direct database connection (reconcile.backend=gorm)")
		}
	case "gorm":
		if c.Reconcile.Lock == "advisory" && c.Database.Driver != "postgres" {
			return fmt.Errorf("reconcile.lock=advisory requires database.driver=postgres")
		}
	}

	if c.App.Env == "production" && c.Reconcile.Backend == "gorm" && c.Database.Driver == "postgres" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
