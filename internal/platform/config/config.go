// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageSQL    = "sql"
	StorageGorm   = "gorm"

	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	AuditSlog = "slog"
	AuditFile = "file"
	AuditNone = "none"
)

// Server captures everything cmd/server needs to wire the process.
type Server struct {
	Addr            string        `env:"SOLICITUDES_ADDR" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	AdminToken      string        `env:"ADMIN_TOKEN"`

	Log      LogConfig
	Storage  StorageConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Audit    AuditConfig
	Listing  ListingConfig
	Tracing  TracingConfig

	EventsEnabled bool `env:"EVENTS_ENABLED" envDefault:"true"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"memory"`
}

type DatabaseConfig struct {
	Driver       string `env:"DB_DRIVER" envDefault:"pgx"`
	URL          string `env:"DATABASE_URL"`
	MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	AutoMigrate  bool   `env:"AUTO_MIGRATE" envDefault:"false"`
}

// RedisConfig enables the read-through cache when URL is set.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// KafkaConfig enables the Kafka event publisher when Brokers is non-empty.
type KafkaConfig struct {
	Brokers  []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic    string   `env:"KAFKA_TOPIC" envDefault:"solicitudes.events"`
	ClientID string   `env:"KAFKA_CLIENT_ID" envDefault:"solicitudes"`
}

type AuditConfig struct {
	Sink       string `env:"AUDIT_SINK" envDefault:"slog"`
	FilePath   string `env:"AUDIT_FILE_PATH" envDefault:"storage/logs/audit.log"`
	MaxSizeMB  int    `env:"AUDIT_MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"AUDIT_MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"AUDIT_MAX_AGE_DAYS" envDefault:"30"`
	Compress   bool   `env:"AUDIT_COMPRESS" envDefault:"true"`
}

// TracingConfig exports spans over OTLP/HTTP when Endpoint is set.
type TracingConfig struct {
	Enabled     bool    `env:"OTEL_ENABLED" envDefault:"true"`
	Endpoint    string  `env:"OTEL_EXPORTER_ENDPOINT"`
	SampleRatio float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

type ListingConfig struct {
	DefaultPerPage int `env:"DEFAULT_PER_PAGE" envDefault:"15"`
	MaxPerPage     int `env:"MAX_PER_PAGE" envDefault:"100"`
}

// KafkaEnabled reports whether events should also go to Kafka.
func (c Server) KafkaEnabled() bool {
	return c.EventsEnabled && len(c.Kafka.Brokers) > 0
}

// CacheEnabled reports whether the Redis cache decorator is configured.
func (c Server) CacheEnabled() bool {
	return c.Redis.URL != "" && c.Storage.Driver != StorageMemory
}

// Load reads the optional env files, then the environment.
// Missing env files are skipped; variables already set win.
func Load(envFiles ...string) (Server, error) {
	if err := loadEnvFiles(envFiles); err != nil {
		return Server{}, err
	}
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func loadEnvFiles(files []string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

func (c *Server) normalize() {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Audit.Sink = strings.ToLower(strings.TrimSpace(c.Audit.Sink))
	brokers := c.Kafka.Brokers[:0]
	for _, b := range c.Kafka.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	c.Kafka.Brokers = brokers
}

// Validate checks enum values and required combinations.
func (c Server) Validate() error {
	var errs []error
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text: got %q", c.Log.Format))
	}
	switch c.Storage.Driver {
	case StorageMemory:
	case StorageSQL, StorageGorm:
		if c.Database.URL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for STORAGE_DRIVER=%s", c.Storage.Driver))
		}
		if c.Storage.Driver == StorageGorm && c.Database.Driver != DriverPgx {
			errs = append(errs, errors.New("STORAGE_DRIVER=gorm requires DB_DRIVER=pgx"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER must be one of memory, sql, gorm: got %q", c.Storage.Driver))
	}
	switch c.Database.Driver {
	case DriverPgx, DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be one of pgx, postgres, sqlite: got %q", c.Database.Driver))
	}
	switch c.Audit.Sink {
	case AuditSlog, AuditNone:
	case AuditFile:
		if c.Audit.FilePath == "" {
			errs = append(errs, errors.New("AUDIT_FILE_PATH is required for AUDIT_SINK=file"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUDIT_SINK must be one of slog, file, none: got %q", c.Audit.Sink))
	}
	if c.Listing.DefaultPerPage < 1 || c.Listing.MaxPerPage < c.Listing.DefaultPerPage {
		errs = append(errs, errors.New("DEFAULT_PER_PAGE must be >= 1 and <= MAX_PER_PAGE"))
	}
	if c.KafkaEnabled() && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATIO must be within [0, 1]"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}
