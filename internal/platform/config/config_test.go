package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 15, cfg.Listing.DefaultPerPage)
	assert.Equal(t, 100, cfg.Listing.MaxPerPage)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.CacheEnabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", " SQL ")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("KAFKA_BROKERS", "localhost:9092, ,localhost:9093")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageSQL, cfg.Storage.Driver)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.True(t, cfg.CacheEnabled())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("MAX_PER_PAGE=50\n"), 0o600))
	t.Setenv("MAX_PER_PAGE", "")
	require.NoError(t, os.Unsetenv("MAX_PER_PAGE"))

	cfg, err := Load(file, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Listing.MaxPerPage)
}

func TestValidate(t *testing.T) {
	base := func() Server {
		return Server{
			ShutdownTimeout: time.Second,
			Log:             LogConfig{Level: "info", Format: "json"},
			Storage:         StorageConfig{Driver: StorageMemory},
			Database:        DatabaseConfig{Driver: DriverPgx},
			Audit:           AuditConfig{Sink: AuditSlog},
			Listing:         ListingConfig{DefaultPerPage: 15, MaxPerPage: 100},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Server)
		want   string
	}{
		{name: "sql without url", mutate: func(c *Server) { c.Storage.Driver = StorageSQL }, want: "DATABASE_URL is required"},
		{name: "gorm on sqlite", mutate: func(c *Server) {
			c.Storage.Driver = StorageGorm
			c.Database.URL = "x"
			c.Database.Driver = DriverSQLite
		}, want: "requires DB_DRIVER=pgx"},
		{name: "unknown db driver", mutate: func(c *Server) { c.Database.Driver = "mysql" }, want: "DB_DRIVER must be one of"},
		{name: "unknown storage", mutate: func(c *Server) { c.Storage.Driver = "mongo" }, want: "STORAGE_DRIVER"},
		{name: "unknown audit sink", mutate: func(c *Server) { c.Audit.Sink = "syslog" }, want: "AUDIT_SINK"},
		{name: "per page above max", mutate: func(c *Server) { c.Listing.DefaultPerPage = 200 }, want: "DEFAULT_PER_PAGE"},
		{name: "bad log level", mutate: func(c *Server) { c.Log.Level = "trace" }, want: "LOG_LEVEL"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	require.NoError(t, base().Validate())
}
