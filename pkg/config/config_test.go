package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.Retention.SessionTTL)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Environment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("POSTGRES_DB", "insights")
	t.Setenv("SESSION_TTL", "36h")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN(), "dbname=insights")
	assert.Equal(t, 36*time.Hour, cfg.Retention.SessionTTL)
	assert.False(t, cfg.Observability.MetricsEnabled)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("BAD_INT", "abc")
	t.Setenv("BAD_DURATION", "soon")

	assert.Equal(t, 5, getEnvAsInt("BAD_INT", 5))
	assert.Equal(t, time.Minute, getEnvAsDuration("BAD_DURATION", time.Minute))
	assert.Equal(t, "x", getEnv("UNSET_KEY_FOR_TEST", "x"))
}
