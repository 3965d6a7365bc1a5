package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"BILLING_APP_NAME",
	"BILLING_APP_ENV",
	"BILLING_APP_PORT",
	"BILLING_DATABASE_DRIVER",
	"BILLING_DATABASE_HOST",
	"BILLING_DATABASE_PORT",
	"BILLING_DATABASE_PASSWORD",
	"BILLING_DATABASE_SSLMODE",
	"BILLING_DATABASE_SQLITE_PATH",
	"BILLING_DATABASE_MAX_OPEN_CONNS",
	"BILLING_DATABASE_MAX_IDLE_CONNS",
	"BILLING_REDIS_HOST",
	"BILLING_BILLING_LIST_LIMIT",
	"BILLING_BILLING_IDEMPOTENCY_TTL",
	"BILLING_TELEMETRY_SAMPLING_RATIO",
}

// clearEnv blanks every variable Load reads; viper treats empty values as unset
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configEnvKeys {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "invoicing-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 200, cfg.Billing.ListLimit)
		assert.Equal(t, 24*time.Hour, cfg.Billing.IdempotencyTTL)
		assert.False(t, cfg.Billing.AllowStaffManagement)
		assert.Empty(t, cfg.Redis.Addr())
	})

	t.Run("loads values from environment variables with BILLING prefix", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BILLING_APP_NAME", "billing-test")
		t.Setenv("BILLING_DATABASE_DRIVER", "sqlite")
		t.Setenv("BILLING_DATABASE_SQLITE_PATH", "/tmp/billing.db")
		t.Setenv("BILLING_REDIS_HOST", "cache.local")
		t.Setenv("BILLING_BILLING_LIST_LIMIT", "50")
		t.Setenv("BILLING_BILLING_IDEMPOTENCY_TTL", "1h")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "billing-test", cfg.App.Name)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, "/tmp/billing.db", cfg.Database.DSN())
		assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
		assert.Equal(t, 50, cfg.Billing.ListLimit)
		assert.Equal(t, time.Hour, cfg.Billing.IdempotencyTTL)
	})

	t.Run("rejects unknown driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BILLING_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BILLING_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("BILLING_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("production requires password and ssl", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BILLING_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")

		t.Setenv("BILLING_DATABASE_PASSWORD", "secret")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sslmode")

		t.Setenv("BILLING_DATABASE_SSLMODE", "require")
		_, err = Load()
		assert.NoError(t, err)
	})

	t.Run("rejects sampling ratio above one", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BILLING_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sampling_ratio")
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Driver:   DriverPostgres,
		Host:     "db",
		Port:     5432,
		User:     "billing",
		Password: "p@ss word",
		DBName:   "invoicing",
		SSLMode:  "disable",
	}

	assert.Equal(t, "postgres://billing:p%40ss%20word@db:5432/invoicing?sslmode=disable", cfg.DSN())
}
