package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "storepos", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, "0.1", cfg.POS.TaxRate.String())
		assert.Equal(t, 10, cfg.POS.LowStockThreshold)
		assert.Equal(t, MissPolicySingle, cfg.Catalog.MissPolicy)
		assert.Equal(t, 100, cfg.Catalog.PageSize)
		assert.Equal(t, 2*time.Minute, cfg.Catalog.FetchTimeout)
		assert.Equal(t, 10*time.Second, cfg.Upstream.Timeout)
		assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
		assert.True(t, cfg.Sync.Enabled)
		assert.True(t, cfg.Sync.PushOnCheckout)
		assert.False(t, cfg.Upstream.IsConfigured())
		assert.Equal(t, 5, cfg.HTTP.LoginAttempts)
		assert.Equal(t, time.Minute, cfg.HTTP.LoginWindow)
	})

	t.Run("login throttle can be tuned or disabled", func(t *testing.T) {
		t.Setenv("POS_HTTP_LOGIN_ATTEMPTS", "0")
		t.Setenv("POS_HTTP_LOGIN_WINDOW", "30s")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 0, cfg.HTTP.LoginAttempts)
		assert.Equal(t, 30*time.Second, cfg.HTTP.LoginWindow)
	})

	t.Run("loads values from environment variables with POS prefix", func(t *testing.T) {
		t.Setenv("POS_APP_PORT", "9000")
		t.Setenv("POS_DATABASE_DRIVER", "postgres")
		t.Setenv("POS_DATABASE_HOST", "testdb.local")
		t.Setenv("POS_DATABASE_PORT", "5433")
		t.Setenv("POS_UPSTREAM_STORE_URL", "https://shop.example.com/")
		t.Setenv("POS_UPSTREAM_CONSUMER_KEY", "ck_123")
		t.Setenv("POS_UPSTREAM_CONSUMER_SECRET", "cs_456")
		t.Setenv("POS_UPSTREAM_TIMEOUT", "3s")
		t.Setenv("POS_POS_TAX_RATE", "0.08")
		t.Setenv("POS_CATALOG_MISS_POLICY", "BULK")
		t.Setenv("POS_SYNC_PUSH_ON_CHECKOUT", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "https://shop.example.com", cfg.Upstream.StoreURL)
		assert.True(t, cfg.Upstream.IsConfigured())
		assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
		assert.Equal(t, "0.08", cfg.POS.TaxRate.String())
		assert.Equal(t, MissPolicyBulk, cfg.Catalog.MissPolicy)
		assert.False(t, cfg.Sync.PushOnCheckout)
	})

	t.Run("rejects unknown miss policy", func(t *testing.T) {
		t.Setenv("POS_CATALOG_MISS_POLICY", "sometimes")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "catalog.miss_policy")
	})

	t.Run("rejects tax rate outside 0..1", func(t *testing.T) {
		t.Setenv("POS_POS_TAX_RATE", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "pos.tax_rate")
	})

	t.Run("rejects plain http store without allow_insecure", func(t *testing.T) {
		t.Setenv("POS_UPSTREAM_STORE_URL", "http://shop.local")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "https")
	})

	t.Run("accepts plain http store with allow_insecure", func(t *testing.T) {
		t.Setenv("POS_UPSTREAM_STORE_URL", "http://shop.local")
		t.Setenv("POS_UPSTREAM_ALLOW_INSECURE", "true")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "http://shop.local", cfg.Upstream.StoreURL)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		t.Setenv("POS_DATABASE_MAX_OPEN_CONNS", "10")
		t.Setenv("POS_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("POS_APP_ENV", "production")
		t.Setenv("POS_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("POS_DATABASE_DRIVER", "postgres")
		t.Setenv("POS_DATABASE_SSLMODE", "require")
	}

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("requires long jwt secret", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("POS_JWT_SECRET", "short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret")
	})

	t.Run("forbids memory driver", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("POS_DATABASE_DRIVER", "memory")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "memory")
	})

	t.Run("forbids insecure upstream", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("POS_UPSTREAM_ALLOW_INSECURE", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allow_insecure")
	})
}

func TestLoad_ReadsUsersFromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[app]
name = "corner-shop"

[[auth.users]]
id = "u1"
username = "ana"
display_name = "Ana"
role = "cashier"
password_hash = "$2a$10$abcdefghijklmnopqrstuu"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "corner-shop", cfg.App.Name)
	require.Len(t, cfg.Auth.Users, 1)
	assert.Equal(t, "ana", cfg.Auth.Users[0].Username)
	assert.Equal(t, "cashier", cfg.Auth.Users[0].Role)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "pos", Password: "p@ss word", DBName: "storepos", SSLMode: "require"}
	assert.Equal(t, "postgres://pos:p%40ss%20word@db:5432/storepos?sslmode=require", d.DSN())
}
