package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Garrettc123/ueep-ha-system/internal/config"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, `
database:
  user: ueep_admin
  password: secret
  dbname: ueep_core
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "ueep-ha-system", cfg.App.Name)
	assert.Equal(t, config.EnvProduction, cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Breaker.Database.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Breaker.Database.RecoveryTimeout())
	assert.Equal(t, 5, cfg.Breaker.Cache.FailureThreshold)
	assert.Equal(t, 60*time.Second, cfg.Cache.TTL())
	assert.Equal(t, 15, cfg.Monitor.IntervalSeconds)
	assert.Equal(t, 100, cfg.Middleware.RateLimit)
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfigFile(t, `
app:
  name: ueep-ha-system
  environment: staging
server:
  port: "9090"
breaker:
  database:
    failure_threshold: 3
    recovery_timeout_seconds: 10
  cache:
    failure_threshold: 2
    recovery_timeout_seconds: 5
cache:
  ttl_seconds: 120
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.EnvStaging, cfg.App.Environment)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 3, cfg.Breaker.Database.FailureThreshold)
	assert.Equal(t, 10*time.Second, cfg.Breaker.Database.RecoveryTimeout())
	assert.Equal(t, 2, cfg.Breaker.Cache.FailureThreshold)
	assert.Equal(t, 120*time.Second, cfg.Cache.TTL())
}

func TestLoadConfig_InvalidBreaker(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "zero failure threshold",
			content: `
breaker:
  database:
    failure_threshold: 0
    recovery_timeout_seconds: 30
`,
		},
		{
			name: "negative recovery timeout",
			content: `
breaker:
  cache:
    failure_threshold: 5
    recovery_timeout_seconds: -1
`,
		},
		{
			name: "unknown environment",
			content: `
app:
  environment: canary
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)

			cfg, err := config.LoadConfig(path)
			require.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	dc := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "ueep_admin",
		Password: "secret",
		DBName:   "ueep_core",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=ueep_admin password=secret dbname=ueep_core sslmode=disable",
		dc.GetDSN())
}
