package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "5 0 * * *", cfg.Jobs.InterestCron)
	assert.Equal(t, "15 0 * * *", cfg.Jobs.LoanChargesCron)
	assert.Equal(t, "0 7 * * *", cfg.Jobs.SalaryCron)
	assert.Equal(t, "0 2 * * *", cfg.Jobs.InactivityFeeCron)
	assert.True(t, cfg.Jobs.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.RedisAddr())
	assert.Equal(t, 30*time.Second, cfg.Monitoring.HealthCheckInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JOBS_ENABLED", "false")
	t.Setenv("JOBS_SALARY_CRON", "30 6 * * *")
	t.Setenv("DB_CONN_MAX_LIFETIME", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Jobs.Enabled)
	assert.Equal(t, "30 6 * * *", cfg.Jobs.SalaryCron)
	assert.Equal(t, time.Hour, cfg.Database.ConnMaxLifetime)
}

func TestLoadRejectsInvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}

func TestMalformedEnvValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("REDIS_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Redis.Timeout)
}
