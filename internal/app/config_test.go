package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "./data/betadesk.sqlite", cfg.Database.Path)
	require.Equal(t, "aes-256-gcm", cfg.Vault.Algorithm)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
	require.Equal(t, 15*time.Minute, cfg.Auth.JWT.TTL)
	require.Equal(t, 720*time.Hour, cfg.Auth.Session.RefreshTTL)
	require.Equal(t, 48, cfg.Auth.Session.RefreshLength)
	require.Equal(t, 5, cfg.Auth.Local.LockoutThreshold)
	require.Equal(t, 587, cfg.Email.SMTP.Port)
	require.Equal(t, "BetaDesk", cfg.Email.SendGrid.FromName)
	require.False(t, cfg.AI.Enabled)
	require.Equal(t, 30*time.Second, cfg.AI.Timeout)
	require.True(t, cfg.Maintenance.Enabled)
	require.Equal(t, "@hourly", cfg.Maintenance.Schedule)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("BETADESK_SERVER_PORT", "9100")
	t.Setenv("BETADESK_SERVER_LOG_LEVEL", "debug")
	t.Setenv("BETADESK_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("BETADESK_MAINTENANCE_SCHEDULE", "@daily")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9100, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, "env-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "@daily", cfg.Maintenance.Schedule)
}
