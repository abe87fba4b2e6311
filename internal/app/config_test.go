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
	require.Equal(t, "development", cfg.Server.Environment)
	require.False(t, cfg.Server.IsProduction())

	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "memory", cfg.Identity.Provider)
	require.Equal(t, 7*24*time.Hour, cfg.Invitations.TTL)
	require.Equal(t, 32, cfg.Invitations.TokenBytes)
	require.Equal(t, 30*24*time.Hour, cfg.Invitations.Retention)
	require.False(t, cfg.Storage.Enabled)
	require.EqualValues(t, 10<<20, cfg.Uploads.MaxSizeBytes)
	require.Equal(t, 30, cfg.RateLimit.PublicRequests)
	require.Equal(t, time.Minute, cfg.RateLimit.PublicWindow)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("ATELIER_SERVER_PORT", "9001")
	t.Setenv("ATELIER_SERVER_ENVIRONMENT", "production")
	t.Setenv("ATELIER_AUTH_SUPERADMIN_EMAIL", "admin@atelier.test")
	t.Setenv("ATELIER_IDENTITY_PROVIDER", "gotrue")
	t.Setenv("ATELIER_INVITATIONS_TTL", "48h")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 9001, cfg.Server.Port)
	require.True(t, cfg.Server.IsProduction())
	require.Equal(t, "admin@atelier.test", cfg.Auth.SuperadminEmail)
	require.Equal(t, "gotrue", cfg.Identity.Provider)
	require.Equal(t, 48*time.Hour, cfg.Invitations.TTL)
}

func TestApplyRuntimeDefaultsGeneratesJWTSecret(t *testing.T) {
	cfg := &Config{}

	generated, err := ApplyRuntimeDefaults(cfg)
	require.NoError(t, err)
	require.True(t, generated["auth.jwt.secret"])
	require.NotEmpty(t, cfg.Auth.JWT.Secret)

	// A configured secret is left alone.
	cfg2 := &Config{}
	cfg2.Auth.JWT.Secret = "configured"
	generated, err = ApplyRuntimeDefaults(cfg2)
	require.NoError(t, err)
	require.False(t, generated["auth.jwt.secret"])
	require.Equal(t, "configured", cfg2.Auth.JWT.Secret)
}
