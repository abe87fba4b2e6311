package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveBaseURLPrefersConfigured(t *testing.T) {
	t.Setenv(platformURLEnv, "platform.example.com")

	cfg := &Config{}
	cfg.Server.BaseURL = "https://atelier.example.com/"

	base, err := ResolveBaseURL(cfg)
	require.NoError(t, err)
	require.Equal(t, "https://atelier.example.com", base)
}

func TestResolveBaseURLPlatformHost(t *testing.T) {
	t.Setenv(platformURLEnv, "deploy-abc123.platform.app")

	cfg := &Config{}
	base, err := ResolveBaseURL(cfg)
	require.NoError(t, err)
	require.Equal(t, "https://deploy-abc123.platform.app", base)
}

func TestResolveBaseURLLocalhostFallback(t *testing.T) {
	t.Setenv(platformURLEnv, "")

	cfg := &Config{}
	cfg.Server.Port = 8000

	base, err := ResolveBaseURL(cfg)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", base)
}

func TestResolveBaseURLProductionRequiresConfig(t *testing.T) {
	t.Setenv(platformURLEnv, "")

	cfg := &Config{}
	cfg.Server.Environment = "production"

	_, err := ResolveBaseURL(cfg)
	require.ErrorIs(t, err, ErrNoBaseURL)
}
