package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// platformURLEnv is set by hosting platforms that assign the deployment a
// public hostname.
const platformURLEnv = "PLATFORM_URL"

// ErrNoBaseURL is returned when no public base URL can be determined in
// production. Invite links must never point at localhost there.
var ErrNoBaseURL = errors.New("app: no public base URL configured")

// ResolveBaseURL determines the public URL invite links are built against:
// the configured base URL first, then the platform-provided host, then a
// localhost fallback outside production.
func ResolveBaseURL(cfg *Config) (string, error) {
	if cfg == nil {
		return "", errors.New("app: config is nil")
	}

	if base := strings.TrimSpace(cfg.Server.BaseURL); base != "" {
		return strings.TrimRight(base, "/"), nil
	}

	if host := strings.TrimSpace(os.Getenv(platformURLEnv)); host != "" {
		if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
			host = "https://" + host
		}
		return strings.TrimRight(host, "/"), nil
	}

	if cfg.Server.IsProduction() {
		return "", ErrNoBaseURL
	}

	return fmt.Sprintf("http://localhost:%d", cfg.Server.Port), nil
}
