package app

import (
	"fmt"
	"strings"

	"github.com/atelierlabs/atelier/pkg/crypto"
)

const jwtSecretBytes = 48

// ApplyRuntimeDefaults fills critical secrets that were not configured.
// It returns which keys were generated so callers can log the event without
// exposing values. A generated JWT secret only works with the memory provider;
// the gotrue provider must share the real signing secret.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		secret, err := crypto.GenerateToken(jwtSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.Auth.JWT.Secret = secret
		generated["auth.jwt.secret"] = true
	}

	return generated, nil
}
