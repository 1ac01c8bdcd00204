package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values. Secrets are expected to
// arrive this way rather than in the YAML document.
const (
	EnvProxyAPIKey  = "ONBOARD_PROXY_API_KEY"
	EnvSessionState = "ONBOARD_SESSION_STATE"
)

// Load reads a YAML run configuration from path on top of DefaultConfig,
// applies environment overrides and validates the result. An empty path
// yields the defaults plus environment overrides.
func Load(path string) (*RunConfig, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *RunConfig) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvProxyAPIKey); ok && v != "" {
		c.Proxy.APIKey = v
	}
	if v, ok := lookup(EnvSessionState); ok && v != "" {
		c.Session.StatePath = v
	}
}
