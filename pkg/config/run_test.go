package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *RunConfig {
	cfg := DefaultConfig()
	cfg.Profile = ProfileConfig{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Organization: "Analytical Engines",
		Phone:        "+44 20 7946 0000",
	}
	cfg.Session.StatePath = "/tmp/state.json"
	return cfg
}

func TestRunConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *RunConfig)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *RunConfig) {},
		},
		{
			name:    "missing profile field",
			mutate:  func(c *RunConfig) { c.Profile.Phone = "" },
			wantErr: "profile requires",
		},
		{
			name:    "missing session state",
			mutate:  func(c *RunConfig) { c.Session.StatePath = "" },
			wantErr: "session.state_path",
		},
		{
			name:    "relative signup url",
			mutate:  func(c *RunConfig) { c.Target.SignupURL = "/sign-up" },
			wantErr: "target.signup_url",
		},
		{
			name: "no handoff signal",
			mutate: func(c *RunConfig) {
				c.Target.Domain = ""
				c.Target.URLPattern = ""
			},
			wantErr: "target.domain or target.url_pattern",
		},
		{
			name:    "proxy without key",
			mutate:  func(c *RunConfig) { c.Proxy.Enabled = true },
			wantErr: "proxy.api_key",
		},
		{
			name: "proxy with key",
			mutate: func(c *RunConfig) {
				c.Proxy.Enabled = true
				c.Proxy.APIKey = "k"
			},
		},
		{
			name:    "no sso candidates",
			mutate:  func(c *RunConfig) { c.Selectors.SSOCandidates = nil },
			wantErr: "sso_candidates",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *RunConfig) { c.Timing.ClickTimeout = 0 },
			wantErr: "timing.click_timeout must be positive",
		},
		{
			name:    "negative settle",
			mutate:  func(c *RunConfig) { c.Timing.PageSettle = -time.Second },
			wantErr: "timing.page_settle cannot be negative",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *RunConfig) { c.Browser.Backend = "selenium" },
			wantErr: "invalid browser.backend",
		},
		{
			name:    "invalid verbosity",
			mutate:  func(c *RunConfig) { c.Logging.Verbosity = "loud" },
			wantErr: "invalid logging verbosity",
		},
		{
			name:    "artifact file escapes output dir",
			mutate:  func(c *RunConfig) { c.Output.TokenFile = "../token.txt" },
			wantErr: "output.token_file must be a plain file name",
		},
		{
			name: "artifact files collide",
			mutate: func(c *RunConfig) {
				c.Output.TokenFile = "out.txt"
				c.Output.AccountIDFile = "out.txt"
			},
			wantErr: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunConfig_Validate_DefaultsVerbosity(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Verbosity = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "normal", cfg.Logging.Verbosity)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "playwright", cfg.Browser.Backend)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 20*time.Second, cfg.Timing.ChallengeWait)
	assert.Equal(t, 30*time.Second, cfg.Timing.ChallengeExtraWait)
	assert.Len(t, cfg.Selectors.SSOCandidates, 2)
	assert.False(t, cfg.Proxy.Enabled)

	// Profile and session are deliberately empty
	assert.Error(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "onboard.yaml")
	doc := `
profile:
  first_name: Ada
  last_name: Lovelace
  organization: Analytical Engines
  phone: "+44 20 7946 0000"
session:
  state_path: /data/state.json
target:
  signup_url: https://dash.example.com/sign-up
  tokens_url: https://dash.example.com/profile/api-tokens
  domain: dash.example.com
timing:
  challenge_wait: 5s
  oauth_timeout: 1m
browser:
  backend: chromedp
  headless: false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Ada", cfg.Profile.FirstName)
	assert.Equal(t, "dash.example.com", cfg.Target.Domain)
	assert.Equal(t, 5*time.Second, cfg.Timing.ChallengeWait)
	assert.Equal(t, time.Minute, cfg.Timing.OAuthTimeout)
	assert.Equal(t, "chromedp", cfg.Browser.Backend)
	assert.False(t, cfg.Browser.Headless)

	// Unset keys keep their defaults
	assert.Equal(t, 30*time.Second, cfg.Timing.ChallengeExtraWait)
	assert.Equal(t, "api-token.txt", cfg.Output.TokenFile)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "onboard.yaml")
	doc := `
profile:
  first_name: Ada
  last_name: Lovelace
  organization: Analytical Engines
  phone: "1"
proxy:
  enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	t.Setenv(EnvProxyAPIKey, "secret-key")
	t.Setenv(EnvSessionState, "/env/state.json")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-key", cfg.Proxy.APIKey)
	assert.Equal(t, "/env/state.json", cfg.Session.StatePath)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("profile: [unclosed"), 0600))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")

	incomplete := filepath.Join(dir, "incomplete.yaml")
	require.NoError(t, os.WriteFile(incomplete, []byte("browser:\n  headless: true\n"), 0600))
	_, err = Load(incomplete)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}
