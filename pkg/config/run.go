package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"
)

// RunConfig is the complete, immutable configuration of one onboarding run.
// It is created once at process start and only read afterwards.
type RunConfig struct {
	Profile   ProfileConfig  `yaml:"profile"`
	Proxy     ProxyConfig    `yaml:"proxy"`
	Session   SessionConfig  `yaml:"session"`
	Target    TargetConfig   `yaml:"target"`
	Selectors SelectorConfig `yaml:"selectors"`
	Timing    TimingConfig   `yaml:"timing"`
	Browser   BrowserConfig  `yaml:"browser"`
	Output    OutputConfig   `yaml:"output"`
	Logging   LoggingConfig  `yaml:"logging"`
}

// ProfileConfig holds the identity fields entered into the profile form.
type ProfileConfig struct {
	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	Organization string `yaml:"organization"`
	Phone        string `yaml:"phone"`
}

// ProxyConfig defines the outbound proxy and its credentials.
type ProxyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Server  string `yaml:"server"`
	User    string `yaml:"user"`
	APIKey  string `yaml:"api_key"`
}

// SessionConfig locates the captured identity-provider session state.
type SessionConfig struct {
	StatePath   string `yaml:"state_path"`
	ProviderURL string `yaml:"provider_url"`
	// CookieDomain overrides the domain suffix derived from ProviderURL
	CookieDomain string `yaml:"cookie_domain"`
}

// TargetConfig describes the application being onboarded to.
type TargetConfig struct {
	SignupURL string `yaml:"signup_url"`
	TokensURL string `yaml:"tokens_url"`
	// Domain is the host whose appearance in the location signals the OAuth
	// handoff has completed
	Domain string `yaml:"domain"`
	// URLPattern, when set, replaces Domain with a glob over the location
	URLPattern      string `yaml:"url_pattern"`
	ChallengeMarker string `yaml:"challenge_marker"`
	ChallengeTitle  string `yaml:"challenge_title"`
}

// SelectorConfig holds the locators used by each stage.
type SelectorConfig struct {
	SSOCandidates []string `yaml:"sso_candidates"`

	FirstName    string `yaml:"first_name"`
	LastName     string `yaml:"last_name"`
	Organization string `yaml:"organization"`
	Phone        string `yaml:"phone"`
	Submit       string `yaml:"submit"`

	CreateToken string `yaml:"create_token"`
	UseTemplate string `yaml:"use_template"`
	Continue    string `yaml:"continue"`
	Confirm     string `yaml:"confirm"`
	TokenField  string `yaml:"token_field"`
}

// TimingConfig bounds every wait in the run.
type TimingConfig struct {
	ProviderSettle     time.Duration `yaml:"provider_settle"`
	ChallengeWait      time.Duration `yaml:"challenge_wait"`
	ChallengeExtraWait time.Duration `yaml:"challenge_extra_wait"`
	SSOTimeout         time.Duration `yaml:"sso_timeout"`
	OAuthSettle        time.Duration `yaml:"oauth_settle"`
	OAuthTimeout       time.Duration `yaml:"oauth_timeout"`
	ProfileTimeout     time.Duration `yaml:"profile_timeout"`
	ProfileSettle      time.Duration `yaml:"profile_settle"`
	PageSettle         time.Duration `yaml:"page_settle"`
	ClickTimeout       time.Duration `yaml:"click_timeout"`
	ClickSettle        time.Duration `yaml:"click_settle"`
	TokenSettle        time.Duration `yaml:"token_settle"`
	TokenTimeout       time.Duration `yaml:"token_timeout"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	PollMaxInterval    time.Duration `yaml:"poll_max_interval"`
}

// BrowserConfig selects and shapes the browser backend.
type BrowserConfig struct {
	Backend           string        `yaml:"backend"`
	Headless          bool          `yaml:"headless"`
	ViewportWidth     int           `yaml:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	SkipInstall       bool          `yaml:"skip_install"`
}

// OutputConfig defines where artifacts and diagnostics are written.
type OutputConfig struct {
	Dir           string `yaml:"dir"`
	AccountIDFile string `yaml:"account_id_file"`
	TokenFile     string `yaml:"token_file"`
	Summary       bool   `yaml:"summary"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls console output: quiet, normal, verbose, debug
	Verbosity  string `yaml:"verbosity"`
	// File overrides the default run log location
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Validate validates the configuration
func (c *RunConfig) Validate() error {
	p := c.Profile
	if p.FirstName == "" || p.LastName == "" || p.Organization == "" || p.Phone == "" {
		return fmt.Errorf("profile requires first_name, last_name, organization and phone")
	}

	if c.Session.StatePath == "" {
		return fmt.Errorf("session.state_path is required")
	}

	for name, raw := range map[string]string{
		"session.provider_url": c.Session.ProviderURL,
		"target.signup_url":    c.Target.SignupURL,
		"target.tokens_url":    c.Target.TokensURL,
	} {
		if err := validateURL(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if c.Target.Domain == "" && c.Target.URLPattern == "" {
		return fmt.Errorf("target.domain or target.url_pattern is required")
	}

	if c.Proxy.Enabled {
		if c.Proxy.APIKey == "" {
			return fmt.Errorf("proxy.api_key is required when the proxy is enabled")
		}
		if err := validateURL(c.Proxy.Server); err != nil {
			return fmt.Errorf("invalid proxy.server: %w", err)
		}
	}

	if len(c.Selectors.SSOCandidates) == 0 {
		return fmt.Errorf("selectors.sso_candidates must list at least one locator")
	}

	for name, d := range map[string]time.Duration{
		"challenge_wait":  c.Timing.ChallengeWait,
		"sso_timeout":     c.Timing.SSOTimeout,
		"oauth_timeout":   c.Timing.OAuthTimeout,
		"profile_timeout": c.Timing.ProfileTimeout,
		"click_timeout":   c.Timing.ClickTimeout,
		"token_timeout":   c.Timing.TokenTimeout,
		"poll_interval":   c.Timing.PollInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("timing.%s must be positive", name)
		}
	}

	for name, d := range map[string]time.Duration{
		"provider_settle":      c.Timing.ProviderSettle,
		"challenge_extra_wait": c.Timing.ChallengeExtraWait,
		"oauth_settle":         c.Timing.OAuthSettle,
		"profile_settle":       c.Timing.ProfileSettle,
		"page_settle":          c.Timing.PageSettle,
		"click_settle":         c.Timing.ClickSettle,
		"token_settle":         c.Timing.TokenSettle,
	} {
		if d < 0 {
			return fmt.Errorf("timing.%s cannot be negative", name)
		}
	}

	switch c.Browser.Backend {
	case "playwright", "chromedp":
	default:
		return fmt.Errorf("invalid browser.backend: %s (must be 'playwright' or 'chromedp')", c.Browser.Backend)
	}

	if c.Output.Dir == "" || c.Output.AccountIDFile == "" || c.Output.TokenFile == "" {
		return fmt.Errorf("output.dir, output.account_id_file and output.token_file are required")
	}
	for name, file := range map[string]string{
		"output.account_id_file": c.Output.AccountIDFile,
		"output.token_file":      c.Output.TokenFile,
	} {
		// Artifact files must stay inside output.dir
		if filepath.Base(file) != file || file == "." || file == ".." {
			return fmt.Errorf("%s must be a plain file name, got %q", name, file)
		}
	}
	if c.Output.AccountIDFile == c.Output.TokenFile {
		return fmt.Errorf("output.account_id_file and output.token_file must differ")
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}

// DefaultConfig returns a configuration with every selector, timing and
// output default filled in. Profile fields and the session state path are
// left empty.
func DefaultConfig() *RunConfig {
	return &RunConfig{
		Proxy: ProxyConfig{
			Server: "http://proxy-server.scraperapi.com:8001",
			User:   "scraperapi",
		},
		Session: SessionConfig{
			ProviderURL: "https://accounts.google.com",
		},
		Target: TargetConfig{
			SignupURL:       "https://dash.cloudflare.com/sign-up",
			TokensURL:       "https://dash.cloudflare.com/profile/api-tokens",
			Domain:          "dash.cloudflare.com",
			ChallengeMarker: "challenge",
			ChallengeTitle:  "Just a moment",
		},
		Selectors: SelectorConfig{
			SSOCandidates: []string{
				"xpath=//button[contains(., 'Google')]",
				"xpath=//a[contains(., 'Google')]",
			},
			FirstName:    `[name="firstName"]`,
			LastName:     `[name="lastName"]`,
			Organization: `[name="company"]`,
			Phone:        `[name="phone"]`,
			Submit:       `button[type="submit"]`,
			CreateToken:  "xpath=//button[contains(., 'Create Token')]",
			UseTemplate:  "xpath=//button[contains(., 'Use template')]",
			Continue:     "xpath=//button[contains(., 'Continue')]",
			Confirm:      "xpath=//button[contains(., 'Create Token')]",
			TokenField:   "input[readonly]",
		},
		Timing: TimingConfig{
			ProviderSettle:     2 * time.Second,
			ChallengeWait:      20 * time.Second,
			ChallengeExtraWait: 30 * time.Second,
			SSOTimeout:         15 * time.Second,
			OAuthSettle:        8 * time.Second,
			OAuthTimeout:       30 * time.Second,
			ProfileTimeout:     10 * time.Second,
			ProfileSettle:      3 * time.Second,
			PageSettle:         3 * time.Second,
			ClickTimeout:       15 * time.Second,
			ClickSettle:        2 * time.Second,
			TokenSettle:        4 * time.Second,
			TokenTimeout:       15 * time.Second,
			PollInterval:       250 * time.Millisecond,
			PollMaxInterval:    2 * time.Second,
		},
		Browser: BrowserConfig{
			Backend:           "playwright",
			Headless:          true,
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			NavigationTimeout: 60 * time.Second,
		},
		Output: OutputConfig{
			Dir:           "/tmp/onboard",
			AccountIDFile: "account-id.txt",
			TokenFile:     "api-token.txt",
			Summary:       true,
		},
		Logging: LoggingConfig{
			Verbosity:  "normal",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}
