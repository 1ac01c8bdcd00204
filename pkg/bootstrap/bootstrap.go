// Package bootstrap seeds a fresh browser session with identity-provider
// cookies captured from an earlier login.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/entrhq/onboard/pkg/browser"
	"github.com/entrhq/onboard/pkg/config"
	"github.com/entrhq/onboard/pkg/logging"
)

// Bootstrapper imports session state into a browser.
type Bootstrapper struct {
	driver      browser.Driver
	poller      *browser.Poller
	providerURL string
	suffix      string
	settle      time.Duration
	logger      *logging.Logger
}

// New creates a bootstrapper for cfg. The cookie domain suffix comes from
// session.cookie_domain when set, otherwise from the provider URL.
func New(d browser.Driver, poller *browser.Poller, cfg *config.RunConfig, logger *logging.Logger) (*Bootstrapper, error) {
	suffix := cfg.Session.CookieDomain
	if suffix == "" {
		var err error
		suffix, err = DomainSuffix(cfg.Session.ProviderURL)
		if err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Bootstrapper{
		driver:      d,
		poller:      poller,
		providerURL: cfg.Session.ProviderURL,
		suffix:      suffix,
		settle:      cfg.Timing.ProviderSettle,
		logger:      logger,
	}, nil
}

// Suffix returns the cookie domain suffix in use.
func (b *Bootstrapper) Suffix() string {
	return b.suffix
}

// Run loads the session state at path, opens the provider so its origin is
// current, and adds every cookie matching the provider domain. It returns the
// number of cookies imported. There is no retry.
func (b *Bootstrapper) Run(ctx context.Context, path string) (int, error) {
	state, err := LoadSessionState(path)
	if err != nil {
		return 0, err
	}

	if err := b.driver.Navigate(b.providerURL); err != nil {
		return 0, fmt.Errorf("failed to open identity provider: %w", err)
	}
	if err := b.poller.Idle(ctx, b.settle); err != nil {
		return 0, err
	}

	matching := state.Filter(b.suffix)
	for _, c := range matching {
		if err := b.driver.AddCookie(c); err != nil {
			return 0, fmt.Errorf("failed to add cookie %s: %w", c.Name, err)
		}
	}

	b.logger.Info("Imported session cookies",
		zap.Int("imported", len(matching)),
		zap.Int("discarded", len(state.Cookies)-len(matching)),
		zap.String("domain_suffix", b.suffix),
	)
	return len(matching), nil
}
