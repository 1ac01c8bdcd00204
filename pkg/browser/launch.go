package browser

import (
	"context"
	"fmt"
)

// Launch starts a driver for the named backend. An empty backend selects
// Playwright.
func Launch(ctx context.Context, backend string, opts Options) (Driver, error) {
	switch backend {
	case "", BackendPlaywright:
		return LaunchPlaywright(opts)
	case BackendChromedp:
		return LaunchChrome(ctx, opts)
	default:
		return nil, fmt.Errorf("unknown browser backend %q (must be %q or %q)", backend, BackendPlaywright, BackendChromedp)
	}
}
