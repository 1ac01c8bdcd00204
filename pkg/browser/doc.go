// Package browser provides the browser automation primitives used by an
// onboarding run.
//
// The package is built around three concepts:
//
//  1. Driver: the narrow set of operations a run needs from a browser
//     (navigate, locate, click, type, read attributes, cookies, screenshots).
//  2. Condition: a predicate over the current page state, optionally
//     yielding the element it matched.
//  3. Poller: a poll-until-condition-or-timeout loop with bounded backoff and
//     an injectable Clock, so waits can be exercised without wall-clock delay.
//
// # Backends
//
// Two Driver implementations are available:
//
//   - PlaywrightDriver (default): Playwright's Chromium, installed on demand
//   - ChromeDriver: a locally installed Chrome driven over CDP via chromedp
//
// Use Launch to pick one by name.
//
// # Locators
//
// Locators use Playwright selector syntax. A locator prefixed with "xpath="
// or starting with "//" is an XPath expression; "css=" or a bare selector is
// CSS. Both backends accept the same locators.
//
// # Example Usage
//
//	drv, err := browser.Launch(ctx, browser.BackendPlaywright, browser.Options{
//	    Headless: true,
//	    Viewport: &browser.Viewport{Width: 1920, Height: 1080},
//	})
//	if err != nil {
//	    return err
//	}
//	defer drv.Quit()
//
//	poller := browser.NewPoller(browser.SystemClock, 250*time.Millisecond, 2*time.Second)
//	el, err := poller.WaitUntil(ctx, drv, browser.ElementClickable(`button[type="submit"]`), 15*time.Second)
package browser
