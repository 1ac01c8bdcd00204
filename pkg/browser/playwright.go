package browser

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver drives a single Chromium page through Playwright.
type PlaywrightDriver struct {
	playwright *playwright.Playwright
	browser    playwright.Browser
	context    playwright.BrowserContext
	page       playwright.Page

	navigationTimeout float64
	closeOnce         sync.Once
}

type playwrightElement struct {
	loc    Locator
	handle playwright.ElementHandle
}

func (e *playwrightElement) Locator() Locator { return e.loc }

// LaunchPlaywright installs (unless skipped) and starts Playwright, then
// launches Chromium with one context and one page.
func LaunchPlaywright(opts Options) (*PlaywrightDriver, error) {
	opts.applyDefaults()

	// Discard driver output so it does not interleave with run progress
	runOpts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if !opts.SkipInstall {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage"},
	}
	if opts.ProxyServer != "" {
		launchOpts.Proxy = &playwright.Proxy{Server: opts.ProxyServer}
		if opts.ProxyUsername != "" || opts.ProxyPassword != "" {
			launchOpts.Proxy.Username = playwright.String(opts.ProxyUsername)
			launchOpts.Proxy.Password = playwright.String(opts.ProxyPassword)
		}
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  opts.Viewport.Width,
			Height: opts.Viewport.Height,
		},
	})
	if err != nil {
		browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	timeout := float64(opts.NavigationTimeout.Milliseconds())
	page.SetDefaultNavigationTimeout(timeout)

	return &PlaywrightDriver{
		playwright:        pw,
		browser:           browser,
		context:           context,
		page:              page,
		navigationTimeout: timeout,
	}, nil
}

// Navigate loads url and waits for DOMContentLoaded.
func (d *PlaywrightDriver) Navigate(url string) error {
	waitUntil := playwright.WaitUntilState("domcontentloaded")
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: &waitUntil,
		Timeout:   &d.navigationTimeout,
	})
	if err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// CurrentURL returns the page URL.
func (d *PlaywrightDriver) CurrentURL() (string, error) {
	return d.page.URL(), nil
}

// Title returns the page title.
func (d *PlaywrightDriver) Title() (string, error) {
	return d.page.Title()
}

// FindElement queries the page once for loc.
func (d *PlaywrightDriver) FindElement(loc Locator) (Element, error) {
	handle, err := d.page.QuerySelector(loc.Playwright())
	if err != nil {
		return nil, fmt.Errorf("selector query failed: %w", err)
	}
	if handle == nil {
		return nil, ErrNotFound
	}
	return &playwrightElement{loc: loc, handle: handle}, nil
}

func (d *PlaywrightDriver) handle(el Element) (playwright.ElementHandle, error) {
	pe, ok := el.(*playwrightElement)
	if !ok {
		return nil, fmt.Errorf("element %q does not belong to this driver", el.Locator())
	}
	return pe.handle, nil
}

// Clickable reports whether el is visible and enabled.
func (d *PlaywrightDriver) Clickable(el Element) (bool, error) {
	h, err := d.handle(el)
	if err != nil {
		return false, err
	}
	visible, err := h.IsVisible()
	if err != nil || !visible {
		return false, err
	}
	return h.IsEnabled()
}

// Click clicks el.
func (d *PlaywrightDriver) Click(el Element) error {
	h, err := d.handle(el)
	if err != nil {
		return err
	}
	if err := h.Click(); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// SendKeys fills el with text.
func (d *PlaywrightDriver) SendKeys(el Element, text string) error {
	h, err := d.handle(el)
	if err != nil {
		return err
	}
	if err := h.Fill(text); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// Attribute reads name from el.
func (d *PlaywrightDriver) Attribute(el Element, name string) (string, error) {
	h, err := d.handle(el)
	if err != nil {
		return "", err
	}
	if name == "value" {
		return h.InputValue()
	}
	return h.GetAttribute(name)
}

// AddCookie adds c to the browser context.
func (d *PlaywrightDriver) AddCookie(c Cookie) error {
	path := c.Path
	if path == "" {
		path = "/"
	}
	return d.context.AddCookies([]playwright.OptionalCookie{{
		Name:   c.Name,
		Value:  c.Value,
		Domain: playwright.String(c.Domain),
		Path:   playwright.String(path),
		Secure: playwright.Bool(c.Secure),
	}})
}

// Screenshot writes a full-page PNG to path.
func (d *PlaywrightDriver) Screenshot(path string) error {
	_, err := d.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return nil
}

// SetProxyAuthHeader installs header as Proxy-Authorization on the context.
func (d *PlaywrightDriver) SetProxyAuthHeader(header string) error {
	return d.context.SetExtraHTTPHeaders(map[string]string{
		"Proxy-Authorization": header,
	})
}

// Quit closes the page, context and browser and stops Playwright. Safe to
// call multiple times.
func (d *PlaywrightDriver) Quit() error {
	var errs []error
	d.closeOnce.Do(func() {
		if err := d.page.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := d.context.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := d.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := d.playwright.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	})
	return errors.Join(errs...)
}
