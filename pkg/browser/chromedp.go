package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeDriver drives a locally installed Chrome over CDP.
type ChromeDriver struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc

	navigationTimeout time.Duration
	closeOnce         sync.Once
}

type chromeElement struct {
	loc  Locator
	node *cdp.Node
}

func (e *chromeElement) Locator() Locator { return e.loc }

// LaunchChrome starts Chrome and opens one tab. The browser lives until Quit
// or until parent is cancelled.
func LaunchChrome(parent context.Context, opts Options) (*ChromeDriver, error) {
	opts.applyDefaults()

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height),
	)
	if opts.ProxyServer != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyServer))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser process
	if err := chromedp.Run(ctx, network.Enable()); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &ChromeDriver{
		ctx:               ctx,
		cancel:            cancel,
		allocCancel:       allocCancel,
		navigationTimeout: opts.NavigationTimeout,
	}, nil
}

func (d *ChromeDriver) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// Navigate loads url and waits for the load event.
func (d *ChromeDriver) Navigate(url string) error {
	if err := d.run(d.navigationTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// CurrentURL returns the tab's current location.
func (d *ChromeDriver) CurrentURL() (string, error) {
	var u string
	err := d.run(DefaultQueryTimeout, chromedp.Location(&u))
	return u, err
}

// Title returns the document title.
func (d *ChromeDriver) Title() (string, error) {
	var t string
	err := d.run(DefaultQueryTimeout, chromedp.Title(&t))
	return t, err
}

// FindElement searches the DOM once for loc.
func (d *ChromeDriver) FindElement(loc Locator) (Element, error) {
	_, expr := loc.Split()
	var nodes []*cdp.Node
	err := d.run(DefaultQueryTimeout,
		chromedp.Nodes(expr, &nodes, chromedp.BySearch, chromedp.AtLeast(0)),
	)
	if err != nil {
		return nil, fmt.Errorf("selector query failed: %w", err)
	}
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	return &chromeElement{loc: loc, node: nodes[0]}, nil
}

func (d *ChromeDriver) node(el Element) (*cdp.Node, error) {
	ce, ok := el.(*chromeElement)
	if !ok {
		return nil, fmt.Errorf("element %q does not belong to this driver", el.Locator())
	}
	return ce.node, nil
}

// Clickable reports whether el has a layout box and no disabled attribute.
func (d *ChromeDriver) Clickable(el Element) (bool, error) {
	n, err := d.node(el)
	if err != nil {
		return false, err
	}
	if _, disabled := n.Attribute("disabled"); disabled {
		return false, nil
	}
	err = d.run(DefaultQueryTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx)
		return err
	}))
	// Elements without a box model are not rendered
	return err == nil, nil
}

// Click clicks the centre of el.
func (d *ChromeDriver) Click(el Element) error {
	n, err := d.node(el)
	if err != nil {
		return err
	}
	if err := d.run(DefaultQueryTimeout, chromedp.MouseClickNode(n)); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// SendKeys types text into el.
func (d *ChromeDriver) SendKeys(el Element, text string) error {
	n, err := d.node(el)
	if err != nil {
		return err
	}
	err = d.run(DefaultQueryTimeout,
		chromedp.SendKeys([]cdp.NodeID{n.NodeID}, text, chromedp.ByNodeID),
	)
	if err != nil {
		return fmt.Errorf("send keys failed: %w", err)
	}
	return nil
}

// Attribute reads name from el.
func (d *ChromeDriver) Attribute(el Element, name string) (string, error) {
	n, err := d.node(el)
	if err != nil {
		return "", err
	}
	ids := []cdp.NodeID{n.NodeID}

	var value string
	if name == "value" {
		err = d.run(DefaultQueryTimeout, chromedp.Value(ids, &value, chromedp.ByNodeID))
		return value, err
	}
	var ok bool
	err = d.run(DefaultQueryTimeout, chromedp.AttributeValue(ids, name, &value, &ok, chromedp.ByNodeID))
	return value, err
}

// AddCookie sets c in the browser.
func (d *ChromeDriver) AddCookie(c Cookie) error {
	path := c.Path
	if path == "" {
		path = "/"
	}
	return d.run(DefaultQueryTimeout, network.SetCookies([]*network.CookieParam{{
		Name:   c.Name,
		Value:  c.Value,
		Domain: c.Domain,
		Path:   path,
		Secure: c.Secure,
	}}))
}

// Screenshot writes a full-page PNG to path.
func (d *ChromeDriver) Screenshot(path string) error {
	var buf []byte
	if err := d.run(d.navigationTimeout, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	return os.WriteFile(path, buf, 0600)
}

// SetProxyAuthHeader installs header as Proxy-Authorization on every request.
func (d *ChromeDriver) SetProxyAuthHeader(header string) error {
	return d.run(DefaultQueryTimeout, network.SetExtraHTTPHeaders(network.Headers{
		"Proxy-Authorization": header,
	}))
}

// Quit closes the browser and releases the allocator. Safe to call multiple
// times.
func (d *ChromeDriver) Quit() error {
	var err error
	d.closeOnce.Do(func() {
		if cerr := chromedp.Cancel(d.ctx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = cerr
		}
		d.cancel()
		d.allocCancel()
	})
	return err
}
