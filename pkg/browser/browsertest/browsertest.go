// Package browsertest provides a scripted in-memory browser.Driver and a fake
// clock for exercising waits and stage sequences without a real browser.
package browsertest

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/entrhq/onboard/pkg/browser"
)

// Element is a scripted element. It becomes present after its locator has
// been queried AppearAfter times.
type Element struct {
	Clickable   bool
	AppearAfter int
	Attrs       map[string]string

	queries int
}

type handle struct {
	loc browser.Locator
	el  *Element
}

func (h *handle) Locator() browser.Locator { return h.loc }

// Driver is a scripted browser.Driver.
type Driver struct {
	URL       string
	PageTitle string
	Elements  map[browser.Locator]*Element

	// OnNavigate runs after the location is set by Navigate.
	OnNavigate func(d *Driver, url string)
	// OnClick runs after an element is clicked.
	OnClick func(d *Driver, loc browser.Locator)

	// NavigateErr, when set, is returned by every Navigate call.
	NavigateErr error
	// TitleErr, when set, is returned by every Title call.
	TitleErr error

	Navigations []string
	Clicks      []browser.Locator
	Typed       map[browser.Locator]string
	Cookies     []browser.Cookie
	Screenshots []string
	ProxyHeader string
	QuitCalls   int
}

// NewDriver creates an empty driver positioned at about:blank.
func NewDriver() *Driver {
	return &Driver{
		URL:      "about:blank",
		Elements: make(map[browser.Locator]*Element),
		Typed:    make(map[browser.Locator]string),
	}
}

// Add registers a present, clickable element and returns it for tweaking.
func (d *Driver) Add(loc browser.Locator) *Element {
	el := &Element{Clickable: true, Attrs: map[string]string{}}
	d.Elements[loc] = el
	return el
}

func (d *Driver) Navigate(url string) error {
	if d.NavigateErr != nil {
		return d.NavigateErr
	}
	d.Navigations = append(d.Navigations, url)
	d.URL = url
	if d.OnNavigate != nil {
		d.OnNavigate(d, url)
	}
	return nil
}

func (d *Driver) CurrentURL() (string, error) { return d.URL, nil }

func (d *Driver) Title() (string, error) {
	if d.TitleErr != nil {
		return "", d.TitleErr
	}
	return d.PageTitle, nil
}

func (d *Driver) FindElement(loc browser.Locator) (browser.Element, error) {
	el, ok := d.Elements[loc]
	if !ok {
		return nil, browser.ErrNotFound
	}
	el.queries++
	if el.queries <= el.AppearAfter {
		return nil, browser.ErrNotFound
	}
	return &handle{loc: loc, el: el}, nil
}

func (d *Driver) element(el browser.Element) (*Element, error) {
	h, ok := el.(*handle)
	if !ok {
		return nil, errors.New("foreign element")
	}
	return h.el, nil
}

func (d *Driver) Clickable(el browser.Element) (bool, error) {
	e, err := d.element(el)
	if err != nil {
		return false, err
	}
	return e.Clickable, nil
}

func (d *Driver) Click(el browser.Element) error {
	if _, err := d.element(el); err != nil {
		return err
	}
	d.Clicks = append(d.Clicks, el.Locator())
	if d.OnClick != nil {
		d.OnClick(d, el.Locator())
	}
	return nil
}

func (d *Driver) SendKeys(el browser.Element, text string) error {
	if _, err := d.element(el); err != nil {
		return err
	}
	d.Typed[el.Locator()] += text
	return nil
}

func (d *Driver) Attribute(el browser.Element, name string) (string, error) {
	e, err := d.element(el)
	if err != nil {
		return "", err
	}
	return e.Attrs[name], nil
}

func (d *Driver) AddCookie(c browser.Cookie) error {
	d.Cookies = append(d.Cookies, c)
	return nil
}

// Screenshot records path and writes a placeholder file to it.
func (d *Driver) Screenshot(path string) error {
	d.Screenshots = append(d.Screenshots, path)
	return os.WriteFile(path, []byte("png"), 0600)
}

func (d *Driver) SetProxyAuthHeader(header string) error {
	d.ProxyHeader = header
	return nil
}

func (d *Driver) Quit() error {
	d.QuitCalls++
	return nil
}

// Clock is a fake browser.Clock whose Sleep advances time instantly.
type Clock struct {
	now   time.Time
	Slept []time.Duration
}

// NewClock creates a clock starting at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time { return c.now }

func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Slept = append(c.Slept, d)
	c.now = c.now.Add(d)
	return nil
}

// Elapsed returns the total time slept.
func (c *Clock) Elapsed() time.Duration {
	var total time.Duration
	for _, d := range c.Slept {
		total += d
	}
	return total
}
