package browser

// Element is an opaque handle to a located element. It is only valid for the
// Driver that returned it.
type Element interface {
	// Locator returns the locator the element was found with.
	Locator() Locator
}

// Driver is the set of browser operations an onboarding run consumes.
//
// Methods are blocking and act on the driver's single page. FindElement never
// waits: it reports the page state at the time of the call and returns
// ErrNotFound when nothing matches. Waiting is done by a Poller on top of the
// Driver.
type Driver interface {
	// Navigate loads url in the current page.
	Navigate(url string) error

	// CurrentURL returns the page's current location.
	CurrentURL() (string, error)

	// Title returns the page title.
	Title() (string, error)

	// FindElement returns the first element matching loc.
	FindElement(loc Locator) (Element, error)

	// Clickable reports whether el is visible and enabled.
	Clickable(el Element) (bool, error)

	// Click clicks el.
	Click(el Element) error

	// SendKeys types text into el.
	SendKeys(el Element, text string) error

	// Attribute reads an attribute of el. The "value" attribute returns the
	// live input value rather than the markup default.
	Attribute(el Element, name string) (string, error)

	// AddCookie adds a cookie to the browser context.
	AddCookie(c Cookie) error

	// Screenshot writes a PNG of the current page to path.
	Screenshot(path string) error

	// SetProxyAuthHeader sends header as Proxy-Authorization on every request.
	SetProxyAuthHeader(header string) error

	// Quit releases the page, the browser and the driver process.
	Quit() error
}
