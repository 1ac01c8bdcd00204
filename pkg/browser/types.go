package browser

import (
	"errors"
	"strings"
	"time"
)

// Backend names accepted by Launch.
const (
	BackendPlaywright = "playwright"
	BackendChromedp   = "chromedp"
)

// Default values for browser sessions
const (
	DefaultNavigationTimeout = 60 * time.Second
	DefaultViewportWidth     = 1920
	DefaultViewportHeight    = 1080
	DefaultQueryTimeout      = 5 * time.Second
)

// ErrNotFound is returned by Driver.FindElement when no element matches.
var ErrNotFound = errors.New("element not found")

// Options configures a new browser session.
type Options struct {
	// Headless controls whether the browser runs without a visible window
	Headless bool

	// Viewport sets the initial viewport size
	Viewport *Viewport

	// NavigationTimeout bounds a single Navigate call (0 means default)
	NavigationTimeout time.Duration

	// ProxyServer routes all browser traffic through the given proxy URL
	ProxyServer string

	// ProxyUsername and ProxyPassword answer the proxy's auth challenge,
	// including the CONNECT for https targets (Playwright only)
	ProxyUsername string
	ProxyPassword string

	// SkipInstall skips the Playwright browser download step
	SkipInstall bool
}

// Viewport represents the browser viewport dimensions.
type Viewport struct {
	Width  int
	Height int
}

func (o *Options) applyDefaults() {
	if o.Viewport == nil {
		o.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if o.NavigationTimeout == 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
}

// Cookie is a single cookie record imported into the browser context.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
	Secure bool
}

// Locator selects an element using Playwright selector syntax.
type Locator string

// Locator engines.
const (
	EngineCSS   = "css"
	EngineXPath = "xpath"
)

// Split returns the selector engine and the bare expression.
func (l Locator) Split() (engine, expr string) {
	s := strings.TrimSpace(string(l))
	switch {
	case strings.HasPrefix(s, "xpath="):
		return EngineXPath, strings.TrimPrefix(s, "xpath=")
	case strings.HasPrefix(s, "css="):
		return EngineCSS, strings.TrimPrefix(s, "css=")
	case strings.HasPrefix(s, "//"), strings.HasPrefix(s, "(//"):
		return EngineXPath, s
	default:
		return EngineCSS, s
	}
}

// Playwright returns the locator in the form Playwright expects.
func (l Locator) Playwright() string {
	engine, expr := l.Split()
	if engine == EngineXPath {
		return "xpath=" + expr
	}
	return expr
}
