package bootstrap

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/net/publicsuffix"

	"github.com/entrhq/onboard/pkg/browser"
)

// SessionLoadError reports a missing, unreadable or malformed session-state
// document.
type SessionLoadError struct {
	Path string
	Err  error
}

func (e *SessionLoadError) Error() string {
	return fmt.Sprintf("failed to load session state from %s: %v", e.Path, e.Err)
}

func (e *SessionLoadError) Unwrap() error {
	return e.Err
}

// SessionState is the set of cookies captured from an earlier identity
// provider login.
type SessionState struct {
	Cookies []browser.Cookie
}

// LoadSessionState reads the session-state document at path. The document
// must be a JSON object with a "cookies" array; each cookie needs a name.
// A missing path defaults to "/".
func LoadSessionState(path string) (*SessionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SessionLoadError{Path: path, Err: err}
	}

	state, err := ParseSessionState(data)
	if err != nil {
		return nil, &SessionLoadError{Path: path, Err: err}
	}
	return state, nil
}

// ParseSessionState decodes a session-state document.
func ParseSessionState(data []byte) (*SessionState, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("document is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("document must be an object")
	}

	list := root.Get("cookies")
	if !list.IsArray() {
		return nil, fmt.Errorf("document has no cookies list")
	}

	state := &SessionState{}
	for i, c := range list.Array() {
		if !c.IsObject() {
			return nil, fmt.Errorf("cookie %d is not an object", i)
		}
		name := c.Get("name")
		if name.Type != gjson.String || name.Str == "" {
			return nil, fmt.Errorf("cookie %d has no name", i)
		}

		path := c.Get("path").String()
		if path == "" {
			path = "/"
		}

		state.Cookies = append(state.Cookies, browser.Cookie{
			Name:   name.Str,
			Value:  c.Get("value").String(),
			Domain: c.Get("domain").String(),
			Path:   path,
			Secure: c.Get("secure").Bool(),
		})
	}
	return state, nil
}

// DomainSuffix returns the registrable domain of providerURL, for example
// "google.com" for "https://accounts.google.com".
func DomainSuffix(providerURL string) (string, error) {
	raw := providerURL
	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid provider url %q: %w", providerURL, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("no host in provider url %q", providerURL)
	}

	suffix, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(host))
	if err != nil {
		return "", fmt.Errorf("failed to derive cookie domain from %q: %w", providerURL, err)
	}
	return suffix, nil
}

// MatchesDomain reports whether a cookie domain belongs to suffix. A leading
// dot on either side is ignored.
func MatchesDomain(cookieDomain, suffix string) bool {
	d := strings.ToLower(strings.TrimPrefix(cookieDomain, "."))
	s := strings.ToLower(strings.TrimPrefix(suffix, "."))
	if d == "" || s == "" {
		return false
	}
	return d == s || strings.HasSuffix(d, "."+s)
}

// Filter returns the cookies belonging to suffix, in document order.
func (s *SessionState) Filter(suffix string) []browser.Cookie {
	var out []browser.Cookie
	for _, c := range s.Cookies {
		if MatchesDomain(c.Domain, suffix) {
			out = append(out, c)
		}
	}
	return out
}
