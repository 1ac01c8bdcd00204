// Package proxy configures the authenticating HTTP proxy that browser traffic
// is routed through.
package proxy

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/entrhq/onboard/pkg/browser"
)

// ErrMissingAPIKey is returned when an enabled proxy has no API key.
var ErrMissingAPIKey = errors.New("proxy API key is required")

// Credentials identify the proxy account.
type Credentials struct {
	Server string
	User   string
	APIKey string
}

// Password returns the password slot value. The provider expects the key
// there as "api_key=<key>".
func (c Credentials) Password() (string, error) {
	if c.APIKey == "" {
		return "", ErrMissingAPIKey
	}
	return "api_key=" + c.APIKey, nil
}

// AuthHeader returns the Proxy-Authorization header value.
func (c Credentials) AuthHeader() (string, error) {
	password, err := c.Password()
	if err != nil {
		return "", err
	}
	raw := c.User + ":" + password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// Apply sets the proxy server and its login on opts so the browser can
// answer the proxy's challenge at launch.
func Apply(opts *browser.Options, c Credentials) error {
	password, err := c.Password()
	if err != nil {
		return err
	}
	opts.ProxyServer = c.Server
	opts.ProxyUsername = c.User
	opts.ProxyPassword = password
	return nil
}

// Install attaches the proxy authorization header to every request the
// driver makes.
func Install(d browser.Driver, c Credentials) error {
	header, err := c.AuthHeader()
	if err != nil {
		return err
	}
	if err := d.SetProxyAuthHeader(header); err != nil {
		return fmt.Errorf("failed to install proxy header: %w", err)
	}
	return nil
}
