package proxy

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/onboard/pkg/browser"
	"github.com/entrhq/onboard/pkg/browser/browsertest"
)

func TestAuthHeader(t *testing.T) {
	c := Credentials{Server: "http://proxy:8001", User: "scraperapi", APIKey: "k3y"}

	header, err := c.AuthHeader()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(header, "Basic "))

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
	require.NoError(t, err)
	assert.Equal(t, "scraperapi:api_key=k3y", string(decoded))
}

func TestAuthHeader_MissingKey(t *testing.T) {
	_, err := Credentials{User: "scraperapi"}.AuthHeader()
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestInstall(t *testing.T) {
	d := browsertest.NewDriver()

	err := Install(d, Credentials{User: "u", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("u:api_key=k")), d.ProxyHeader)
}

func TestInstall_MissingKeyLeavesDriverUntouched(t *testing.T) {
	d := browsertest.NewDriver()

	err := Install(d, Credentials{User: "u"})
	require.Error(t, err)
	assert.Empty(t, d.ProxyHeader)
}

func TestApply(t *testing.T) {
	opts := browser.Options{Headless: true}

	err := Apply(&opts, Credentials{Server: "http://proxy:8001", User: "scraperapi", APIKey: "k3y"})
	require.NoError(t, err)
	assert.Equal(t, "http://proxy:8001", opts.ProxyServer)
	assert.Equal(t, "scraperapi", opts.ProxyUsername)
	assert.Equal(t, "api_key=k3y", opts.ProxyPassword)
	assert.True(t, opts.Headless)
}

func TestApply_MissingKey(t *testing.T) {
	var opts browser.Options

	err := Apply(&opts, Credentials{Server: "http://proxy:8001", User: "u"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Empty(t, opts.ProxyServer)
}
