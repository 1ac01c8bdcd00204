package browser_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/onboard/pkg/browser"
	"github.com/entrhq/onboard/pkg/browser/browsertest"
)

func TestPoller_WaitUntil_ImmediateMatch(t *testing.T) {
	d := browsertest.NewDriver()
	d.Add("#ready")
	clock := browsertest.NewClock()
	p := browser.NewPoller(clock, 100*time.Millisecond, time.Second)

	el, err := p.WaitUntil(context.Background(), d, browser.ElementPresent("#ready"), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, browser.Locator("#ready"), el.Locator())
	assert.Empty(t, clock.Slept)
}

func TestPoller_WaitUntil_AppearsLater(t *testing.T) {
	d := browsertest.NewDriver()
	d.Add("#late").AppearAfter = 3
	clock := browsertest.NewClock()
	p := browser.NewPoller(clock, 100*time.Millisecond, time.Second)

	_, err := p.WaitUntil(context.Background(), d, browser.ElementPresent("#late"), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, clock.Slept)
}

func TestPoller_WaitUntil_Timeout(t *testing.T) {
	d := browsertest.NewDriver()
	clock := browsertest.NewClock()
	p := browser.NewPoller(clock, 100*time.Millisecond, 400*time.Millisecond)

	_, err := p.WaitUntil(context.Background(), d, browser.URLContains("dash"), 2*time.Second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, browser.ErrTimeout))

	var te *browser.TimeoutError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, 2*time.Second, te.Timeout)
	assert.Contains(t, te.Error(), `url contains "dash"`)

	// Never sleeps past the deadline and backoff is capped
	assert.Equal(t, 2*time.Second, clock.Elapsed())
	for _, s := range clock.Slept {
		assert.LessOrEqual(t, s, 400*time.Millisecond)
	}
}

func TestPoller_WaitUntil_ZeroTimeoutChecksOnce(t *testing.T) {
	d := browsertest.NewDriver()
	d.URL = "https://dash.example.com/"
	p := browser.NewPoller(browsertest.NewClock(), 0, 0)

	_, err := p.WaitUntil(context.Background(), d, browser.URLContains("dash.example.com"), 0)
	assert.NoError(t, err)
}

func TestPoller_WaitUntil_ContextCancelled(t *testing.T) {
	d := browsertest.NewDriver()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := browser.NewPoller(browsertest.NewClock(), 0, 0)

	_, err := p.WaitUntil(ctx, d, browser.URLContains("never"), time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPoller_Defaults(t *testing.T) {
	p := browser.NewPoller(nil, 0, 0)
	assert.Equal(t, browser.SystemClock, p.Clock())
}
