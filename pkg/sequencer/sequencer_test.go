package sequencer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/onboard/pkg/browser"
	"github.com/entrhq/onboard/pkg/browser/browsertest"
	"github.com/entrhq/onboard/pkg/config"
	"github.com/entrhq/onboard/pkg/extract"
	"github.com/entrhq/onboard/pkg/types"
)

type memStore struct {
	dir   string
	saved map[extract.Kind]string
	err   error
}

func newMemStore(t *testing.T) *memStore {
	return &memStore{dir: t.TempDir(), saved: make(map[extract.Kind]string)}
}

func (m *memStore) Persist(a extract.Artifact) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved[a.Kind] = a.Value
	return filepath.Join(m.dir, string(a.Kind)+".txt"), nil
}

func (m *memStore) ScreenshotPath(stage int) string {
	return filepath.Join(m.dir, fmt.Sprintf("stage-%d.png", stage))
}

type harness struct {
	driver *browsertest.Driver
	clock  *browsertest.Clock
	store  *memStore
	events []*types.RunEvent
	seq    *Sequencer
}

func newHarness(t *testing.T, cfg *config.RunConfig) *harness {
	h := &harness{
		driver: browsertest.NewDriver(),
		clock:  browsertest.NewClock(),
		store:  newMemStore(t),
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	poller := browser.NewPoller(h.clock, 100*time.Millisecond, time.Second)
	h.seq = New(h.driver, poller, h.store, cfg, WithEventHandler(func(ev *types.RunEvent) {
		h.events = append(h.events, ev)
	}))
	return h
}

func (h *harness) eventTypes() []types.RunEventType {
	out := make([]types.RunEventType, len(h.events))
	for i, ev := range h.events {
		out[i] = ev.Type
	}
	return out
}

func waitFor(loc browser.Locator, timeout time.Duration) Wait {
	cond := browser.ElementPresent(loc)
	return Wait{Until: &cond, Timeout: timeout}
}

func noop(context.Context, *RunContext, browser.Element) error { return nil }

func TestRun_OptionalStageSkippedOnTimeout(t *testing.T) {
	h := newHarness(t, nil)
	h.driver.Add("#later")

	stages := []Stage{
		{Name: "optional", Tolerance: Optional, Steps: []Step{{Name: "wait", Wait: waitFor("#missing", time.Second)}}},
		{Name: "after", Tolerance: Required, Steps: []Step{{Name: "wait", Wait: waitFor("#later", time.Second), Act: noop}}},
	}

	results, err := h.seq.Run(t.Context(), stages)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Contains(t, results[0].Reason, "#missing")
	assert.NoError(t, results[0].Err)
	assert.Equal(t, StatusCompleted, results[1].Status)

	// Skipped and completed stages both leave a screenshot
	assert.Equal(t, []string{h.store.ScreenshotPath(1), h.store.ScreenshotPath(2)}, h.driver.Screenshots)
	assert.Equal(t, h.store.ScreenshotPath(1), results[0].Screenshot)
	assert.Contains(t, h.eventTypes(), types.EventTypeStageSkipped)
}

func TestRun_OptionalStageActionErrorSkipped(t *testing.T) {
	h := newHarness(t, nil)
	h.driver.Add("#form")

	failing := func(context.Context, *RunContext, browser.Element) error {
		return errors.New("field vanished")
	}
	stages := []Stage{
		{Name: "profile", Tolerance: Optional, Steps: []Step{{Name: "fill", Wait: waitFor("#form", time.Second), Act: failing}}},
	}

	results, err := h.seq.Run(t.Context(), stages)
	require.NoError(t, err)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Contains(t, results[0].Reason, "field vanished")
}

func TestRun_RequiredTimeoutAborts(t *testing.T) {
	h := newHarness(t, nil)
	h.driver.URL = "https://app.test/home"
	ran := false

	stages := []Stage{
		{Name: "required", Tolerance: Required, Steps: []Step{{Name: "wait", Wait: waitFor("#missing", 2*time.Second)}}},
		{Name: "never", Tolerance: Optional, Steps: []Step{{Name: "act", Act: func(context.Context, *RunContext, browser.Element) error {
			ran = true
			return nil
		}}}},
	}

	results, err := h.seq.Run(t.Context(), stages)
	require.Error(t, err)
	assert.False(t, ran)
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)

	var failure *StageFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 1, failure.Index)
	assert.Equal(t, "required", failure.Name)
	assert.Equal(t, "https://app.test/home", failure.URL)

	var timeout *StageTimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, "wait", timeout.Step)
	assert.Equal(t, 2*time.Second, timeout.Timeout)
	assert.True(t, errors.Is(err, browser.ErrTimeout))

	// Failed stages are left to the caller's error capture
	assert.Empty(t, h.driver.Screenshots)
	assert.Equal(t, 2*time.Second, h.clock.Elapsed())
}

func TestRun_ExtraWindow(t *testing.T) {
	h := newHarness(t, nil)
	// Present only after more checks than the first window allows
	h.driver.Add("#slow").AppearAfter = 6

	cond := browser.ElementPresent("#slow")
	stages := []Stage{
		{Name: "slow", Tolerance: Required, Steps: []Step{{
			Name: "wait",
			Wait: Wait{Until: &cond, Timeout: 500 * time.Millisecond, Extra: 10 * time.Second},
		}}},
	}

	results, err := h.seq.Run(t.Context(), stages)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, results[0].Status)
	assert.Contains(t, h.eventTypes(), types.EventTypeWaitExtended)
}

func TestRun_ExtraWindowExhausted(t *testing.T) {
	h := newHarness(t, nil)

	cond := browser.ElementPresent("#never")
	stages := []Stage{
		{Name: "slow", Tolerance: Required, Steps: []Step{{
			Name: "wait",
			Wait: Wait{Until: &cond, Timeout: time.Second, Extra: 3 * time.Second},
		}}},
	}

	_, err := h.seq.Run(t.Context(), stages)
	var timeout *StageTimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, 4*time.Second, timeout.Timeout)
	// One window plus exactly one extra window, no more
	assert.Equal(t, 4*time.Second, h.clock.Elapsed())
}

func TestRun_BestEffortProceeds(t *testing.T) {
	h := newHarness(t, nil)
	var got browser.Element = &struct{ browser.Element }{}

	cond := browser.ElementPresent("#never")
	stages := []Stage{
		{Name: "challenge", Tolerance: Required, Steps: []Step{{
			Name: "wait",
			Wait: Wait{Until: &cond, Timeout: time.Second, Extra: time.Second, BestEffort: true},
			Act: func(_ context.Context, _ *RunContext, el browser.Element) error {
				got = el
				return nil
			},
		}}},
	}

	results, err := h.seq.Run(t.Context(), stages)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, results[0].Status)
	assert.Nil(t, got)
	assert.Equal(t, 2*time.Second, h.clock.Elapsed())
}

func TestRun_IdleAndSettle(t *testing.T) {
	h := newHarness(t, nil)

	stages := []Stage{
		{Name: "settle", Tolerance: Required, Steps: []Step{
			{Name: "a", Wait: Wait{Idle: 3 * time.Second}, Act: noop, Settle: 2 * time.Second},
		}},
	}

	_, err := h.seq.Run(t.Context(), stages)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3 * time.Second, 2 * time.Second}, h.clock.Slept)
}

func TestRun_CancelledContextFailsOptionalStage(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	stages := []Stage{
		{Name: "optional", Tolerance: Optional, Steps: []Step{{Name: "wait", Wait: waitFor("#missing", time.Second)}}},
	}

	results, err := h.seq.Run(ctx, stages)
	require.Error(t, err)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ScreenshotFailureDoesNotFailStage(t *testing.T) {
	h := newHarness(t, nil)
	h.store.dir = filepath.Join(h.store.dir, "missing-dir")

	results, err := h.seq.Run(t.Context(), []Stage{{Name: "a", Tolerance: Required, Steps: []Step{{Name: "a", Act: noop}}}})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, results[0].Status)
	assert.Empty(t, results[0].Screenshot)
}

func TestRunContext_PersistOncePerKind(t *testing.T) {
	h := newHarness(t, nil)
	h.driver.URL = "https://x.test/a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"

	stages := []Stage{
		{Name: "first", Tolerance: Required, Steps: []Step{{Name: "extract", Act: extractAccountID}}},
		{Name: "again", Tolerance: Required, Steps: []Step{{Name: "extract", Act: extractAccountID}}},
	}

	_, err := h.seq.Run(t.Context(), stages)
	require.ErrorIs(t, err, ErrDuplicateArtifact)

	var failure *StageFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 2, failure.Index)

	a, ok := h.seq.Artifact(extract.KindAccountID)
	require.True(t, ok)
	assert.Equal(t, "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", a.Value)
	assert.Equal(t, "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", h.store.saved[extract.KindAccountID])
}

func TestRunContext_PersistStoreError(t *testing.T) {
	h := newHarness(t, nil)
	h.store.err = errors.New("disk full")
	h.driver.URL = "https://x.test/a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4"

	_, err := h.seq.Run(t.Context(), []Stage{{Name: "extract", Tolerance: Required, Steps: []Step{{Name: "extract", Act: extractAccountID}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	_, ok := h.seq.Artifact(extract.KindAccountID)
	assert.False(t, ok)
}

func TestTolerance_String(t *testing.T) {
	assert.Equal(t, "required", Required.String())
	assert.Equal(t, "optional", Optional.String())
}
