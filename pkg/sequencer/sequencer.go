package sequencer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/entrhq/onboard/pkg/browser"
	"github.com/entrhq/onboard/pkg/config"
	"github.com/entrhq/onboard/pkg/extract"
	"github.com/entrhq/onboard/pkg/logging"
	"github.com/entrhq/onboard/pkg/types"
)

// ArtifactStore writes artifacts and names diagnostic files.
type ArtifactStore interface {
	// Persist writes the artifact and returns the file it went to.
	Persist(a extract.Artifact) (string, error)
	// ScreenshotPath returns the path for the screenshot of a stage.
	ScreenshotPath(stage int) string
}

// EventHandler receives run events as they happen.
type EventHandler func(*types.RunEvent)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithEventHandler sets the handler that receives stage events.
func WithEventHandler(h EventHandler) Option {
	return func(s *Sequencer) {
		s.handler = h
	}
}

// WithLogger sets the run logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Sequencer) {
		s.logger = l
	}
}

// Sequencer executes a stage table exactly once, in order.
type Sequencer struct {
	driver  browser.Driver
	poller  *browser.Poller
	store   ArtifactStore
	cfg     *config.RunConfig
	logger  *logging.Logger
	handler EventHandler

	artifacts map[extract.Kind]extract.Artifact
}

// New creates a sequencer bound to one browser session.
func New(d browser.Driver, poller *browser.Poller, store ArtifactStore, cfg *config.RunConfig, opts ...Option) *Sequencer {
	s := &Sequencer{
		driver:    d,
		poller:    poller,
		store:     store,
		cfg:       cfg,
		logger:    logging.NewNop(),
		handler:   func(*types.RunEvent) {},
		artifacts: make(map[extract.Kind]extract.Artifact),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.handler == nil {
		s.handler = func(*types.RunEvent) {}
	}
	return s
}

// Artifact returns the artifact of kind persisted during the run, if any.
func (s *Sequencer) Artifact(kind extract.Kind) (extract.Artifact, bool) {
	a, ok := s.artifacts[kind]
	return a, ok
}

// Run executes stages in order. Optional stages that fail are recorded as
// skipped; the first required stage that fails stops the run and its cause
// is returned as a *StageFailure. The results cover every stage attempted.
func (s *Sequencer) Run(ctx context.Context, stages []Stage) ([]StageResult, error) {
	results := make([]StageResult, 0, len(stages))
	total := len(stages)

	for i, stage := range stages {
		index := i + 1
		result := s.runStage(ctx, index, total, stage)
		results = append(results, result)

		if result.Status == StatusFailed {
			return results, &StageFailure{
				Index: index,
				Name:  stage.Name,
				URL:   s.currentURL(),
				Err:   result.Err,
			}
		}
	}
	return results, nil
}

func (s *Sequencer) runStage(ctx context.Context, index, total int, stage Stage) StageResult {
	clock := s.poller.Clock()
	start := clock.Now()
	result := StageResult{Index: index, Name: stage.Name}

	s.handler(types.NewStageStartEvent(index, total, stage.Name))
	s.logger.Info("Stage started",
		zap.Int("stage", index),
		zap.String("name", stage.Name),
		zap.Stringer("tolerance", stage.Tolerance),
	)

	rc := &RunContext{
		Driver: s.driver,
		Config: s.cfg,
		Logger: s.logger,
		Stage:  index,
		seq:    s,
	}

	err := s.runSteps(ctx, rc, index, stage)
	result.Duration = clock.Now().Sub(start)

	switch {
	case err == nil:
		result.Status = StatusCompleted
		s.capture(index, &result)
		s.handler(types.NewStageCompletedEvent(index, total, stage.Name, result.Duration))
		s.logger.Info("Stage completed",
			zap.Int("stage", index),
			zap.String("name", stage.Name),
			zap.Duration("duration", result.Duration),
		)

	case stage.Tolerance == Optional && ctx.Err() == nil:
		result.Status = StatusSkipped
		result.Reason = err.Error()
		s.capture(index, &result)
		s.handler(types.NewStageSkippedEvent(index, total, stage.Name, result.Reason))
		s.logger.Warn("Optional stage skipped",
			zap.Int("stage", index),
			zap.String("name", stage.Name),
			zap.String("reason", result.Reason),
		)

	default:
		result.Status = StatusFailed
		result.Err = err
		url := s.currentURL()
		s.handler(types.NewStageFailedEvent(index, total, stage.Name, url, err))
		s.logger.Error("Stage failed",
			zap.Int("stage", index),
			zap.String("name", stage.Name),
			zap.String("url", url),
			zap.Error(err),
		)
	}

	return result
}

func (s *Sequencer) runSteps(ctx context.Context, rc *RunContext, index int, stage Stage) error {
	for _, step := range stage.Steps {
		el, err := s.wait(ctx, index, stage.Name, step)
		if err != nil {
			return err
		}

		if step.Act != nil {
			if err := step.Act(ctx, rc, el); err != nil {
				return fmt.Errorf("%s: %w", step.Name, err)
			}
		}

		if step.Settle > 0 {
			if err := s.poller.Idle(ctx, step.Settle); err != nil {
				return err
			}
		}
	}
	return nil
}

// wait satisfies a step's precondition. A timeout gets at most one extra
// window; best-effort waits then proceed with no element.
func (s *Sequencer) wait(ctx context.Context, index int, name string, step Step) (browser.Element, error) {
	w := step.Wait
	if w.Idle > 0 {
		if err := s.poller.Idle(ctx, w.Idle); err != nil {
			return nil, err
		}
	}
	if w.Until == nil {
		return nil, nil
	}

	el, err := s.poller.WaitUntil(ctx, s.driver, *w.Until, w.Timeout)
	if err == nil {
		return el, nil
	}
	if !errors.Is(err, browser.ErrTimeout) {
		return nil, err
	}

	timeout := w.Timeout
	if w.Extra > 0 {
		s.handler(types.NewWaitExtendedEvent(index, name, w.Until.Desc, w.Extra))
		s.logger.Warn("Wait extended",
			zap.Int("stage", index),
			zap.String("wait", w.Until.Desc),
			zap.Duration("extra", w.Extra),
		)

		el, err = s.poller.WaitUntil(ctx, s.driver, *w.Until, w.Extra)
		if err == nil {
			return el, nil
		}
		if !errors.Is(err, browser.ErrTimeout) {
			return nil, err
		}
		timeout += w.Extra
	}

	if w.BestEffort {
		s.logger.Warn("Proceeding without condition",
			zap.Int("stage", index),
			zap.String("wait", w.Until.Desc),
		)
		return nil, nil
	}

	return nil, &StageTimeoutError{
		Stage:   index,
		Name:    name,
		Step:    step.Name,
		Wait:    w.Until.Desc,
		Timeout: timeout,
		URL:     s.currentURL(),
		Err:     err,
	}
}

// capture takes the stage screenshot. Failures are logged and never change
// the stage outcome.
func (s *Sequencer) capture(index int, result *StageResult) {
	path := s.store.ScreenshotPath(index)
	if err := s.driver.Screenshot(path); err != nil {
		s.logger.Warn("Failed to capture screenshot",
			zap.Int("stage", index),
			zap.String("path", path),
			zap.Error(err),
		)
		return
	}
	result.Screenshot = path
	s.handler(types.NewScreenshotCapturedEvent(index, path))
}

func (s *Sequencer) currentURL() string {
	u, err := s.driver.CurrentURL()
	if err != nil {
		return ""
	}
	return u
}
