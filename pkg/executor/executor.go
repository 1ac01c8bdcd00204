// Package executor runs one complete onboarding: it acquires a browser,
// installs the proxy, imports the session, drives the stage sequence and
// always releases the browser, capturing an error screenshot first when the
// run fails.
package executor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/entrhq/onboard/pkg/bootstrap"
	"github.com/entrhq/onboard/pkg/browser"
	"github.com/entrhq/onboard/pkg/config"
	"github.com/entrhq/onboard/pkg/extract"
	"github.com/entrhq/onboard/pkg/logging"
	"github.com/entrhq/onboard/pkg/proxy"
	"github.com/entrhq/onboard/pkg/sequencer"
	"github.com/entrhq/onboard/pkg/types"
)

// Launcher starts the browser for a run.
type Launcher func(ctx context.Context, cfg *config.RunConfig) (browser.Driver, error)

// DefaultLauncher launches the configured backend.
func DefaultLauncher(ctx context.Context, cfg *config.RunConfig) (browser.Driver, error) {
	opts, err := LaunchOptions(cfg)
	if err != nil {
		return nil, err
	}
	return browser.Launch(ctx, cfg.Browser.Backend, opts)
}

// LaunchOptions maps the run configuration onto browser launch options.
func LaunchOptions(cfg *config.RunConfig) (browser.Options, error) {
	opts := browser.Options{
		Headless: cfg.Browser.Headless,
		Viewport: &browser.Viewport{
			Width:  cfg.Browser.ViewportWidth,
			Height: cfg.Browser.ViewportHeight,
		},
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		SkipInstall:       cfg.Browser.SkipInstall,
	}
	if cfg.Proxy.Enabled {
		if err := proxy.Apply(&opts, proxyCredentials(cfg)); err != nil {
			return browser.Options{}, err
		}
	}
	return opts, nil
}

func proxyCredentials(cfg *config.RunConfig) proxy.Credentials {
	return proxy.Credentials{Server: cfg.Proxy.Server, User: cfg.Proxy.User, APIKey: cfg.Proxy.APIKey}
}

// Option configures an Executor.
type Option func(*Executor)

// WithLauncher replaces the browser launcher.
func WithLauncher(l Launcher) Option {
	return func(e *Executor) {
		e.launch = l
	}
}

// WithClock sets the clock used for every wait.
func WithClock(c browser.Clock) Option {
	return func(e *Executor) {
		e.clock = c
	}
}

// WithConsole sets the progress console.
func WithConsole(c *Console) Option {
	return func(e *Executor) {
		e.console = c
	}
}

// WithLogger sets the run logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// Executor runs an onboarding end to end.
type Executor struct {
	cfg     *config.RunConfig
	launch  Launcher
	clock   browser.Clock
	console *Console
	logger  *logging.Logger
	writer  *ArtifactWriter
}

// NewExecutor creates an executor for cfg.
func NewExecutor(cfg *config.RunConfig, opts ...Option) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &Executor{
		cfg:    cfg,
		launch: DefaultLauncher,
		clock:  browser.SystemClock,
		writer: NewArtifactWriter(cfg.Output),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.console == nil {
		e.console = NewConsole(ParseLogLevel(cfg.Logging.Verbosity))
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	return e, nil
}

// Run performs the onboarding. The returned summary is always non-nil; the
// error is nil only when both artifacts were persisted.
func (e *Executor) Run(ctx context.Context) (*RunSummary, error) {
	start := e.clock.Now()
	summary := &RunSummary{
		RunID:     e.logger.RunID(),
		Status:    statusRunning,
		StartTime: start,
	}

	err := e.run(ctx, summary)

	summary.EndTime = e.clock.Now()
	summary.Duration = summary.EndTime.Sub(start)
	if err != nil {
		summary.recordFailure(err)
		e.logger.Error("Run failed", zap.Error(err), zap.Int("stage", summary.FailedStage))
	} else {
		summary.Status = statusSuccess
		e.logger.Info("Run succeeded", zap.Duration("duration", summary.Duration))
	}

	if e.cfg.Output.Summary {
		if werr := e.writer.WriteSummary(summary); werr != nil {
			e.logger.Warn("Failed to write run summary", zap.Error(werr))
			e.console.Warningf("failed to write run summary: %v", werr)
		}
	}

	e.handle(types.NewRunFinishedEvent(summary.Duration, err))
	e.console.Summary(summary)
	return summary, err
}

// run owns the browser for the whole run. Quit is deferred so the browser is
// released on every path, after the error screenshot.
func (e *Executor) run(ctx context.Context, summary *RunSummary) error {
	if err := e.writer.Prepare(); err != nil {
		return err
	}

	driver, err := e.launch(ctx, e.cfg)
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if qerr := driver.Quit(); qerr != nil {
			e.logger.Warn("Failed to close browser", zap.Error(qerr))
		}
	}()

	err = e.drive(ctx, driver, summary)
	if err != nil {
		path := e.writer.ErrorScreenshotPath()
		if serr := driver.Screenshot(path); serr != nil {
			e.logger.Warn("Failed to capture error screenshot", zap.Error(serr))
		} else {
			summary.ErrorScreenshot = path
			e.handle(types.NewScreenshotCapturedEvent(0, path))
		}
	}
	return err
}

func (e *Executor) drive(ctx context.Context, driver browser.Driver, summary *RunSummary) error {
	cfg := e.cfg

	if cfg.Proxy.Enabled {
		if err := proxy.Install(driver, proxyCredentials(cfg)); err != nil {
			return err
		}
		e.logger.Info("Proxy configured", zap.String("server", cfg.Proxy.Server))
	}

	stages, err := sequencer.Onboarding(cfg)
	if err != nil {
		return err
	}
	e.handle(types.NewRunStartEvent(len(stages)))

	poller := browser.NewPoller(e.clock, cfg.Timing.PollInterval, cfg.Timing.PollMaxInterval)

	boot, err := bootstrap.New(driver, poller, cfg, e.logger)
	if err != nil {
		return err
	}
	imported, err := boot.Run(ctx, cfg.Session.StatePath)
	if err != nil {
		return err
	}
	summary.CookiesImported = imported
	e.handle(types.NewSessionImportedEvent(imported))

	seq := sequencer.New(driver, poller, e.writer, cfg,
		sequencer.WithEventHandler(e.handle),
		sequencer.WithLogger(e.logger),
	)
	results, err := seq.Run(ctx, stages)
	summary.recordStages(results)

	for _, kind := range []extract.Kind{extract.KindAccountID, extract.KindAPIToken} {
		a, ok := seq.Artifact(kind)
		if !ok {
			continue
		}
		path, _ := e.writer.Written(kind)
		summary.Artifacts = append(summary.Artifacts, ArtifactSummary{
			Kind:    string(kind),
			Preview: a.Preview(),
			Path:    path,
		})
	}
	if err != nil {
		return err
	}

	for _, kind := range []extract.Kind{extract.KindAccountID, extract.KindAPIToken} {
		if _, ok := summary.Artifact(kind); !ok {
			return fmt.Errorf("run finished without %s", kind)
		}
	}
	return nil
}

func (e *Executor) handle(ev *types.RunEvent) {
	e.console.HandleEvent(ev)
}
