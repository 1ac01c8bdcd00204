package executor

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/onboard/pkg/types"
)

// LogLevel represents the console verbosity level
type LogLevel int

const (
	// LogLevelQuiet shows only critical information (errors, warnings, final summary)
	LogLevelQuiet LogLevel = iota
	// LogLevelNormal shows stage progress (default)
	LogLevelNormal
	// LogLevelVerbose adds waits, screenshots and page details
	LogLevelVerbose
	// LogLevelDebug shows all internal details for debugging
	LogLevelDebug
)

var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	mintGreen   = lipgloss.Color("#A8E6CF")
	amber       = lipgloss.Color("#FCD34D")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")
)

// Console prints human-readable run progress. It is separate from the
// structured run log and never receives secret values.
type Console struct {
	level  LogLevel
	writer io.Writer

	header  lipgloss.Style
	stage   lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	muted   lipgloss.Style
}

// NewConsole creates a console that writes to stdout.
func NewConsole(level LogLevel) *Console {
	return NewConsoleWriter(level, os.Stdout)
}

// NewConsoleWriter creates a console that writes to w. Styling adapts to
// whether w is a terminal.
func NewConsoleWriter(level LogLevel, w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		level:   level,
		writer:  w,
		header:  r.NewStyle().Foreground(brightWhite).Bold(true),
		stage:   r.NewStyle().Foreground(salmonPink).Bold(true),
		success: r.NewStyle().Foreground(mintGreen).Bold(true),
		info:    r.NewStyle().Foreground(salmonPink),
		warn:    r.NewStyle().Foreground(amber),
		err:     r.NewStyle().Foreground(salmonPink).Bold(true),
		muted:   r.NewStyle().Foreground(mutedGray),
	}
}

func (c *Console) println(style lipgloss.Style, msg string) {
	fmt.Fprintln(c.writer, style.Render(msg))
}

// Header prints a prominent header message
func (c *Console) Header(message string) {
	if c.level >= LogLevelNormal {
		rule := strings.Repeat("=", 70)
		fmt.Fprintln(c.writer)
		c.println(c.header, rule)
		c.println(c.header, "  "+message)
		c.println(c.header, rule)
	}
}

// Stage prints the "[i/N] name" banner for a stage.
func (c *Console) Stage(index, total int, name string) {
	if c.level >= LogLevelNormal {
		fmt.Fprintln(c.writer)
		c.println(c.stage, fmt.Sprintf("[%d/%d] %s", index, total, name))
	}
}

// Successf prints a success message with checkmark
func (c *Console) Successf(format string, args ...interface{}) {
	if c.level >= LogLevelNormal {
		c.println(c.success, "✓ "+fmt.Sprintf(format, args...))
	}
}

// Infof prints an informational message
func (c *Console) Infof(format string, args ...interface{}) {
	if c.level >= LogLevelNormal {
		c.println(c.info, fmt.Sprintf(format, args...))
	}
}

// Warningf prints a warning message
func (c *Console) Warningf(format string, args ...interface{}) {
	c.println(c.warn, "⚠ Warning: "+fmt.Sprintf(format, args...))
}

// Errorf prints an error message
func (c *Console) Errorf(format string, args ...interface{}) {
	c.println(c.err, "✗ Error: "+fmt.Sprintf(format, args...))
}

// Verbosef prints detailed information (only in verbose mode)
func (c *Console) Verbosef(format string, args ...interface{}) {
	if c.level >= LogLevelVerbose {
		c.println(c.muted, "→ "+fmt.Sprintf(format, args...))
	}
}

// Debugf prints debug information (only in debug mode)
func (c *Console) Debugf(format string, args ...interface{}) {
	if c.level >= LogLevelDebug {
		c.println(c.muted, "[DEBUG] "+fmt.Sprintf(format, args...))
	}
}

// HandleEvent renders a run event.
func (c *Console) HandleEvent(ev *types.RunEvent) {
	if ev.IsStageEvent() {
		c.Debugf("%s stage=%d/%d name=%s", ev.Type, ev.Stage, ev.Total, ev.StageName)
	}
	// Quiet mode only shows failures and extended waits
	if c.level == LogLevelQuiet && !ev.IsErrorEvent() && ev.Type != types.EventTypeWaitExtended {
		return
	}

	switch ev.Type {
	case types.EventTypeRunStart:
		c.Header("ONBOARDING RUN")
	case types.EventTypeSessionImported:
		c.Successf("Imported %d session cookies", ev.Count)
	case types.EventTypeStageStart:
		c.Stage(ev.Stage, ev.Total, ev.StageName)
	case types.EventTypeStageCompleted:
		c.Successf("%s done (%s)", ev.StageName, ev.Duration.Round(time.Millisecond))
	case types.EventTypeStageSkipped:
		c.Infof("Skipped %s: %s", ev.StageName, ev.Message)
	case types.EventTypeStageFailed:
		c.Errorf("%s failed at %s: %v", ev.StageName, ev.URL, ev.Err)
	case types.EventTypeWaitExtended:
		c.Warningf("still waiting for %s, allowing %s more", ev.Message, ev.Duration)
	case types.EventTypePageInfo:
		c.Infof("Title: %s", ev.Message)
		c.Verbosef("Location: %s", ev.URL)
	case types.EventTypeArtifactPersisted:
		c.Successf("%s: %s", ev.ArtifactKind, ev.Preview)
		c.Verbosef("Written to %s", ev.Path)
	case types.EventTypeScreenshotCaptured:
		c.Verbosef("Screenshot %s", ev.Path)
	case types.EventTypeRunFinished:
		// The outcome itself is rendered by Summary
		if ev.Succeeded() {
			c.Verbosef("Run finished in %s", ev.Duration.Round(time.Millisecond))
		} else {
			c.Debugf("run finished with error: %v", ev.Err)
		}
	default:
		c.Debugf("event %s", ev.Type)
	}
}

// Summary prints a final run summary
func (c *Console) Summary(summary *RunSummary) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(c.writer)
	c.println(c.header, rule)
	c.println(c.header, "  RUN SUMMARY")
	c.println(c.header, rule)

	fmt.Fprint(c.writer, "  Status: ")
	if summary.Succeeded() {
		c.println(c.success, "✓ SUCCESS")
	} else {
		c.println(c.err, "✗ FAILED")
	}
	fmt.Fprintf(c.writer, "  Run: %s\n", summary.RunID)
	fmt.Fprintf(c.writer, "  Duration: %s\n", summary.Duration.Round(time.Second))

	for _, a := range summary.Artifacts {
		fmt.Fprintf(c.writer, "  %s: %s\n", a.Kind, a.Preview)
	}

	if c.level >= LogLevelVerbose {
		for _, s := range summary.Stages {
			fmt.Fprintf(c.writer, "    [%d] %-20s %s\n", s.Index, s.Name, s.Status)
		}
	}

	if summary.Error != "" {
		fmt.Fprintln(c.writer)
		c.println(c.err, "  Error Details:")
		c.println(c.err, "    "+summary.Error)
		if summary.ErrorScreenshot != "" {
			fmt.Fprintf(c.writer, "    Screenshot: %s\n", summary.ErrorScreenshot)
		}
	}

	c.println(c.header, rule)
	fmt.Fprintln(c.writer)
}

// ParseLogLevel converts a string log level to LogLevel type
func ParseLogLevel(level string) LogLevel {
	switch level {
	case "quiet":
		return LogLevelQuiet
	case "normal":
		return LogLevelNormal
	case "verbose":
		return LogLevelVerbose
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelNormal
	}
}
