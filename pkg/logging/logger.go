package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger provides structured logging for one onboarding run.
// All entries are written as JSON to a run-specific file, by default
// ~/.onboard/logs/<run-id>-onboard.log, rotated by size.
//
// Every level is written; console verbosity is handled separately by the
// executor's progress output.
type Logger struct {
	*zap.Logger

	runID     string
	logPath   string
	rotator   *lumberjack.Logger
	closeOnce sync.Once
}

// Options configures the run log.
type Options struct {
	// File overrides the default log path
	File string
	// MaxSizeMB is the size at which the file is rotated
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept
	MaxBackups int
}

var (
	// Global run ID for the current execution
	runID     string
	runIDOnce sync.Once
)

// getRunID returns or creates the run ID for this execution
func getRunID() string {
	runIDOnce.Do(func() {
		runID = uuid.New().String()
	})
	return runID
}

// GetRunID returns the current global run ID
func GetRunID() string {
	return getRunID()
}

// DefaultLogDirectory returns ~/.onboard/logs.
func DefaultLogDirectory() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".onboard", "logs"), nil
}

// NewLogger creates the run logger for a component.
//
// If the log directory cannot be created it returns a fallback logger that
// writes to stderr along with the error. Callers can check the error to
// detect fallback mode and warn.
func NewLogger(component string, opts Options) (*Logger, error) {
	id := getRunID()

	path := opts.File
	if path == "" {
		dir, err := DefaultLogDirectory()
		if err != nil {
			return newFallbackLogger(component, err), err
		}
		path = filepath.Join(dir, fmt.Sprintf("%s-onboard.log", id))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		err = fmt.Errorf("failed to create log directory: %w", err)
		return newFallbackLogger(component, err), err
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
	}

	core := zapcore.NewCore(newEncoder(), zapcore.AddSync(rotator), zap.DebugLevel)
	zl := zap.New(core, zap.AddStacktrace(zap.ErrorLevel)).
		Named(component).
		With(zap.String("run_id", id))

	return &Logger{
		Logger:  zl,
		runID:   id,
		logPath: path,
		rotator: rotator,
	}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop(), runID: getRunID()}
}

// Wrap adapts an existing zap logger, typically an observer in tests.
func Wrap(zl *zap.Logger) *Logger {
	return &Logger{Logger: zl, runID: getRunID()}
}

// newFallbackLogger creates a logger that writes to stderr when file logging fails
func newFallbackLogger(component string, err error) *Logger {
	core := zapcore.NewCore(newEncoder(), zapcore.Lock(os.Stderr), zap.DebugLevel)
	zl := zap.New(core).Named(component).With(zap.String("run_id", getRunID()))
	zl.Warn("Failed to initialize file logging, falling back to stderr", zap.Error(err))

	return &Logger{
		Logger: zl,
		runID:  getRunID(),
	}
}

func newEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

// RunID returns the run ID attached to every entry.
func (l *Logger) RunID() string {
	return l.runID
}

// LogPath returns the path to the log file, or "" when logging to stderr.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close flushes and closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		_ = l.Logger.Sync()
		if l.rotator != nil {
			err = l.rotator.Close()
		}
	})
	return err
}
