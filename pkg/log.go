package pkg

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Component identifies a subsystem for log filtering.
type Component string

// Exchange layer component identifiers.
const (
	ComponentCore       Component = "core"
	ComponentQueue      Component = "queue"
	ComponentAdmission  Component = "admission"
	ComponentEvent      Component = "event"
	ComponentController Component = "controller"
	ComponentScan       Component = "scan"
	ComponentDriver     Component = "driver"
	ComponentSim        Component = "sim"
)

// componentKey is the attribute carrying the component name.
const componentKey = "component"

// LogFormat specifies the output format for logging.
type LogFormat int

// Log format options.
const (
	LogFormatText LogFormat = iota // Text format (default)
	LogFormatJSON                  // JSON format
)

var (
	// DefaultLogger is the logger behind the Log helpers.
	DefaultLogger *slog.Logger

	// logLevel is shared by every handler built here, so SetLogLevel
	// applies without rebuilding the logger.
	logLevel = new(slog.LevelVar)

	// logMutex guards DefaultLogger.
	logMutex sync.RWMutex
)

func init() {
	logLevel.Set(slog.LevelWarn)
	DefaultLogger = slog.New(newHandler(os.Stderr, LogFormatText, nil))
}

// newHandler builds a handler for format writing to w. A nil opts uses
// the shared level.
func newHandler(w io.Writer, format LogFormat, opts *slog.HandlerOptions) slog.Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{Level: logLevel}
	}
	if format == LogFormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SetLogLevel sets the minimum level of every logger using the shared
// level, including DefaultLogger.
func SetLogLevel(level slog.Level) {
	logLevel.Set(level)
}

// GetLogLevel returns the shared minimum level.
func GetLogLevel() slog.Level {
	return logLevel.Level()
}

// ParseLogLevel parses a level name (debug, info, warn, error), ignoring
// case. Unknown names return slog.LevelWarn and false.
func ParseLogLevel(name string) (slog.Level, bool) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelWarn, false
	}
	return level, true
}

// SetLogger replaces DefaultLogger.
func SetLogger(logger *slog.Logger) {
	logMutex.Lock()
	defer logMutex.Unlock()
	DefaultLogger = logger
}

// SetLogFormat rebuilds DefaultLogger in format, writing to os.Stderr.
func SetLogFormat(format LogFormat) {
	SetLogOutput(os.Stderr, format)
}

// SetLogOutput rebuilds DefaultLogger in format, writing to w. The example
// binaries use it to add a rotated log file.
func SetLogOutput(w io.Writer, format LogFormat) {
	SetLogger(slog.New(newHandler(w, format, nil)))
}

// NewLogger creates a text logger writing to w.
func NewLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return slog.New(newHandler(w, LogFormatText, opts))
}

// NewJSONLogger creates a JSON logger writing to w.
func NewJSONLogger(w io.Writer, opts *slog.HandlerOptions) *slog.Logger {
	return slog.New(newHandler(w, LogFormatJSON, opts))
}

func currentLogger() *slog.Logger {
	logMutex.RLock()
	defer logMutex.RUnlock()
	return DefaultLogger
}

// LogEnabled reports whether DefaultLogger emits records at level. Callers
// use it to skip building expensive attributes.
func LogEnabled(level slog.Level) bool {
	return currentLogger().Enabled(context.Background(), level)
}

func logAt(level slog.Level, component Component, msg string, args []any) {
	logger := currentLogger()
	ctx := context.Background()
	if !logger.Enabled(ctx, level) {
		return
	}
	logger.With(componentKey, string(component)).Log(ctx, level, msg, args...)
}

// LogDebug logs a debug message with the given component.
func LogDebug(component Component, msg string, args ...any) {
	logAt(slog.LevelDebug, component, msg, args)
}

// LogInfo logs an info message with the given component.
func LogInfo(component Component, msg string, args ...any) {
	logAt(slog.LevelInfo, component, msg, args)
}

// LogWarn logs a warning with the given component.
func LogWarn(component Component, msg string, args ...any) {
	logAt(slog.LevelWarn, component, msg, args)
}

// LogError logs an error with the given component.
func LogError(component Component, msg string, args ...any) {
	logAt(slog.LevelError, component, msg, args)
}
