package pkg

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// captureLogs points DefaultLogger at a buffer at level and restores the
// previous logger and level when t ends.
func captureLogs(t *testing.T, level slog.Level, format LogFormat) *bytes.Buffer {
	t.Helper()
	prevLevel := GetLogLevel()
	prevLogger := currentLogger()
	t.Cleanup(func() {
		SetLogLevel(prevLevel)
		SetLogger(prevLogger)
	})

	var buf bytes.Buffer
	SetLogLevel(level)
	SetLogOutput(&buf, format)
	return &buf
}

func TestSetLogLevel(t *testing.T) {
	original := GetLogLevel()
	defer SetLogLevel(original)

	tests := []struct {
		name  string
		level slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetLogLevel(tt.level)
			if got := GetLogLevel(); got != tt.level {
				t.Errorf("GetLogLevel() = %v, want %v", got, tt.level)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger.Info("associated", "ssid", "lab")

	output := buf.String()
	if !strings.Contains(output, "msg=associated") || !strings.Contains(output, "ssid=lab") {
		t.Errorf("text log = %q", output)
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	logger.Info("associated", "ssid", "lab")

	output := buf.String()
	if !strings.Contains(output, `"msg":"associated"`) || !strings.Contains(output, `"ssid":"lab"`) {
		t.Errorf("JSON log = %q", output)
	}
}

func TestNewLoggerSharedLevel(t *testing.T) {
	original := GetLogLevel()
	defer SetLogLevel(original)

	var buf bytes.Buffer
	logger := NewLogger(&buf, nil)

	SetLogLevel(slog.LevelError)
	logger.Warn("dropped")
	if buf.Len() != 0 {
		t.Errorf("warn emitted at error level: %q", buf.String())
	}

	SetLogLevel(slog.LevelDebug)
	logger.Debug("kept")
	if !strings.Contains(buf.String(), "msg=kept") {
		t.Errorf("debug dropped after lowering shared level: %q", buf.String())
	}
}

func TestLogHelpers(t *testing.T) {
	tests := []struct {
		name string
		log  func(Component, string, ...any)
		want string
	}{
		{"debug", LogDebug, "level=DEBUG"},
		{"info", LogInfo, "level=INFO"},
		{"warn", LogWarn, "level=WARN"},
		{"error", LogError, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t, slog.LevelDebug, LogFormatText)
			tt.log(ComponentScan, "scan done", "count", 3)

			output := buf.String()
			for _, sub := range []string{tt.want, "component=scan", "msg=\"scan done\"", "count=3"} {
				if !strings.Contains(output, sub) {
					t.Errorf("log %q missing %q", output, sub)
				}
			}
		})
	}
}

func TestLogHelpersFiltered(t *testing.T) {
	buf := captureLogs(t, slog.LevelWarn, LogFormatText)

	LogDebug(ComponentQueue, "pushed")
	LogInfo(ComponentQueue, "pushed")
	if buf.Len() != 0 {
		t.Errorf("records below warn emitted: %q", buf.String())
	}

	LogWarn(ComponentQueue, "full")
	if !strings.Contains(buf.String(), "component=queue") {
		t.Errorf("warn missing: %q", buf.String())
	}
}

func TestLogEnabled(t *testing.T) {
	captureLogs(t, slog.LevelInfo, LogFormatText)

	if LogEnabled(slog.LevelDebug) {
		t.Error("LogEnabled(debug) at info level")
	}
	if !LogEnabled(slog.LevelInfo) {
		t.Error("LogEnabled(info) false at info level")
	}

	SetLogLevel(slog.LevelDebug)
	if !LogEnabled(slog.LevelDebug) {
		t.Error("LogEnabled(debug) false after lowering level")
	}
}

func TestSetLogger(t *testing.T) {
	captureLogs(t, slog.LevelWarn, LogFormatText)

	var buf bytes.Buffer
	SetLogger(NewJSONLogger(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	LogDebug(ComponentSim, "irq")

	if !strings.Contains(buf.String(), `"component":"sim"`) {
		t.Errorf("replacement logger not used: %q", buf.String())
	}
}

func TestSetLogOutputJSON(t *testing.T) {
	buf := captureLogs(t, slog.LevelInfo, LogFormatJSON)
	LogInfo(ComponentController, "timeout", "ms", 2000)

	output := buf.String()
	if !strings.Contains(output, `"component":"controller"`) || !strings.Contains(output, `"ms":2000`) {
		t.Errorf("JSON log = %q", output)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"chatty", slog.LevelWarn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLogLevel(tt.name)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseLogLevel(%q) = %v, %v, want %v, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
