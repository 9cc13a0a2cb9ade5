package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		" warn ":  LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}

	for input, expected := range tests {
		if got := ParseLevel(input); got != expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", input, got, expected)
		}
	}
}

func TestInitForCLI(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	Info("test-subsystem", "test message %d", 42)

	output := buf.String()
	if !strings.Contains(output, "test message 42") {
		t.Error("Expected log message to appear in CLI output")
	}

	if !strings.Contains(output, "test-subsystem") {
		t.Error("Expected subsystem to appear in CLI output")
	}
}

func TestCLILevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	Debug("test", "debug message")
	Info("test", "info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be filtered out at INFO level")
	}

	if !strings.Contains(output, "info message") {
		t.Error("Info message should appear at INFO level")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer

	Init(LevelDebug, FormatJSON, &buf)

	Error("Backend", errors.New("boom"), "request failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["subsystem"] != "Backend" {
		t.Errorf("Expected subsystem Backend, got %v", entry["subsystem"])
	}
	if entry["error"] != "boom" {
		t.Errorf("Expected error boom, got %v", entry["error"])
	}
	if entry["msg"] != "request failed" {
		t.Errorf("Expected msg 'request failed', got %v", entry["msg"])
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	Logger("Documents").Info("listed", "count", 3)

	output := buf.String()
	if !strings.Contains(output, "subsystem=Documents") {
		t.Errorf("Expected subsystem attribute, got %q", output)
	}
	if !strings.Contains(output, "count=3") {
		t.Errorf("Expected count attribute, got %q", output)
	}
}

func TestLogger_StandardLogBridge(t *testing.T) {
	var buf bytes.Buffer

	InitForCLI(LevelInfo, &buf)

	errLog := slog.NewLogLogger(Logger("HTTP").Handler(), slog.LevelWarn)
	errLog.Printf("http: TLS handshake error from %s", "10.0.0.1:5555")

	output := buf.String()
	if !strings.Contains(output, "subsystem=HTTP") {
		t.Errorf("Expected subsystem attribute, got %q", output)
	}
	if !strings.Contains(output, "level=WARN") {
		t.Errorf("Expected WARN level, got %q", output)
	}
	if !strings.Contains(output, "TLS handshake error from 10.0.0.1:5555") {
		t.Errorf("Expected message, got %q", output)
	}
}

func TestTruncateSessionID(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"abc", "abc"},
		{"12345678", "12345678"},
		{"123456789", "12345678..."},
		{"4b8e8f0c-7f8d-4a4b-9c55-3ad1c0f0e3b1", "4b8e8f0c..."},
	}

	for _, test := range tests {
		if got := TruncateSessionID(test.input); got != test.expected {
			t.Errorf("TruncateSessionID(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}
