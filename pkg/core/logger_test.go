package core

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger()

	if logger == nil {
		t.Fatal("NewDefaultLogger() should not return nil")
	}

	// Test that logger methods don't panic
	logger.Error("test error")
	logger.Errorf("test error: %s", "message")
	logger.Warn("test warning")
	logger.Warnf("test warning: %s", "message")
	logger.Info("test info")
	logger.Infof("test info: %s", "message")
	logger.Debug("test debug")
	logger.Debugf("test debug: %s", "message")
}

func TestTextLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Format: "text", Level: LevelWarn, Output: &buf})

	logger.Info("hidden")
	logger.Debug("hidden")
	logger.Warn("shown warning")
	logger.Errorf("shown %s", "error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered entries: %q", out)
	}
	if !strings.Contains(out, "[WARN] ") || !strings.Contains(out, "shown warning") {
		t.Errorf("warn entry missing: %q", out)
	}
	if !strings.Contains(out, "[ERROR] ") || !strings.Contains(out, "shown error") {
		t.Errorf("error entry missing: %q", out)
	}
}

func TestTextLogger_WithFieldsAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LevelDebug, Output: &buf})

	ctx := WithRequestID(context.Background(), "req-1")
	logger.WithFields(map[string]interface{}{"b": 2, "a": 1}).WithContext(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "hello a=1 b=2 request_id=req-1") {
		t.Errorf("fields not rendered in sorted order: %q", out)
	}
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Format: "json", Level: LevelInfo, Output: &buf})

	logger.Debug("dropped")
	logger.WithFields(map[string]interface{}{"todo_id": "abc"}).Infof("created %d", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["msg"] != "created 1" {
		t.Errorf("msg = %v, want 'created 1'", entry["msg"])
	}
	if entry["todo_id"] != "abc" {
		t.Errorf("todo_id = %v, want abc", entry["todo_id"])
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", entry["level"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
