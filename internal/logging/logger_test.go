package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"facestage/internal/config"
	"facestage/internal/logging"
	"facestage/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (func() string, *logging.Options) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "nested", logging.LogFileName)
	opts := &logging.Options{Format: format, Level: level, File: logPath}
	read := func() string {
		data, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(data)
	}
	return read, opts
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, true)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("kiosk ready")

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, logging.LogFileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "kiosk ready") {
		t.Fatalf("log file missing message: %q", data)
	}
}

func TestConsoleLoggerFoldsSubjectIntoPrefix(t *testing.T) {
	read, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "experience")
	logger.Info("state entered",
		logging.SessionID("0123456789abcdef"),
		logging.State("captureFace"),
		logging.Frame(42),
		logging.Float64("fov", 0.785398),
		logging.String("note", "two words"),
	)

	content := read()
	if !strings.Contains(content, "INFO  [experience] 01234567/captureFace @42 state entered") {
		t.Fatalf("unexpected prefix: %q", content)
	}
	if !strings.Contains(content, ` fov=0.7854 note="two words"`) {
		t.Fatalf("expected trailing fields, got %q", content)
	}
	if strings.Count(content, "\n") != 1 {
		t.Fatalf("expected a single line, got %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
	if strings.Contains(content, "\x1b[") {
		t.Fatalf("file output must not be colored: %q", content)
	}
}

func TestJSONLoggerUsesStandardKeys(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("tick", logging.Frame(7))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["level"] != "info" || entry["msg"] != "tick" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key: %v", entry)
	}
	if entry["frame"] != float64(7) {
		t.Fatalf("unexpected frame: %v", entry["frame"])
	}
}

func TestDebugLevelAddsSource(t *testing.T) {
	read, opts := newFileLogger(t, "console", "debug")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("capture").Debug("poll", logging.Int("landmarks", 68))

	content := read()
	if !strings.Contains(content, "DEBUG poll capture.landmarks=68 (logger_test.go:") {
		t.Fatalf("expected grouped key and source, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "transition rejected", "transition_rejected", logging.Error(errors.New("bad")))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := entry[key]; !ok {
			t.Fatalf("expected %s in %v", key, entry)
		}
	}
	if entry[logging.FieldEventType] != "transition_rejected" {
		t.Fatalf("unexpected event type: %v", entry[logging.FieldEventType])
	}
}

func TestWithContextAddsSessionFields(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	base, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithSessionID(context.Background(), "abc")
	ctx = services.WithState(ctx, "playing")
	logging.WithContext(ctx, base).Info("hello")

	content := read()
	if !strings.Contains(content, `"session_id":"abc"`) || !strings.Contains(content, `"state":"playing"`) {
		t.Fatalf("context fields missing: %q", content)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.WarnWithContext(nil, "ignored", "ignored")
}
