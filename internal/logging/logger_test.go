package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/services"
)

func TestNewFromConfigWritesJSONLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello", logging.String("key", "value"))

	data, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "shortreel.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", data, err)
	}
	if entry["msg"] != "hello" || entry["key"] != "value" {
		t.Fatalf("unexpected entry: %v", entry)
	}
	if entry["level"] != "info" {
		t.Fatalf("expected lower-case level, got %v", entry["level"])
	}
}

func TestConsoleLoggerFormatsComponentAndStage(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	color := false
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}, Color: &color})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStage(context.Background(), "encode")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "overlay")).Info("banners rendered", logging.Int("count", 3))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := string(content)
	for _, fragment := range []string{"INFO", "overlay[encode]: banners rendered", "count=3"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no ANSI codes, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnWithContext(logger, "asr backend unavailable", "asr_unavailable",
		logging.String(logging.FieldImpact, "no subtitles rendered"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != "asr_unavailable" {
		t.Fatalf("missing event_type: %v", entry)
	}
	if entry[logging.FieldErrorHint] == nil {
		t.Fatalf("missing error_hint: %v", entry)
	}
	if entry[logging.FieldImpact] != "no subtitles rendered" {
		t.Fatalf("impact overwritten: %v", entry)
	}
}

func TestWarnDegradedUsesEventAndImpact(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logging.WarnDegraded(logger, "render degraded", services.Degradation{
		Event:  services.EventGlyphFallback,
		Detail: "2 glyphs replaced",
		Impact: "some characters drawn as boxes",
	})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry[logging.FieldEventType] != services.EventGlyphFallback {
		t.Fatalf("event_type = %v", entry[logging.FieldEventType])
	}
	if entry[logging.FieldImpact] != "some characters drawn as boxes" || entry["detail"] != "2 glyphs replaced" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestTeeLoggerDuplicatesRecords(t *testing.T) {
	var first, second bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&first, nil))
	logger := logging.TeeLogger(base, slog.NewJSONHandler(&second, &slog.HandlerOptions{Level: slog.LevelWarn}))

	logger.Info("info only")
	logger.Warn("both")

	if strings.Count(first.String(), "\n") != 2 {
		t.Fatalf("expected 2 lines in base handler, got %q", first.String())
	}
	if strings.Count(second.String(), "\n") != 1 || !strings.Contains(second.String(), "both") {
		t.Fatalf("expected only the warning in the second handler, got %q", second.String())
	}
}

func TestRunLoggerWritesPerRunFile(t *testing.T) {
	dir := t.TempDir()
	logger, path, closeFn, err := logging.RunLogger(logging.NewNop(), dir, "abc123")
	if err != nil {
		t.Fatalf("RunLogger: %v", err)
	}
	logger.Debug("stage started")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if filepath.Base(path) != "run-abc123.log" {
		t.Fatalf("unexpected run log path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(data), `"run_id":"abc123"`) {
		t.Fatalf("expected run id in %q", data)
	}
}

func TestCleanupOldLogsRemovesExpiredRunLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "run-old.log")
	fresh := filepath.Join(dir, "run-new.log")
	other := filepath.Join(dir, "shortreel.log")
	for _, p := range []string{old, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, p := range []string{old, other} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTarget{Dir: dir, Pattern: logging.RunLogPattern})
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed", old)
	}
	for _, p := range []string{fresh, other} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s kept: %v", p, err)
		}
	}
	if logging.CleanupOldLogs(nil, 0, logging.RetentionTarget{Dir: dir}) != 0 {
		t.Fatal("retention 0 should disable pruning")
	}
}
