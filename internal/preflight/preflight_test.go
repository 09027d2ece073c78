package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"shortreel/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckReadableFile(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "Video.mp4")
	if err := os.WriteFile(video, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if r := CheckReadableFile("Base video", video); !r.Passed {
		t.Fatalf("expected pass, got %s", r.Detail)
	}
	if r := CheckReadableFile("Base video", dir); r.Passed {
		t.Fatal("directory should fail")
	}
	if r := CheckReadableFile("Base video", filepath.Join(dir, "missing.mp4")); r.Passed || !strings.Contains(r.Detail, "does not exist") {
		t.Fatalf("missing file result = %+v", r)
	}
	if r := CheckReadableFile("Base video", ""); r.Passed || r.Detail != "not configured" {
		t.Fatalf("blank path result = %+v", r)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Options{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func stubBinaries(t *testing.T, names ...string) {
	t.Helper()
	binDir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(binDir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	t.Setenv("PATH", binDir)
}

func TestRunAll_MinimalConfig(t *testing.T) {
	stubBinaries(t, "ffmpeg", "ffprobe", "espeak-ng")
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.CacheDir = t.TempDir()
	cfg.Subtitles.Mode = "wordcount"

	results := RunAll(context.Background(), &cfg, Options{})
	// output + cache directories, ffmpeg, ffprobe, TTS; optional uvx is skipped
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %s", Summary(failed))
	}
}

func TestRunAll_ReportsMissingInputs(t *testing.T) {
	stubBinaries(t, "ffprobe")
	cfg := config.Default()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.CacheDir = ""
	cfg.Paths.BaseVideo = filepath.Join(t.TempDir(), "Video.mp4")
	cfg.Speech.Engine = "openai"
	cfg.LLM.OpenAIAPIKey = ""
	cfg.LLM.GeminiAPIKey = ""

	failed := Failed(RunAll(context.Background(), &cfg, Options{RequireBaseVideo: true, RequireScript: true}))
	names := make([]string, 0, len(failed))
	for _, r := range failed {
		names = append(names, r.Name)
	}
	got := strings.Join(names, ",")
	if got != "Base video,Script provider,FFmpeg" {
		t.Fatalf("failed checks = %s", got)
	}
	if !strings.Contains(Summary(failed), "FFmpeg: binary \"ffmpeg\" not found") {
		t.Fatalf("summary = %s", Summary(failed))
	}
}
