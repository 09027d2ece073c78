package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"shortreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = base
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.BaseVideo = filepath.Join(base, "Video.mp4")
	cfgVal.Watch.InputDir = filepath.Join(base, "inbox")
	cfgVal.Subtitles.Mode = "wordcount"
	cfgVal.Subtitles.WordsPerLine = 5
	cfgVal.LLM.Provider = "auto"
	cfgVal.ASR.Backend = "none"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithOpenAIKey sets the OpenAI key and points the client at baseURL.
func WithOpenAIKey(key, baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.OpenAIAPIKey = key
		if baseURL != "" {
			b.cfg.LLM.OpenAIBaseURL = baseURL
			b.cfg.Speech.BaseURL = baseURL
		}
	}
}

// WithBaseVideo writes a placeholder base video so path checks pass.
func WithBaseVideo() ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Paths.BaseVideo, 64)
	}
}

// WithDirectories creates the output, log, and cache directories.
func WithDirectories() ConfigOption {
	return func(b *configBuilder) {
		if err := b.cfg.EnsureDirectories(); err != nil {
			b.t.Fatalf("ensure directories: %v", err)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg, ffprobe, and the
// default TTS command are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe", b.cfg.Speech.Command}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.DataDir
}
