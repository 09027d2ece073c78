package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and default input locations.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	CacheDir  string `toml:"cache_dir"`
	// BaseVideo is the background clip subtitles and narration are laid over.
	BaseVideo string `toml:"base_video"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Subtitles selects how subtitle segments are produced.
type Subtitles struct {
	// Mode is one of manual, wordcount, asr. Falls back to SUBTITLE_MODE, then wordcount.
	Mode string `toml:"mode"`
	// WordsPerLine applies to wordcount mode. Falls back to WORDS_PER_LINE, then 5.
	WordsPerLine int `toml:"words_per_line"`
	// MaxChars is the per-line character budget in asr mode.
	MaxChars int `toml:"max_chars"`
	// SegmentsFile supplies manual segments (.yaml, .json, or .srt).
	SegmentsFile string `toml:"segments_file"`
}

// Style holds proportional banner styling. Ratios are fractions of the video
// (or banner) dimensions so output looks the same at any resolution.
type Style struct {
	BannerRatio       float64  `toml:"banner_ratio"`
	BottomMarginRatio float64  `toml:"bottom_margin_ratio"`
	SideMarginRatio   float64  `toml:"side_margin_ratio"`
	FontHeightRatio   float64  `toml:"font_height_ratio"`
	BackgroundOpacity int      `toml:"bg_opacity"`
	StrokeRatio       float64  `toml:"stroke_ratio"`
	ShadowPx          int      `toml:"shadow_px"`
	KeepSubImages     bool     `toml:"keep_sub_images"`
	FontPaths         []string `toml:"font_paths"`
}

// Render contains encoder settings for the overlay compositor.
type Render struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	Workers       int    `toml:"workers"`
	VideoCodec    string `toml:"video_codec"`
	AudioCodec    string `toml:"audio_codec"`
	Preset        string `toml:"preset"`
	CRF           int    `toml:"crf"`
}

// ASR contains speech recognition settings used by the asr subtitle mode.
type ASR struct {
	// Backend is whisperx, json, or none.
	Backend      string `toml:"backend"`
	Model        string `toml:"model"`
	CUDAEnabled  bool   `toml:"cuda_enabled"`
	VADMethod    string `toml:"vad_method"`
	HFToken      string `toml:"hf_token"`
	Language     string `toml:"language"`
	JSONPath     string `toml:"json_path"`
	CacheEnabled bool   `toml:"cache_enabled"`
}

// LLM contains script generation settings.
type LLM struct {
	// Provider is auto, openai, or gemini. Falls back to AI_PROVIDER, then auto.
	Provider       string  `toml:"provider"`
	OpenAIAPIKey   string  `toml:"openai_api_key"`
	OpenAIBaseURL  string  `toml:"openai_base_url"`
	OpenAIModel    string  `toml:"openai_model"`
	GeminiAPIKey   string  `toml:"gemini_api_key"`
	GeminiModel    string  `toml:"gemini_model"`
	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
	SystemPrompt   string  `toml:"system_prompt"`
	PromptTemplate string  `toml:"prompt_template"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// Speech contains text-to-speech settings.
type Speech struct {
	// Engine is command or openai.
	Engine      string   `toml:"engine"`
	Command     string   `toml:"command"`
	Args        []string `toml:"args"`
	Voice       string   `toml:"voice"`
	Model       string   `toml:"model"`
	BaseURL     string   `toml:"base_url"`
	Enhance     bool     `toml:"enhance"`
	FadeSeconds float64  `toml:"fade_seconds"`
	Volume      float64  `toml:"volume"`
}

// CTA contains the closing call-to-action card settings.
type CTA struct {
	Enabled  bool    `toml:"enabled"`
	Text     string  `toml:"text"`
	Seconds  float64 `toml:"seconds"`
	FontSize int     `toml:"font_size"`
	URL      string  `toml:"url"`
}

// Export toggles side artifacts written next to the rendered video.
type Export struct {
	SRT        bool `toml:"srt"`
	ScriptDocx bool `toml:"script_docx"`
}

// Watch contains settings for the directory watcher.
type Watch struct {
	InputDir      string `toml:"input_dir"`
	MaxConcurrent int    `toml:"max_concurrent"`
	SettleMillis  int    `toml:"settle_millis"`
}

// Notifications contains ntfy settings for run completion and failure alerts.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-shorts. Empty disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Config encapsulates all configuration values for shortreel.
//
// Configuration sections by subsystem:
//   - Paths: data, output, log, and cache directories plus the base video
//   - Logging: log format, level, and retention
//   - Subtitles: segment mode and line sizing
//   - Style: banner proportions and fonts
//   - Render: ffmpeg binaries, encoder settings, banner workers
//   - ASR: WhisperX transcription for asr mode
//   - LLM: narration script generation
//   - Speech: narration synthesis and enhancement
//   - CTA: closing call-to-action card
//   - Export: SRT and DOCX side outputs
//   - Watch: input directory monitoring
//   - Notifications: ntfy alerts for finished and failed runs
type Config struct {
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`
	Subtitles Subtitles `toml:"subtitles"`
	Style     Style     `toml:"style"`
	Render    Render    `toml:"render"`
	ASR       ASR       `toml:"asr"`
	LLM       LLM       `toml:"llm"`
	Speech    Speech    `toml:"speech"`
	CTA       CTA       `toml:"cta"`
	Export    Export    `toml:"export"`
	Watch     Watch     `toml:"watch"`

	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shortreel/config.toml")
}

// Load locates, parses, and validates a configuration file. Any .env file in
// the working directory or next to the config file is loaded first without
// overriding variables that are already set. The returned config has all path
// fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := LoadDotEnv(".env", filepath.Join(filepath.Dir(resolvedPath), ".env")); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// LoadDotEnv loads the given .env files, skipping any that do not exist.
// Variables already present in the environment win.
func LoadDotEnv(paths ...string) error {
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load %s: %w", abs, err)
		}
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shortreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output, log, and cache directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, c.Paths.CacheDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RunLogDir is where per-run JSON logs are written.
func (c *Config) RunLogDir() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "runs")
}

// ASRCachePath is the sqlite database caching transcribed words.
func (c *Config) ASRCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "asr_words.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
