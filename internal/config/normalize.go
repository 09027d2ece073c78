package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeSubtitles()
	c.normalizeStyle()
	c.normalizeRender()
	if err := c.normalizeASR(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeSpeech()
	c.normalizeCTA()
	c.normalizeWatch()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"paths.data_dir", &c.Paths.DataDir},
		{"paths.output_dir", &c.Paths.OutputDir},
		{"paths.log_dir", &c.Paths.LogDir},
		{"paths.cache_dir", &c.Paths.CacheDir},
		{"paths.base_video", &c.Paths.BaseVideo},
		{"subtitles.segments_file", &c.Subtitles.SegmentsFile},
		{"asr.json_path", &c.ASR.JSONPath},
		{"watch.input_dir", &c.Watch.InputDir},
	}
	for _, f := range fields {
		expanded, err := expandPath(strings.TrimSpace(*f.value))
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	for i, p := range c.Style.FontPaths {
		expanded, err := expandPath(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("style.font_paths[%d]: %w", i, err)
		}
		c.Style.FontPaths[i] = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeSubtitles() {
	mode := strings.TrimSpace(c.Subtitles.Mode)
	if mode == "" {
		mode = os.Getenv("SUBTITLE_MODE")
	}
	// captions.ParseMode owns the mode set; unknown values resolve there.
	c.Subtitles.Mode = strings.ToLower(strings.TrimSpace(mode))
	if c.Subtitles.Mode == "" {
		c.Subtitles.Mode = defaultMode
	}

	if c.Subtitles.WordsPerLine <= 0 {
		if value, ok := os.LookupEnv("WORDS_PER_LINE"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
				c.Subtitles.WordsPerLine = n
			}
		}
	}
	if c.Subtitles.WordsPerLine <= 0 {
		c.Subtitles.WordsPerLine = defaultWordsLine
	}
	if c.Subtitles.MaxChars <= 0 {
		c.Subtitles.MaxChars = defaultMaxChars
	}
}

func (c *Config) normalizeStyle() {
	ratio := func(value *float64, fallback float64) {
		if *value <= 0 || *value >= 1 {
			*value = fallback
		}
	}
	ratio(&c.Style.BannerRatio, defaultBannerRatio)
	ratio(&c.Style.BottomMarginRatio, defaultBottomMarginRatio)
	ratio(&c.Style.SideMarginRatio, defaultSideMarginRatio)
	ratio(&c.Style.FontHeightRatio, defaultFontHeightRatio)
	ratio(&c.Style.StrokeRatio, defaultStrokeRatio)
	if c.Style.BackgroundOpacity < 0 {
		c.Style.BackgroundOpacity = defaultBackgroundOpacity
	}
	if c.Style.BackgroundOpacity > 255 {
		c.Style.BackgroundOpacity = 255
	}
	if c.Style.ShadowPx < 0 {
		c.Style.ShadowPx = 0
	}
}

func (c *Config) normalizeRender() {
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	if c.Render.FFmpegBinary == "" {
		c.Render.FFmpegBinary = "ffmpeg"
	}
	c.Render.FFprobeBinary = strings.TrimSpace(c.Render.FFprobeBinary)
	if c.Render.FFprobeBinary == "" {
		c.Render.FFprobeBinary = "ffprobe"
	}
	if c.Render.Workers <= 0 {
		c.Render.Workers = runtime.NumCPU()
	}
	if strings.TrimSpace(c.Render.VideoCodec) == "" {
		c.Render.VideoCodec = "libx264"
	}
	if strings.TrimSpace(c.Render.AudioCodec) == "" {
		c.Render.AudioCodec = "aac"
	}
	if c.Render.CRF < 0 || c.Render.CRF > 51 {
		c.Render.CRF = 20
	}
}

func (c *Config) normalizeASR() error {
	c.ASR.Backend = strings.ToLower(strings.TrimSpace(c.ASR.Backend))
	if c.ASR.Backend == "" {
		c.ASR.Backend = defaultASRBackend
	}
	if strings.TrimSpace(c.ASR.Model) == "" {
		c.ASR.Model = defaultASRModel
	}
	c.ASR.VADMethod = strings.ToLower(strings.TrimSpace(c.ASR.VADMethod))
	if c.ASR.VADMethod == "" {
		c.ASR.VADMethod = defaultVADMethod
	}
	c.ASR.HFToken = strings.TrimSpace(c.ASR.HFToken)
	if c.ASR.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.ASR.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.ASR.HFToken = strings.TrimSpace(value)
		}
	}
	if c.ASR.Backend == "json" && c.ASR.JSONPath == "" {
		return fmt.Errorf("asr.json_path is required when asr.backend is json")
	}
	return nil
}

func (c *Config) normalizeLLM() {
	provider := strings.TrimSpace(c.LLM.Provider)
	if provider == "" {
		provider = os.Getenv("AI_PROVIDER")
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = "auto"
	}
	c.LLM.OpenAIAPIKey = strings.TrimSpace(c.LLM.OpenAIAPIKey)
	if c.LLM.OpenAIAPIKey == "" {
		c.LLM.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	c.LLM.GeminiAPIKey = strings.TrimSpace(c.LLM.GeminiAPIKey)
	if c.LLM.GeminiAPIKey == "" {
		c.LLM.GeminiAPIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if strings.TrimSpace(c.LLM.OpenAIBaseURL) == "" {
		c.LLM.OpenAIBaseURL = defaultOpenAIBaseURL
	}
	if strings.TrimSpace(c.LLM.OpenAIModel) == "" {
		c.LLM.OpenAIModel = defaultOpenAIModel
	}
	if strings.TrimSpace(c.LLM.GeminiModel) == "" {
		c.LLM.GeminiModel = defaultGeminiModel
	}
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultMaxTokens
	}
	if c.LLM.Temperature < 0 {
		c.LLM.Temperature = defaultTemperature
	}
	if strings.TrimSpace(c.LLM.SystemPrompt) == "" {
		c.LLM.SystemPrompt = defaultSystemPrompt
	}
	if strings.TrimSpace(c.LLM.PromptTemplate) == "" {
		c.LLM.PromptTemplate = defaultPromptTemplate
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeout
	}
}

func (c *Config) normalizeSpeech() {
	c.Speech.Engine = strings.ToLower(strings.TrimSpace(c.Speech.Engine))
	if c.Speech.Engine == "" {
		c.Speech.Engine = defaultSpeechEngine
	}
	if strings.TrimSpace(c.Speech.Command) == "" {
		c.Speech.Command = defaultSpeechCmd
	}
	if strings.TrimSpace(c.Speech.Voice) == "" {
		c.Speech.Voice = defaultSpeechVoice
	}
	if strings.TrimSpace(c.Speech.Model) == "" {
		c.Speech.Model = defaultSpeechModel
	}
	if strings.TrimSpace(c.Speech.BaseURL) == "" {
		c.Speech.BaseURL = c.LLM.OpenAIBaseURL
	}
	if c.Speech.FadeSeconds < 0 {
		c.Speech.FadeSeconds = defaultFadeSeconds
	}
	if c.Speech.Volume <= 0 {
		c.Speech.Volume = defaultVolume
	}
}

func (c *Config) normalizeCTA() {
	c.CTA.Text = strings.TrimSpace(c.CTA.Text)
	if c.CTA.Text == "" {
		c.CTA.Text = defaultCTAText
	}
	if c.CTA.Seconds <= 0 {
		c.CTA.Seconds = defaultCTASeconds
	}
	if c.CTA.FontSize <= 0 {
		c.CTA.FontSize = defaultCTAFont
	}
	c.CTA.URL = strings.TrimSpace(c.CTA.URL)
}

func (c *Config) normalizeWatch() {
	if c.Watch.MaxConcurrent <= 0 {
		c.Watch.MaxConcurrent = defaultWatchConcurrency
	}
	if c.Watch.SettleMillis < 0 {
		c.Watch.SettleMillis = defaultSettleMillis
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		c.Notifications.NtfyTopic = strings.TrimSpace(os.Getenv("NTFY_TOPIC"))
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}
