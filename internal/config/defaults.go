package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	defaultDataDir    = "~/.local/share/shortreel"
	defaultOutputDir  = "~/.local/share/shortreel/output"
	defaultLogDir     = "~/.local/share/shortreel/logs"
	defaultLogLevel   = "info"
	defaultLogFormat  = "console"
	defaultRetention  = 30
	defaultMode       = "wordcount"
	defaultWordsLine  = 5
	defaultMaxChars   = 38
	defaultCTAText    = "Subscribe Now!"
	defaultCTASeconds = 5
	defaultCTAFont    = 30

	defaultBannerRatio       = 0.06
	defaultBottomMarginRatio = 0.04
	defaultSideMarginRatio   = 0.05
	defaultFontHeightRatio   = 0.36
	defaultBackgroundOpacity = 160
	defaultStrokeRatio       = 0.08
	defaultShadowPx          = 2

	defaultOpenAIBaseURL  = "https://api.openai.com/v1"
	defaultOpenAIModel    = "gpt-4o-mini"
	defaultGeminiModel    = "gemini-1.5-flash"
	defaultMaxTokens      = 500
	defaultTemperature    = 0.7
	defaultSystemPrompt   = "You are a helpful assistant."
	defaultPromptTemplate = "Write an engaging narration script for a short social media video based on the following content. Keep it under 150 words and return plain text only.\n\n{{content}}"
	defaultLLMTimeout     = 60

	defaultSpeechEngine = "command"
	defaultSpeechCmd    = "espeak-ng"
	defaultSpeechVoice  = "alloy"
	defaultSpeechModel  = "tts-1"
	defaultFadeSeconds  = 2
	defaultVolume       = 1.2

	defaultASRBackend = "whisperx"
	defaultASRModel   = "large-v3"
	defaultVADMethod  = "silero"

	defaultWatchConcurrency = 2
	defaultSettleMillis     = 500
	defaultNtfyTimeout      = 10
)

// Default returns a Config populated with repository defaults. Fields that
// honour environment fallbacks (subtitle mode, words per line, AI provider,
// API keys) are left empty so normalize can consult the environment.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			CacheDir:  defaultCacheDir(),
			BaseVideo: filepath.Join(defaultDataDir, "Video.mp4"),
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetention,
		},
		Subtitles: Subtitles{
			MaxChars: defaultMaxChars,
		},
		Style: Style{
			BannerRatio:       defaultBannerRatio,
			BottomMarginRatio: defaultBottomMarginRatio,
			SideMarginRatio:   defaultSideMarginRatio,
			FontHeightRatio:   defaultFontHeightRatio,
			BackgroundOpacity: defaultBackgroundOpacity,
			StrokeRatio:       defaultStrokeRatio,
			ShadowPx:          defaultShadowPx,
		},
		Render: Render{
			FFmpegBinary:  "ffmpeg",
			FFprobeBinary: "ffprobe",
			Workers:       runtime.NumCPU(),
			VideoCodec:    "libx264",
			AudioCodec:    "aac",
			Preset:        "veryfast",
			CRF:           20,
		},
		ASR: ASR{
			Backend:      defaultASRBackend,
			Model:        defaultASRModel,
			VADMethod:    defaultVADMethod,
			CacheEnabled: true,
		},
		LLM: LLM{
			OpenAIBaseURL:  defaultOpenAIBaseURL,
			OpenAIModel:    defaultOpenAIModel,
			GeminiModel:    defaultGeminiModel,
			MaxTokens:      defaultMaxTokens,
			Temperature:    defaultTemperature,
			SystemPrompt:   defaultSystemPrompt,
			PromptTemplate: defaultPromptTemplate,
			TimeoutSeconds: defaultLLMTimeout,
		},
		Speech: Speech{
			Engine:      defaultSpeechEngine,
			Command:     defaultSpeechCmd,
			Voice:       defaultSpeechVoice,
			Model:       defaultSpeechModel,
			BaseURL:     defaultOpenAIBaseURL,
			Enhance:     true,
			FadeSeconds: defaultFadeSeconds,
			Volume:      defaultVolume,
		},
		CTA: CTA{
			Enabled:  true,
			Text:     defaultCTAText,
			Seconds:  defaultCTASeconds,
			FontSize: defaultCTAFont,
		},
		Export: Export{
			SRT: true,
		},
		Watch: Watch{
			InputDir:      filepath.Join(defaultDataDir, "inbox"),
			MaxConcurrent: defaultWatchConcurrency,
			SettleMillis:  defaultSettleMillis,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "shortreel")
	}
	return "~/.cache/shortreel"
}
