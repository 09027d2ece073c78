package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateASR(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func (c *Config) validateASR() error {
	switch c.ASR.Backend {
	case "whisperx", "json", "none":
	default:
		return fmt.Errorf("asr.backend: unsupported value %q (use whisperx, json, or none)", c.ASR.Backend)
	}
	switch c.ASR.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("asr.vad_method: unsupported value %q", c.ASR.VADMethod)
	}
	if c.ASR.VADMethod == "pyannote" && c.ASR.HFToken == "" {
		return errors.New("asr.hf_token is required for pyannote VAD (or export HF_TOKEN)")
	}
	return nil
}

func (c *Config) validateLLM() error {
	switch c.LLM.Provider {
	case "auto", "openai", "gemini":
	default:
		return fmt.Errorf("llm.provider: unsupported value %q (use auto, openai, or gemini)", c.LLM.Provider)
	}
	if c.LLM.Temperature > 2 {
		return errors.New("llm.temperature must be between 0 and 2")
	}
	if !strings.Contains(c.LLM.PromptTemplate, "{{content}}") {
		return errors.New("llm.prompt_template must contain the {{content}} placeholder")
	}
	return nil
}

func (c *Config) validateSpeech() error {
	switch c.Speech.Engine {
	case "command", "openai":
		return nil
	default:
		return fmt.Errorf("speech.engine: unsupported value %q (use command or openai)", c.Speech.Engine)
	}
}

// RequireScriptProvider reports an error when no key is configured for the
// selected script provider. Commands that only render skip this check.
func (c *Config) RequireScriptProvider() error {
	switch c.LLM.Provider {
	case "openai":
		if c.LLM.OpenAIAPIKey == "" {
			return errors.New("llm.openai_api_key is required (or export OPENAI_API_KEY)")
		}
	case "gemini":
		if c.LLM.GeminiAPIKey == "" {
			return errors.New("llm.gemini_api_key is required (or export GEMINI_API_KEY)")
		}
	default:
		if c.LLM.OpenAIAPIKey == "" && c.LLM.GeminiAPIKey == "" {
			return errors.New("no script provider configured: set OPENAI_API_KEY or GEMINI_API_KEY")
		}
	}
	return nil
}
