// Package scriptgen turns extracted document text into a short narration
// script using an OpenAI-compatible chat model, Google Gemini, or both.
//
// In auto mode OpenAI is tried first when keyed and Gemini serves as the
// fallback for any OpenAI failure, including exhausted quota. Model output is
// flattened from markdown to plain prose before it reaches speech synthesis.
package scriptgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/services"
	"shortreel/internal/services/llm"
)

// Provider modes.
const (
	ModeAuto   = "auto"
	ModeOpenAI = "openai"
	ModeGemini = "gemini"
)

// contentPlaceholder is replaced by the source text in the prompt template.
const contentPlaceholder = "{{content}}"

// Provider generates text for a complete prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generator runs providers in order until one succeeds.
type Generator struct {
	providers []Provider
	template  string
	logger    *slog.Logger
}

// NewGenerator returns a Generator trying providers in the given order.
func NewGenerator(template string, logger *slog.Logger, providers ...Provider) *Generator {
	if strings.TrimSpace(template) == "" {
		template = contentPlaceholder
	}
	return &Generator{
		providers: providers,
		template:  template,
		logger:    logging.NewComponentLogger(logger, "scriptgen"),
	}
}

// New builds a Generator from the [llm] config section.
func New(ctx context.Context, cfg config.LLM, logger *slog.Logger) (*Generator, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Provider))
	switch mode {
	case ModeAuto, ModeOpenAI, ModeGemini:
	default:
		logging.WarnWithContext(logging.NewComponentLogger(logger, "scriptgen"), "unknown script provider; using auto", "provider_unknown",
			logging.String("provider", cfg.Provider),
			logging.String(logging.FieldErrorHint, "set llm.provider to auto, openai, or gemini"),
		)
		mode = ModeAuto
	}

	hasOpenAI := strings.TrimSpace(cfg.OpenAIAPIKey) != ""
	hasGemini := strings.TrimSpace(cfg.GeminiAPIKey) != ""
	var providers []Provider
	if hasOpenAI && mode != ModeGemini {
		providers = append(providers, NewOpenAI(cfg))
	}
	if hasGemini && mode != ModeOpenAI {
		gemini, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "scriptgen", "gemini client", "", err)
		}
		providers = append(providers, gemini)
	}
	if len(providers) == 0 {
		msg := "neither OPENAI_API_KEY nor GEMINI_API_KEY is set"
		switch mode {
		case ModeOpenAI:
			msg = "provider openai requires OPENAI_API_KEY"
		case ModeGemini:
			msg = "provider gemini requires GEMINI_API_KEY"
		}
		return nil, services.Wrap(services.ErrConfiguration, "scriptgen", "select provider", msg, nil)
	}
	return NewGenerator(cfg.PromptTemplate, logger, providers...), nil
}

// Providers returns the provider names in the order they are tried.
func (g *Generator) Providers() []string {
	names := make([]string, len(g.providers))
	for i, p := range g.providers {
		names[i] = p.Name()
	}
	return names
}

// Prompt renders the prompt for sourceText.
func (g *Generator) Prompt(sourceText string) string {
	return strings.ReplaceAll(g.template, contentPlaceholder, strings.TrimSpace(sourceText))
}

// Generate returns plain narration text for sourceText.
func (g *Generator) Generate(ctx context.Context, sourceText string) (string, error) {
	if strings.TrimSpace(sourceText) == "" {
		return "", services.Wrap(services.ErrGeneration, "scriptgen", "generate", "empty source text", nil)
	}
	if len(g.providers) == 0 {
		return "", services.Wrap(services.ErrConfiguration, "scriptgen", "generate", "no providers configured", nil)
	}
	logger := logging.WithContext(ctx, g.logger)
	prompt := g.Prompt(sourceText)
	logger.Info("generating script", logging.Int("prompt_chars", len(prompt)), logging.String("providers", strings.Join(g.Providers(), ",")))

	var errs []error
	for i, p := range g.providers {
		raw, err := p.Generate(ctx, prompt)
		if err == nil {
			script := PlainText(raw)
			if script != "" {
				logger.Info("script generated", logging.String("provider", p.Name()), logging.Int("words", len(strings.Fields(script))))
				return script, nil
			}
			err = errors.New("empty script")
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", services.Wrap(services.ErrGeneration, "scriptgen", p.Name(), "", ctxErr)
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if i < len(g.providers)-1 {
			reason := "error"
			if llm.IsQuotaExceeded(err) {
				reason = "insufficient_quota"
			}
			logging.WarnWithContext(logger, "script provider failed; trying next", services.EventProviderFallback,
				logging.String("provider", p.Name()),
				logging.String("next_provider", g.providers[i+1].Name()),
				logging.String("reason", reason),
				logging.Error(err),
				logging.String(logging.FieldImpact, "script generated by fallback provider"),
			)
		}
	}
	return "", services.Wrap(services.ErrGeneration, "scriptgen", "generate", "all providers failed", errors.Join(errs...))
}
