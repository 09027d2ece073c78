package scriptgen

import (
	"context"

	"shortreel/internal/config"
	"shortreel/internal/services/llm"
)

// OpenAI generates scripts through an OpenAI-compatible chat endpoint.
type OpenAI struct {
	client *llm.Client
	system string
}

// NewOpenAI builds the provider from config.
func NewOpenAI(cfg config.LLM, opts ...llm.Option) *OpenAI {
	return &OpenAI{
		client: llm.NewClient(llm.Config{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          cfg.OpenAIModel,
			MaxTokens:      cfg.MaxTokens,
			Temperature:    cfg.Temperature,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, opts...),
		system: cfg.SystemPrompt,
	}
}

func (o *OpenAI) Name() string { return "openai:" + o.client.Model() }

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	return o.client.Complete(ctx, o.system, prompt)
}
