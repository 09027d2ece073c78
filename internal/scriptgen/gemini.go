package scriptgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"shortreel/internal/config"
)

// Gemini generates scripts with the Gemini API.
type Gemini struct {
	model    string
	generate func(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	config   *genai.GenerateContentConfig
	timeout  time.Duration
}

// NewGemini creates a Gemini API client from config.
func NewGemini(ctx context.Context, cfg config.LLM) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	g := newGemini(cfg, client.Models.GenerateContent)
	return g, nil
}

func newGemini(cfg config.LLM, generate func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)) *Gemini {
	g := &Gemini{
		model:    strings.TrimSpace(cfg.GeminiModel),
		generate: generate,
		config:   &genai.GenerateContentConfig{},
	}
	if system := strings.TrimSpace(cfg.SystemPrompt); system != "" {
		g.config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	if cfg.Temperature > 0 {
		temp := float32(cfg.Temperature)
		g.config.Temperature = &temp
	}
	if cfg.TimeoutSeconds > 0 {
		g.timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return g
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	result, err := g.generate(ctx, g.model, genai.Text(prompt), g.config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", errors.New("empty response from Gemini")
	}
	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", errors.New("gemini returned no text")
	}
	return b.String(), nil
}
