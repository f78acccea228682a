package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIGenerator generates completions through any OpenAI-compatible chat
// completions API. A custom base URL covers Groq, Together, Fireworks and
// similar providers.
type OpenAIGenerator struct {
	client      openai.Client
	model       string
	temperature float64
}

// OpenAIConfig configures an OpenAIGenerator.
type OpenAIConfig struct {
	APIKey string

	// BaseURL overrides the API endpoint for compatible providers.
	// Empty means api.openai.com.
	BaseURL string

	// Model defaults to gpt-4o-mini.
	Model string

	// Temperature defaults to 0.2, the assistant's original setting.
	Temperature float64
}

// NewOpenAIGenerator creates a generator for an OpenAI-compatible backend.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}
	return &OpenAIGenerator{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: temperature,
	}
}

// Generate runs one chat completion and returns the first choice's text.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt, system string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(g.model),
		Messages:    messages,
		Temperature: openai.Float(g.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
