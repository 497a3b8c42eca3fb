package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/sashabaranov/go-openai"

	"plforecast/internal/config"
)

// OpenAIProvider implements Provider over the chat-completions API. Ollama serves the
// same API locally, so both providers share this type.
type OpenAIProvider struct {
	name        string
	client      *openai.Client
	model       string
	temperature float32
	requireKey  bool
	hasKey      bool
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a provider for the hosted OpenAI API.
func NewOpenAIProvider(apiKey, model, baseURL string, temperature float32) *OpenAIProvider {
	apiKey = strings.TrimSpace(apiKey)
	if model == "" {
		model = config.DefaultOpenAIModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		name:        config.ProviderOpenAI,
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		requireKey:  true,
		hasKey:      apiKey != "",
	}
}

// NewOllamaProvider creates a provider for a local Ollama server. No key is needed.
func NewOllamaProvider(model, baseURL string, temperature float32) *OpenAIProvider {
	if model == "" {
		model = config.DefaultOllamaModel
	}
	if baseURL == "" {
		baseURL = config.DefaultOllamaBaseURL
	}
	cfg := openai.DefaultConfig("ollama")
	cfg.BaseURL = baseURL
	return &OpenAIProvider{
		name:        config.ProviderOllama,
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
	}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string { return p.name }

// Generate sends the system prompt and the question as a two-message chat.
func (p *OpenAIProvider) Generate(ctx context.Context, systemPrompt, question string) (string, error) {
	if p.requireKey && !p.hasKey {
		return "", ErrNoAPIKey
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.model,
		Temperature: p.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
	})
	if err != nil {
		// Only a local server is reported as not running; a refused hosted
		// endpoint is an ordinary API failure.
		if p.name == config.ProviderOllama && errors.Is(err, syscall.ECONNREFUSED) {
			return "", fmt.Errorf("%s: %w: %v", p.name, ErrProviderUnavailable, err)
		}
		return "", fmt.Errorf("%s chat completion failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}
