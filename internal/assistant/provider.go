package assistant

import (
	"context"
	"errors"
	"fmt"

	"plforecast/internal/config"
)

var (
	// ErrNoAPIKey is returned by hosted providers configured without a key.
	ErrNoAPIKey = errors.New("no API key configured")

	// ErrProviderUnavailable is returned when a local model server cannot be reached.
	ErrProviderUnavailable = errors.New("model server unavailable")
)

// Provider answers one question against a system prompt.
type Provider interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, question string) (string, error)
}

// NewProvider builds the provider selected by cfg.Provider. Hosted providers with no
// key are still returned; they fail every call with ErrNoAPIKey.
func NewProvider(cfg config.AssistantConfig) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiProvider(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature), nil
	case config.ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature), nil
	case config.ProviderOllama:
		return NewOllamaProvider(cfg.Model, cfg.BaseURL, cfg.Temperature), nil
	case config.ProviderOffline, "":
		return OfflineProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown assistant provider %q", cfg.Provider)
	}
}

// OfflineProvider never reaches a model; every question gets the missing-key reply.
type OfflineProvider struct{}

// Name implements Provider.
func (OfflineProvider) Name() string { return config.ProviderOffline }

// Generate implements Provider.
func (OfflineProvider) Generate(context.Context, string, string) (string, error) {
	return "", ErrNoAPIKey
}
