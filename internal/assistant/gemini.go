package assistant

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"plforecast/internal/config"
)

// GeminiProvider implements Provider with Google's Gemini models.
type GeminiProvider struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float32
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider. An empty model selects the default;
// baseURL overrides the API endpoint and is normally empty.
func NewGeminiProvider(apiKey, model, baseURL string, temperature float32) *GeminiProvider {
	if model == "" {
		model = config.DefaultGeminiModel
	}
	return &GeminiProvider{
		apiKey:      strings.TrimSpace(apiKey),
		model:       model,
		baseURL:     baseURL,
		temperature: temperature,
	}
}

// Name implements Provider.
func (p *GeminiProvider) Name() string { return config.ProviderGemini }

// Generate sends one generateContent request with the system prompt as system instruction.
func (p *GeminiProvider) Generate(ctx context.Context, systemPrompt, question string) (string, error) {
	if p.apiKey == "" {
		return "", ErrNoAPIKey
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if p.baseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return "", fmt.Errorf("failed to create GenAI client: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.temperature),
	}
	if systemPrompt != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		}
	}

	result, err := client.Models.GenerateContent(ctx, p.model, genai.Text(question), genCfg)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}
	return result.Text(), nil
}
