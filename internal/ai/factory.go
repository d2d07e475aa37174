package ai

import (
	"context"
	"fmt"
	"maps"

	"github.com/kozaktomas/stock-metadata/internal/constants"
)

// ProviderSettings holds everything needed to construct any TextProvider.
type ProviderSettings struct {
	Name          string
	OpenAIToken   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiBaseURL string
	OllamaURL     string
	OllamaModel   string
	LlamaCppURL   string
	LlamaCppModel string
	Pricing       TierPricing
}

// NewProvider creates the TextProvider selected by settings.Name.
func NewProvider(ctx context.Context, settings ProviderSettings) (TextProvider, error) {
	switch settings.Name {
	case constants.ProviderOpenAI:
		p, err := NewOpenAIProvider(settings.OpenAIToken, settings.OpenAIBaseURL, settings.Pricing)
		if err != nil {
			return nil, fmt.Errorf("OPENAI_TOKEN environment variable is required: %w", err)
		}
		return p, nil
	case constants.ProviderGemini:
		if settings.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required: %w", ErrMissingCredentials)
		}
		p, err := NewGeminiProvider(ctx, settings.GeminiAPIKey, settings.GeminiBaseURL, settings.Pricing)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini provider: %w", err)
		}
		return p, nil
	case constants.ProviderOllama:
		return NewOllamaProvider(settings.OllamaURL, settings.OllamaModel), nil
	case constants.ProviderLlamaCpp:
		p, err := NewLlamaCppProvider(settings.LlamaCppURL, settings.LlamaCppModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp provider: %w", err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown provider: %s (supported: openai, gemini, ollama, llamacpp)", settings.Name)
}

// Models returns the tier to model mapping of a cloud provider, or nil for
// local backends which serve one configured model for every tier.
func Models(provider string) map[ModelTier]string {
	switch provider {
	case constants.ProviderOpenAI:
		return maps.Clone(openAIModels)
	case constants.ProviderGemini:
		return maps.Clone(geminiModels)
	}
	return nil
}
