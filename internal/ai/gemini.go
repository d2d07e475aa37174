package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/kozaktomas/stock-metadata/internal/metrics"
)

var geminiModels = map[ModelTier]string{
	TierCheap:   "gemini-2.5-flash-lite",
	TierPremium: "gemini-2.5-flash",
}

// GeminiProvider implements TextProvider using the Gemini API.
type GeminiProvider struct {
	usageTracker
	client *genai.Client
}

// NewGeminiProvider creates a Gemini provider. baseURL is optional.
func NewGeminiProvider(ctx context.Context, apiKey, baseURL string, pricing TierPricing) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		usageTracker: usageTracker{pricing: pricing},
		client:       client,
	}, nil
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) Model(tier ModelTier) string {
	return geminiModels[tierOrDefault(tier)]
}

func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	tier := tierOrDefault(req.Tier)
	model := p.Model(tier)

	// Thinking tokens count against MaxOutputTokens.
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     genai.Ptr(float32(req.Temperature)),
		ThinkingConfig:  &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}

	start := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), config)
	if err != nil {
		metrics.ObserveLLMCall(p.Name(), model, time.Since(start), 0, 0, err)
		return "", &ProviderError{Provider: p.Name(), Model: model, Err: err}
	}

	var in, out int32
	if result.UsageMetadata != nil {
		in = result.UsageMetadata.PromptTokenCount
		out = result.UsageMetadata.CandidatesTokenCount + result.UsageMetadata.ThoughtsTokenCount
		p.trackUsage(tier, int64(in), int64(out))
	}
	metrics.ObserveLLMCall(p.Name(), model, time.Since(start), int(in), int(out), nil)

	content := result.Text()
	if content == "" {
		return "", &ProviderError{Provider: p.Name(), Model: model, Err: errors.New("no response from Gemini")}
	}
	return content, nil
}
