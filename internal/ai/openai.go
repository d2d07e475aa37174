package ai

import (
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kozaktomas/stock-metadata/internal/metrics"
)

var openAIModels = map[ModelTier]string{
	TierCheap:   "gpt-4.1-nano",
	TierPremium: "gpt-4.1-mini",
}

// OpenAIProvider implements TextProvider using the OpenAI chat completions API.
type OpenAIProvider struct {
	usageTracker
	client *openai.Client
}

// NewOpenAIProvider creates an OpenAI provider. baseURL is optional.
func NewOpenAIProvider(apiKey, baseURL string, pricing TierPricing) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return &OpenAIProvider{
		usageTracker: usageTracker{pricing: pricing},
		client:       &client,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Model(tier ModelTier) string {
	return openAIModels[tierOrDefault(tier)]
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	tier := tierOrDefault(req.Tier)
	model := p.Model(tier)

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		MaxTokens:   openai.Int(int64(req.MaxTokens)),
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		metrics.ObserveLLMCall(p.Name(), model, time.Since(start), 0, 0, err)
		return "", &ProviderError{Provider: p.Name(), Model: model, Err: err}
	}

	p.trackUsage(tier, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	metrics.ObserveLLMCall(p.Name(), model, time.Since(start), int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens), nil)

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: p.Name(), Model: model, Err: errors.New("no response from OpenAI")}
	}
	return resp.Choices[0].Message.Content, nil
}
