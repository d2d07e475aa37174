package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrMissingCredentials is returned when a cloud provider is selected without an API key.
var ErrMissingCredentials = errors.New("missing API credentials")

// ModelTier selects between a cheaper/faster model and a higher quality one.
type ModelTier string

const (
	TierCheap   ModelTier = "cheap"
	TierPremium ModelTier = "premium"
)

// ParseModelTier parses a tier name. Empty input yields TierCheap.
func ParseModelTier(s string) (ModelTier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cheap", "fast", "flash":
		return TierCheap, nil
	case "premium", "quality", "pro":
		return TierPremium, nil
	}
	return "", fmt.Errorf("unknown model tier %q (supported: cheap, premium)", s)
}

// CompletionRequest is a single text generation request.
type CompletionRequest struct {
	Prompt      string
	Tier        ModelTier
	MaxTokens   int
	Temperature float64
}

// TextProvider defines the interface for text generation backends.
type TextProvider interface {
	Name() string
	Model(tier ModelTier) string
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Usage tracking.
	GetUsage() Usage
	ResetUsage()
}

// ProviderError wraps any failure returned by a text generation backend.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Usage tracks token usage and calculates cost.
type Usage struct {
	Requests     int
	InputTokens  int
	OutputTokens int
	TotalCost    float64 // in USD
}

// RequestPricing holds input/output prices per 1M tokens
type RequestPricing struct {
	Input  float64
	Output float64
}

// TierPricing maps each model tier to its pricing.
type TierPricing map[ModelTier]RequestPricing

// usageTracker is embedded by providers; providers are shared between row workers.
type usageTracker struct {
	mu      sync.Mutex
	usage   Usage
	pricing TierPricing
}

func (u *usageTracker) trackUsage(tier ModelTier, inputTokens, outputTokens int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	price := u.pricing[tier]
	u.usage.Requests++
	u.usage.InputTokens += int(inputTokens)
	u.usage.OutputTokens += int(outputTokens)
	u.usage.TotalCost += float64(inputTokens) / 1_000_000 * price.Input
	u.usage.TotalCost += float64(outputTokens) / 1_000_000 * price.Output
}

// GetUsage returns a snapshot of the accumulated usage.
func (u *usageTracker) GetUsage() Usage {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.usage
}

// ResetUsage zeroes out the accumulated usage counters.
func (u *usageTracker) ResetUsage() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.usage = Usage{}
}

func tierOrDefault(tier ModelTier) ModelTier {
	if tier == "" {
		return TierCheap
	}
	return tier
}
