package config

import (
	"os"
	"slices"
	"testing"
	"time"

	"github.com/kozaktomas/stock-metadata/internal/ai"
)

func TestGetModelPricing_KnownModel(t *testing.T) {
	cfg := Load() // Load actual config with embedded prices

	pricing := cfg.GetModelPricing("gpt-4.1-mini")

	// Should have non-zero pricing for standard mode
	if pricing.Standard.Input == 0 && pricing.Standard.Output == 0 {
		t.Error("expected non-zero pricing for gpt-4.1-mini standard mode")
	}

	if pricing.Standard.Input != 0.40 {
		t.Errorf("expected standard input price 0.40, got %f", pricing.Standard.Input)
	}

	if pricing.Standard.Output != 1.60 {
		t.Errorf("expected standard output price 1.60, got %f", pricing.Standard.Output)
	}
}

func TestGetModelPricing_BatchPricing(t *testing.T) {
	cfg := Load()

	pricing := cfg.GetModelPricing("gpt-4.1-mini")

	// Batch pricing should be 50% of standard
	if pricing.Batch.Input != 0.20 {
		t.Errorf("expected batch input price 0.20, got %f", pricing.Batch.Input)
	}

	if pricing.Batch.Output != 0.80 {
		t.Errorf("expected batch output price 0.80, got %f", pricing.Batch.Output)
	}
}

func TestGetModelPricing_LocalModel(t *testing.T) {
	cfg := Load()

	pricing := cfg.GetModelPricing("llama3.2:3b")

	if pricing.Standard.Input != 0 || pricing.Standard.Output != 0 {
		t.Errorf("expected local model to be free, got %+v", pricing.Standard)
	}
}

func TestGetModelPricing_UnknownModel(t *testing.T) {
	cfg := Load()

	pricing := cfg.GetModelPricing("unknown-model-xyz")

	// Unknown model should return zero pricing
	if pricing.Standard.Input != 0 || pricing.Standard.Output != 0 {
		t.Errorf("expected zero pricing for unknown model, got input=%f output=%f",
			pricing.Standard.Input, pricing.Standard.Output)
	}
}

func TestLoad_PricesLoaded(t *testing.T) {
	cfg := Load()

	// Every model a cloud provider can select must be priced
	for _, provider := range []string{"openai", "gemini"} {
		for _, model := range ai.Models(provider) {
			if _, ok := cfg.Prices.Models[model]; !ok {
				t.Errorf("expected model '%s' to be in prices", model)
			}
		}
	}
}

func TestTierPricing(t *testing.T) {
	cfg := Load()

	pricing := cfg.TierPricing("gemini")
	if pricing[ai.TierCheap].Input != 0.10 {
		t.Errorf("expected cheap input 0.10, got %f", pricing[ai.TierCheap].Input)
	}
	if pricing[ai.TierPremium].Output != 2.50 {
		t.Errorf("expected premium output 2.50, got %f", pricing[ai.TierPremium].Output)
	}

	if local := cfg.TierPricing("ollama"); len(local) != 0 {
		t.Errorf("expected empty pricing for local provider, got %v", local)
	}
}

func TestProviderSettings(t *testing.T) {
	t.Setenv("AI_PROVIDER", "Gemini")
	t.Setenv("GEMINI_API_KEY", "gemini-api-key-456")
	t.Setenv("GEMINI_BASE_URL", "http://gemini.local/")
	t.Setenv("OLLAMA_MODEL", "llava:13b")

	cfg := Load()

	settings := cfg.ProviderSettings("")
	if settings.Name != "gemini" {
		t.Errorf("expected provider 'gemini', got '%s'", settings.Name)
	}
	if settings.GeminiAPIKey != "gemini-api-key-456" {
		t.Errorf("expected Gemini API key, got '%s'", settings.GeminiAPIKey)
	}
	if settings.GeminiBaseURL != "http://gemini.local/" {
		t.Errorf("expected Gemini base URL, got '%s'", settings.GeminiBaseURL)
	}
	if len(settings.Pricing) != 2 {
		t.Errorf("expected pricing for 2 tiers, got %d", len(settings.Pricing))
	}

	override := cfg.ProviderSettings("ollama")
	if override.Name != "ollama" || override.OllamaModel != "llava:13b" {
		t.Errorf("unexpected override settings %+v", override)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"AI_PROVIDER", "AI_TIMEOUT", "AI_CONCURRENCY", "AI_RETRIES",
		"ROTATION_HEAD_SIZE", "STUFFER_BUDGET", "CONNECTOR_STRIDE",
		"LOG_LEVEL", "LOG_FORMAT", "WEB_HOST", "WEB_PORT", "WEB_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.AI.Provider != "openai" {
		t.Errorf("expected default provider openai, got '%s'", cfg.AI.Provider)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", cfg.AI.Timeout)
	}
	if cfg.AI.Concurrency != 5 || cfg.AI.Retries != 2 {
		t.Errorf("unexpected AI defaults %+v", cfg.AI)
	}
	if cfg.Generation.HeadSize != 10 || cfg.Generation.StufferBudget != 200 || cfg.Generation.ConnectorStride != 3 {
		t.Errorf("unexpected generation defaults %+v", cfg.Generation)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("unexpected log defaults %+v", cfg.Log)
	}
	if cfg.Web.Port != 8085 || cfg.Web.AllowedOrigins != nil {
		t.Errorf("unexpected web defaults %+v", cfg.Web)
	}
}

func TestLoad_HeadSize(t *testing.T) {
	tests := []struct {
		value    string
		expected int
	}{
		{"7", 7},
		{"10", 10},
		{"invalid", 10},
		{"-3", 10},
		{"0", 10},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("ROTATION_HEAD_SIZE", tt.value)
			cfg := Load()
			if cfg.Generation.HeadSize != tt.expected {
				t.Errorf("expected head size %d, got %d", tt.expected, cfg.Generation.HeadSize)
			}
		})
	}
}

func TestLoad_AIRetries(t *testing.T) {
	t.Setenv("AI_RETRIES", "0")
	if got := Load().AI.Retries; got != 0 {
		t.Errorf("expected 0 retries, got %d", got)
	}

	t.Setenv("AI_RETRIES", "-1")
	if got := Load().AI.Retries; got != 2 {
		t.Errorf("expected default retries for negative input, got %d", got)
	}
}

func TestLoad_AITimeout(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"45s", 45 * time.Second},
		{"2m", 2 * time.Minute},
		{"10", 10 * time.Second},
		{"soon", 30 * time.Second},
		{"-5s", 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("AI_TIMEOUT", tt.value)
			if got := Load().AI.Timeout; got != tt.expected {
				t.Errorf("expected timeout %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", "http://localhost:5173, https://stock.example.com,,")

	cfg := Load()

	expected := []string{"http://localhost:5173", "https://stock.example.com"}
	if !slices.Equal(cfg.Web.AllowedOrigins, expected) {
		t.Errorf("expected origins %v, got %v", expected, cfg.Web.AllowedOrigins)
	}
}

func TestLoad_OpenAIConfig(t *testing.T) {
	t.Setenv("OPENAI_TOKEN", "sk-test-token-123")
	t.Setenv("OPENAI_BASE_URL", "http://gateway.local/v1")

	cfg := Load()

	if cfg.OpenAI.Token != "sk-test-token-123" {
		t.Errorf("expected OpenAI token 'sk-test-token-123', got '%s'", cfg.OpenAI.Token)
	}
	if cfg.OpenAI.BaseURL != "http://gateway.local/v1" {
		t.Errorf("expected base URL, got '%s'", cfg.OpenAI.BaseURL)
	}
}

func TestLoad_EmptyEnvVars(t *testing.T) {
	// Clear all relevant env vars
	os.Unsetenv("OPENAI_TOKEN")
	os.Unsetenv("GEMINI_API_KEY")

	cfg := Load()

	// Should not panic, should return empty strings
	if cfg.OpenAI.Token != "" {
		t.Errorf("expected empty OpenAI token, got '%s'", cfg.OpenAI.Token)
	}
	if cfg.Gemini.APIKey != "" {
		t.Errorf("expected empty Gemini key, got '%s'", cfg.Gemini.APIKey)
	}
}

func TestDatabaseConfig_Backend(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		url    string
		want   string
	}{
		{"no url", "", "", DriverMemory},
		{"postgres url", "", "postgres://user:pass@db:5432/stock?sslmode=disable", DriverPostgres},
		{"postgresql url", "", "postgresql://db/stock", DriverPostgres},
		{"mysql dsn", "", "user:pass@tcp(db:3306)/stock", DriverMariaDB},
		{"explicit driver", "Postgres", "host=db dbname=stock", DriverPostgres},
		{"explicit memory", "memory", "postgres://db/stock", DriverMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DatabaseConfig{Driver: tt.driver, URL: tt.url}
			if got := cfg.Backend(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestLoad_DatabaseConfig(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/stock")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "3")
	t.Setenv("DATABASE_MAX_IDLE_CONNS", "")
	t.Setenv("HISTORY_SIZE", "")

	cfg := Load()
	if cfg.Database.URL != "postgres://db/stock" {
		t.Errorf("expected database url, got %q", cfg.Database.URL)
	}
	if cfg.Database.MaxOpenConns != 3 {
		t.Errorf("expected 3 open conns, got %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 5 {
		t.Errorf("expected default 5 idle conns, got %d", cfg.Database.MaxIdleConns)
	}
	if cfg.Database.HistorySize != 50 {
		t.Errorf("expected default history size 50, got %d", cfg.Database.HistorySize)
	}
}
