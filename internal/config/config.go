package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/stock-metadata/internal/ai"
	"github.com/kozaktomas/stock-metadata/internal/constants"
)

//go:embed prices.yaml
var pricesYAML []byte

type Config struct {
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	Ollama     OllamaConfig
	LlamaCpp   LlamaCppConfig
	AI         AIConfig
	Generation GenerationConfig
	Log        LogConfig
	Web        WebConfig
	Database   DatabaseConfig
	Prices     PricesConfig
}

type OpenAIConfig struct {
	Token   string
	BaseURL string // optional, for OpenAI compatible gateways
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string // optional
}

type OllamaConfig struct {
	URL   string // defaults to http://localhost:11434
	Model string // defaults to llama3.2:3b
}

type LlamaCppConfig struct {
	URL   string // defaults to http://localhost:8080
	Model string // defaults to llama
}

type AIConfig struct {
	Provider    string        // openai, gemini, ollama or llamacpp
	Timeout     time.Duration // per request (default 30s)
	Concurrency int           // parallel requests (default 5)
	Retries     int           // retries after a failed request (default 2)
}

type GenerationConfig struct {
	HeadSize        int    // rotation head size (default 10)
	StufferBudget   int    // stuffer title budget in characters (default 200)
	ConnectorStride int    // stuffer connector stride (default 3)
	VocabularyFile  string // optional vocabulary override
}

type LogConfig struct {
	Level  string // debug, info, warn, error (default info)
	Format string // console or json (default console)
}

// Run history backends.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMariaDB  = "mariadb"
)

type DatabaseConfig struct {
	Driver       string // memory, postgres or mariadb (default derived from URL)
	URL          string // PostgreSQL URL or MariaDB DSN; empty keeps history in memory
	MaxOpenConns int    // Maximum open connections (default 10)
	MaxIdleConns int    // Maximum idle connections (default 5)
	HistorySize  int    // Runs kept by the memory backend (default 50)
}

// Backend returns the run history backend. An explicit driver wins; otherwise
// postgres:// URLs select PostgreSQL, other non-empty values MariaDB.
func (c *DatabaseConfig) Backend() string {
	if c.Driver != "" {
		return strings.ToLower(c.Driver)
	}
	switch {
	case c.URL == "":
		return DriverMemory
	case strings.HasPrefix(c.URL, "postgres://"), strings.HasPrefix(c.URL, "postgresql://"):
		return DriverPostgres
	default:
		return DriverMariaDB
	}
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

type PricesConfig struct {
	Models map[string]ModelPricing `yaml:"models"`
}

type ModelPricing struct {
	Standard RequestPricing `yaml:"standard"`
	Batch    RequestPricing `yaml:"batch"`
}

type RequestPricing struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envNonNegativeInt is like envInt but also accepts zero.
func envNonNegativeInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return n
	}
	return defaultVal
}

// envDuration reads a Go duration ("45s") or a plain number of seconds.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

func envList(key string) []string {
	var out []string
	for part := range strings.SplitSeq(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func Load() *Config {
	var prices PricesConfig
	if err := yaml.Unmarshal(pricesYAML, &prices); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded prices.yaml: " + err.Error())
	}

	return &Config{
		OpenAI: OpenAIConfig{
			Token:   os.Getenv("OPENAI_TOKEN"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
		},
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			BaseURL: os.Getenv("GEMINI_BASE_URL"),
		},
		Ollama: OllamaConfig{
			URL:   os.Getenv("OLLAMA_URL"),
			Model: os.Getenv("OLLAMA_MODEL"),
		},
		LlamaCpp: LlamaCppConfig{
			URL:   os.Getenv("LLAMACPP_URL"),
			Model: os.Getenv("LLAMACPP_MODEL"),
		},
		AI: AIConfig{
			Provider:    strings.ToLower(envString("AI_PROVIDER", constants.ProviderOpenAI)),
			Timeout:     envDuration("AI_TIMEOUT", 30*time.Second),
			Concurrency: envInt("AI_CONCURRENCY", constants.DefaultAIConcurrency),
			Retries:     envNonNegativeInt("AI_RETRIES", constants.DefaultAIRetries),
		},
		Generation: GenerationConfig{
			HeadSize:        envInt("ROTATION_HEAD_SIZE", constants.DefaultHeadSize),
			StufferBudget:   envInt("STUFFER_BUDGET", constants.DefaultStufferBudget),
			ConnectorStride: envInt("CONNECTOR_STRIDE", constants.DefaultConnectorStride),
			VocabularyFile:  os.Getenv("VOCABULARY_FILE"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "console"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8085),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Driver:       os.Getenv("DATABASE_DRIVER"),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 10),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
			HistorySize:  envInt("HISTORY_SIZE", 50),
		},
		Prices: prices,
	}
}

// GetModelPricing returns pricing for a specific model, with fallback defaults
func (c *Config) GetModelPricing(modelName string) ModelPricing {
	if pricing, ok := c.Prices.Models[modelName]; ok {
		return pricing
	}
	// Return zero pricing if model not found
	return ModelPricing{}
}

// TierPricing returns the standard pricing of each tier of a provider.
// Local providers are free and get an empty table.
func (c *Config) TierPricing(provider string) ai.TierPricing {
	pricing := ai.TierPricing{}
	for tier, model := range ai.Models(provider) {
		p := c.GetModelPricing(model).Standard
		pricing[tier] = ai.RequestPricing{Input: p.Input, Output: p.Output}
	}
	return pricing
}

// ProviderSettings returns everything needed to construct the named provider.
// An empty name selects AI.Provider.
func (c *Config) ProviderSettings(name string) ai.ProviderSettings {
	if name == "" {
		name = c.AI.Provider
	}
	name = strings.ToLower(name)
	return ai.ProviderSettings{
		Name:          name,
		OpenAIToken:   c.OpenAI.Token,
		OpenAIBaseURL: c.OpenAI.BaseURL,
		GeminiAPIKey:  c.Gemini.APIKey,
		GeminiBaseURL: c.Gemini.BaseURL,
		OllamaURL:     c.Ollama.URL,
		OllamaModel:   c.Ollama.Model,
		LlamaCppURL:   c.LlamaCpp.URL,
		LlamaCppModel: c.LlamaCpp.Model,
		Pricing:       c.TierPricing(name),
	}
}
