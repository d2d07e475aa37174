package handlers

import (
	"net/http"

	"github.com/kozaktomas/stock-metadata/internal/ai"
	"github.com/kozaktomas/stock-metadata/internal/category"
	"github.com/kozaktomas/stock-metadata/internal/config"
	"github.com/kozaktomas/stock-metadata/internal/constants"
	"github.com/kozaktomas/stock-metadata/internal/keywords"
	"github.com/kozaktomas/stock-metadata/internal/title"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	Providers       []ProviderInfo `json:"providers"`
	DefaultProvider string         `json:"default_provider"`
	Strategies      []string       `json:"strategies"`
	Modes           []ModeInfo     `json:"modes"`
	Tiers           []string       `json:"tiers"`
	Defaults        DefaultsInfo   `json:"defaults"`
}

// ProviderInfo represents information about an AI provider
type ProviderInfo struct {
	Name      string            `json:"name"`
	Available bool              `json:"available"`
	Models    map[string]string `json:"models,omitempty"`
}

// ModeInfo describes a rotation mode.
type ModeInfo struct {
	Mode        string `json:"mode"`
	Description string `json:"description"`
}

// DefaultsInfo holds the default generation settings.
type DefaultsInfo struct {
	Category string `json:"category"`
	Rows     int    `json:"rows"`
	MaxRows  int    `json:"max_rows"`
	HeadSize int    `json:"head_size"`
	Budget   int    `json:"budget"`
	Stride   int    `json:"stride"`
}

func providerModels(name string) map[string]string {
	models := ai.Models(name)
	if models == nil {
		return nil
	}
	out := make(map[string]string, len(models))
	for tier, model := range models {
		out[string(tier)] = model
	}
	return out
}

// Get returns the available configuration
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	providers := []ProviderInfo{
		{
			Name:      constants.ProviderOpenAI,
			Available: h.config.OpenAI.Token != "",
			Models:    providerModels(constants.ProviderOpenAI),
		},
		{
			Name:      constants.ProviderGemini,
			Available: h.config.Gemini.APIKey != "",
			Models:    providerModels(constants.ProviderGemini),
		},
		{
			Name:      constants.ProviderOllama,
			Available: true, // Always available (local)
		},
		{
			Name:      constants.ProviderLlamaCpp,
			Available: true, // Always available (local)
		},
	}

	strategies := make([]string, len(title.Strategies))
	for i, s := range title.Strategies {
		strategies[i] = string(s)
	}

	headSize := h.config.Generation.HeadSize
	modes := make([]ModeInfo, len(keywords.Modes))
	for i, m := range keywords.Modes {
		modes[i] = ModeInfo{Mode: string(m), Description: m.Description(headSize)}
	}

	response := ConfigResponse{
		Providers:       providers,
		DefaultProvider: h.config.AI.Provider,
		Strategies:      strategies,
		Modes:           modes,
		Tiers:           []string{string(ai.TierCheap), string(ai.TierPremium)},
		Defaults: DefaultsInfo{
			Category: constants.DefaultCategory,
			Rows:     constants.DefaultRows,
			MaxRows:  constants.MaxRows,
			HeadSize: headSize,
			Budget:   h.config.Generation.StufferBudget,
			Stride:   h.config.Generation.ConnectorStride,
		},
	}

	respondJSON(w, http.StatusOK, response)
}

// CategoryInfo is one selectable category.
type CategoryInfo struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// Categories returns the fixed category list.
func Categories(w http.ResponseWriter, r *http.Request) {
	out := make([]CategoryInfo, len(category.All))
	for i, c := range category.All {
		out[i] = CategoryInfo{ID: c.ID, Name: c.Name, Label: c.Label()}
	}
	respondJSON(w, http.StatusOK, out)
}
