package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConfigHandler_Get(t *testing.T) {
	cfg := testConfig()
	cfg.Gemini.APIKey = "gemini-key"
	handler := NewConfigHandler(cfg)

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var response ConfigResponse
	parseJSONResponse(t, recorder, &response)

	available := make(map[string]bool)
	for _, p := range response.Providers {
		available[p.Name] = p.Available
	}
	expected := map[string]bool{"openai": false, "gemini": true, "ollama": true, "llamacpp": true}
	for name, want := range expected {
		if got, ok := available[name]; !ok || got != want {
			t.Errorf("provider %s: expected available=%v, got %v (present=%v)", name, want, got, ok)
		}
	}

	if len(response.Strategies) != 4 {
		t.Errorf("expected 4 strategies, got %v", response.Strategies)
	}
	if len(response.Modes) != 3 || response.Modes[0].Description != "shuffle first 10 keywords, keep the rest" {
		t.Errorf("unexpected modes %+v", response.Modes)
	}
	if response.Defaults.Rows != 100 || response.Defaults.HeadSize != 10 || response.Defaults.Category != "3 - Business" {
		t.Errorf("unexpected defaults %+v", response.Defaults)
	}
	if response.DefaultProvider != "openai" {
		t.Errorf("expected default provider openai, got '%s'", response.DefaultProvider)
	}
}

func TestConfigHandler_Get_ProviderModels(t *testing.T) {
	handler := NewConfigHandler(testConfig())

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/config", nil))

	var response ConfigResponse
	parseJSONResponse(t, recorder, &response)

	for _, p := range response.Providers {
		switch p.Name {
		case "openai":
			if p.Models["cheap"] != "gpt-4.1-nano" {
				t.Errorf("expected openai cheap model gpt-4.1-nano, got %v", p.Models)
			}
		case "ollama":
			if p.Models != nil {
				t.Errorf("expected no model table for ollama, got %v", p.Models)
			}
		}
	}
}

func TestCategories(t *testing.T) {
	recorder := httptest.NewRecorder()
	Categories(recorder, httptest.NewRequest("GET", "/api/v1/categories", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var categories []CategoryInfo
	parseJSONResponse(t, recorder, &categories)

	if len(categories) != 21 {
		t.Fatalf("expected 21 categories, got %d", len(categories))
	}
	if categories[2].Label != "3 - Business" {
		t.Errorf("expected '3 - Business', got '%s'", categories[2].Label)
	}
}
