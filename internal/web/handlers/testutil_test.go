package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/stock-metadata/internal/ai"
	"github.com/kozaktomas/stock-metadata/internal/config"
)

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Provider:    "openai",
			Timeout:     time.Second,
			Concurrency: 2,
		},
		Generation: config.GenerationConfig{
			HeadSize:        10,
			StufferBudget:   200,
			ConnectorStride: 3,
		},
	}
}

// fakeProvider answers every prompt with a fixed reply, optionally blocking
// until release is closed.
type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	release chan struct{}
	calls   int
}

func (f *fakeProvider) Name() string              { return "fake" }
func (f *fakeProvider) Model(ai.ModelTier) string { return "fake-model" }
func (f *fakeProvider) ResetUsage()               {}

func (f *fakeProvider) GetUsage() ai.Usage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ai.Usage{Requests: f.calls, InputTokens: 10 * f.calls, OutputTokens: 5 * f.calls}
}

func (f *fakeProvider) Complete(ctx context.Context, _ ai.CompletionRequest) (string, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeFactory always returns p.
func fakeFactory(p ai.TextProvider) ProviderFactory {
	return func(context.Context, string) (ai.TextProvider, error) {
		return p, nil
	}
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

// waitForJob polls until the job has stopped or the deadline passes.
func waitForJob(t *testing.T, job *GenerateJob) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !job.finished() {
		if time.Now().After(deadline) {
			t.Fatalf("job %s did not finish, status %s", job.ID, job.GetStatus())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
