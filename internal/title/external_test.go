package title

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kozaktomas/stock-metadata/internal/ai"
	"github.com/kozaktomas/stock-metadata/internal/keywords"
)

type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
}

func (f *fakeProvider) Name() string              { return "fake" }
func (f *fakeProvider) Model(ai.ModelTier) string { return "fake-model" }
func (f *fakeProvider) GetUsage() ai.Usage        { return ai.Usage{} }
func (f *fakeProvider) ResetUsage()               {}

func (f *fakeProvider) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, req.Prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestNewRequester_NilProvider(t *testing.T) {
	if _, err := NewRequester(nil, RequesterOptions{}); err == nil {
		t.Error("expected error for nil provider")
	}
}

func TestRequester_Success(t *testing.T) {
	provider := &fakeProvider{reply: "\"Asian businessman analyzing graph on tablet in office\"\n"}
	r, err := NewRequester(provider, RequesterOptions{})
	if err != nil {
		t.Fatal(err)
	}

	pool := keywords.Pool{"tablet", "graph", "office"}
	result := r.Request(context.Background(), "Asian businessman", pool, StrategyNatural, ai.TierCheap, testRNG(1))
	if !result.OK() {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if result.Title != "Asian businessman analyzing graph on tablet in office" {
		t.Errorf("unexpected title %q", result.Title)
	}
	if result.Display() != result.Title {
		t.Errorf("expected Display to return the title, got %q", result.Display())
	}
	if !strings.Contains(provider.prompts[0], "Subject: Asian businessman") {
		t.Errorf("prompt does not contain the subject: %q", provider.prompts[0])
	}
}

func TestRequester_Failure(t *testing.T) {
	provider := &fakeProvider{err: errors.New("rate limited")}
	r, _ := NewRequester(provider, RequesterOptions{Retries: 0})

	result := r.Request(context.Background(), "report", keywords.Pool{"data"}, StrategyStuffer, ai.TierCheap, testRNG(1))
	if result.OK() {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(result.Display(), "AI Error: ") {
		t.Errorf("expected 'AI Error: ' prefix, got %q", result.Display())
	}
	if !strings.Contains(result.Display(), "rate limited") {
		t.Errorf("expected the cause in the display value, got %q", result.Display())
	}
	if provider.calls != 1 {
		t.Errorf("expected 1 call without retries, got %d", provider.calls)
	}
}

func TestRequester_EmptyReply(t *testing.T) {
	provider := &fakeProvider{reply: "  \"\"  "}
	r, _ := NewRequester(provider, RequesterOptions{})

	result := r.Request(context.Background(), "report", keywords.Pool{"data"}, StrategyNatural, ai.TierCheap, testRNG(1))
	if result.OK() {
		t.Errorf("expected error for empty reply, got title %q", result.Title)
	}
}

func TestRequester_TruncatesLongReply(t *testing.T) {
	provider := &fakeProvider{reply: strings.Repeat("longword ", 40)}
	r, _ := NewRequester(provider, RequesterOptions{})

	result := r.Request(context.Background(), "report", keywords.Pool{"data"}, StrategyNatural, ai.TierCheap, testRNG(1))
	if !result.OK() {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if Length(result.Title) > 200 {
		t.Errorf("expected at most 200 chars, got %d", Length(result.Title))
	}
	if strings.HasSuffix(result.Title, "longwor") {
		t.Errorf("expected cut at a word boundary, got %q", result.Title)
	}
}

func TestBuildPrompt(t *testing.T) {
	pool := make(keywords.Pool, 20)
	for i := range pool {
		pool[i] = "kw" + string(rune('a'+i))
	}

	natural, err := BuildPrompt("report", pool, StrategyNatural, testRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	line := natural[strings.LastIndex(natural, "Keywords: ")+len("Keywords: "):]
	if n := len(strings.Split(strings.TrimSpace(line), ", ")); n != 8 {
		t.Errorf("expected 8 sampled keywords in natural prompt, got %d", n)
	}

	stuffer, err := BuildPrompt("report", pool, StrategyStuffer, testRNG(1))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stuffer, pool.Join()) {
		t.Error("expected stuffer prompt to contain the full keyword list")
	}

	if _, err := BuildPrompt("report", pool, StrategyConnector, testRNG(1)); err == nil {
		t.Error("expected error for unsupported prompt shape")
	}
}

func TestResult_Display(t *testing.T) {
	ok := Result{Title: "Title"}
	if ok.Display() != "Title" {
		t.Errorf("expected 'Title', got %q", ok.Display())
	}
	failed := Result{Err: errors.New("timeout")}
	if failed.Display() != "AI Error: timeout" {
		t.Errorf("expected 'AI Error: timeout', got %q", failed.Display())
	}
}
