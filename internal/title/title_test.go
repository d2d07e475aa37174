package title

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"

	"github.com/kozaktomas/stock-metadata/internal/keywords"
)

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 1))
}

func fixedVocabulary() *Vocabulary {
	return &Vocabulary{
		Actions:    []string{"doing"},
		Connectors: []string{"with"},
		Templates:  []string{"{subject} {action} {obj1}, {obj2} and {context}"},
	}
}

func permutations3(items []string) [][3]string {
	var out [][3]string
	for i := range items {
		for j := range items {
			for k := range items {
				if i != j && j != k && i != k {
					out = append(out, [3]string{items[i], items[j], items[k]})
				}
			}
		}
	}
	return out
}

// --- Vocabulary tests ---

func TestDefaultVocabulary(t *testing.T) {
	v := DefaultVocabulary()
	if err := v.Validate(); err != nil {
		t.Fatalf("default vocabulary invalid: %v", err)
	}
	if len(v.Actions) != 15 {
		t.Errorf("expected 15 actions, got %d", len(v.Actions))
	}
	if len(v.Connectors) != 9 {
		t.Errorf("expected 9 connectors, got %d", len(v.Connectors))
	}
	if len(v.Templates) != 8 {
		t.Errorf("expected 8 templates, got %d", len(v.Templates))
	}
	for _, tpl := range v.Templates {
		for _, ph := range templatePlaceholders {
			if !strings.Contains(tpl, ph) {
				t.Errorf("template %q misses placeholder %s", tpl, ph)
			}
		}
	}
}

func TestVocabulary_Validate(t *testing.T) {
	tests := []struct {
		name  string
		vocab Vocabulary
	}{
		{"no actions", Vocabulary{Connectors: []string{"with"}, Templates: []string{"{subject}"}}},
		{"no connectors", Vocabulary{Actions: []string{"a"}, Templates: []string{"{subject}"}}},
		{"no templates", Vocabulary{Actions: []string{"a"}, Connectors: []string{"with"}}},
		{"template without subject", Vocabulary{Actions: []string{"a"}, Connectors: []string{"with"}, Templates: []string{"{obj1}"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.vocab.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadVocabulary_MergesDefaults(t *testing.T) {
	path := t.TempDir() + "/vocab.yaml"
	if err := writeFile(path, "actions:\n  - photographing\n"); err != nil {
		t.Fatal(err)
	}

	v, err := LoadVocabulary(path)
	if err != nil {
		t.Fatalf("LoadVocabulary failed: %v", err)
	}
	if len(v.Actions) != 1 || v.Actions[0] != "photographing" {
		t.Errorf("expected custom actions, got %v", v.Actions)
	}
	if len(v.Templates) != 8 {
		t.Errorf("expected default templates, got %d", len(v.Templates))
	}
}

func TestLoadVocabulary_MissingFile(t *testing.T) {
	if _, err := LoadVocabulary(t.TempDir() + "/missing.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

// --- Strategy tests ---

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		input    string
		expected Strategy
		wantErr  bool
	}{
		{"natural", StrategyNatural, false},
		{"Stuffer", StrategyStuffer, false},
		{"seo", StrategyStuffer, false},
		{"AI", StrategyExternal, false},
		{"external", StrategyExternal, false},
		{"classic", StrategyConnector, false},
		{"poem", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseStrategy(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("ParseStrategy(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestStrategy_IsPromptShape(t *testing.T) {
	if !StrategyNatural.IsPromptShape() || !StrategyStuffer.IsPromptShape() {
		t.Error("expected natural and stuffer to be prompt shapes")
	}
	if StrategyExternal.IsPromptShape() || StrategyConnector.IsPromptShape() {
		t.Error("expected ai and connector not to be prompt shapes")
	}
}

// --- Natural tests ---

func TestNatural_MatchesTemplate(t *testing.T) {
	vocab := DefaultVocabulary()
	subject := "Asian businessman"
	pool := keywords.Pool{"tablet", "graph", "office"}

	allowed := make(map[string]struct{})
	for _, tpl := range vocab.Templates {
		for _, action := range vocab.Actions {
			for _, p := range permutations3(pool) {
				allowed[capitalize(render(tpl, subject, action, p[0], p[1], p[2]))] = struct{}{}
			}
		}
	}

	for seed := range uint64(100) {
		result := Natural(subject, pool, vocab, testRNG(seed))
		if _, ok := allowed[result]; !ok {
			t.Fatalf("seed %d: %q does not match any template shape", seed, result)
		}
	}
}

func TestNatural_FallbackFewCandidates(t *testing.T) {
	vocab := DefaultVocabulary()
	pool := keywords.Pool{"report", "data", "report summary"}

	result := Natural("report", pool, vocab, testRNG(1))
	if result != "report concept with data" {
		t.Errorf("expected 'report concept with data', got %q", result)
	}
}

func TestNatural_NoCandidates(t *testing.T) {
	result := Natural("report", keywords.Pool{}, DefaultVocabulary(), testRNG(1))
	if result != "report concept with " {
		t.Errorf("expected 'report concept with ', got %q", result)
	}
}

func TestNatural_NeverUsesSubjectWords(t *testing.T) {
	vocab := DefaultVocabulary()
	subject := "Quality assurance concept"
	pool := keywords.Clean("assurance, quality, proposal, standard, value, approval, service, review, guarantee, best, performance, client, businessman, procedure, quality control")

	used := regexp.MustCompile(`(?i)\b(quality control|assurance|quality)\b`)
	for seed := range uint64(200) {
		result := Natural(subject, pool, vocab, testRNG(seed))
		rest := strings.ReplaceAll(result, subject, "")
		if used.MatchString(rest) {
			t.Fatalf("seed %d: subject word reused in %q", seed, result)
		}
	}
}

func TestNatural_Capitalized(t *testing.T) {
	for seed := range uint64(20) {
		result := Natural("young woman", keywords.Pool{"laptop", "coffee", "home"}, DefaultVocabulary(), testRNG(seed))
		r, _ := utf8.DecodeRuneInString(result)
		if !unicode.IsUpper(r) {
			t.Fatalf("seed %d: expected capitalized title, got %q", seed, result)
		}
	}
}

// --- Stuffer tests ---

func TestStuff_NeverExceedsBudget(t *testing.T) {
	vocab := DefaultVocabulary()
	for _, budget := range []int{195, 200} {
		for size := 0; size <= 200; size += 7 {
			pool := make(keywords.Pool, size)
			for i := range size {
				pool[i] = fmt.Sprintf("keyword number %d", i)
			}
			for seed := range uint64(5) {
				result := Stuff("Office worker", pool, StufferOptions{Budget: budget, Stride: 3}, vocab, testRNG(seed))
				if Length(result) > budget {
					t.Fatalf("budget %d, size %d, seed %d: length %d > budget: %q", budget, size, seed, Length(result), result)
				}
			}
		}
	}
}

func TestStuff_NoCandidates(t *testing.T) {
	result := Stuff("report", keywords.Pool{"report"}, StufferOptions{}, fixedVocabulary(), testRNG(1))
	if result != "Report doing" {
		t.Errorf("expected 'Report doing', got %q", result)
	}

	result = Stuff("report", keywords.Pool{}, StufferOptions{}, fixedVocabulary(), testRNG(1))
	if result != "Report doing" {
		t.Errorf("expected 'Report doing' for empty pool, got %q", result)
	}
}

func TestStuff_SeparatorStride(t *testing.T) {
	pool := make(keywords.Pool, 10)
	for i := range pool {
		pool[i] = fmt.Sprintf("k%02d", i)
	}

	result := Stuff("Subj", pool, StufferOptions{Budget: 10_000, Stride: 3}, fixedVocabulary(), testRNG(9))
	shape := regexp.MustCompile(`k\d\d`).ReplaceAllString(result, "K")

	expected := "Subj doing with K, K, K with K, K, K with K, K, K with K"
	if shape != expected {
		t.Errorf("expected shape %q, got %q", expected, shape)
	}
}

func TestStuff_StopsAtFirstOverflow(t *testing.T) {
	long := strings.Repeat("x", 300)
	result := Stuff("Subj", keywords.Pool{long}, StufferOptions{Budget: 200, Stride: 3}, fixedVocabulary(), testRNG(1))
	if result != "Subj doing" {
		t.Errorf("expected only base title, got %q", result)
	}

	// Once a keyword does not fit, later (shorter) keywords are not tried.
	pool := keywords.Pool{"aaaa", "bbbb", "cccc"}
	for seed := range uint64(30) {
		result := Stuff("Subj", pool, StufferOptions{Budget: 20, Stride: 3}, fixedVocabulary(), testRNG(seed))
		// "Subj doing with aaaa" is exactly 20; the next segment ", bbbb" would overflow.
		if Length(result) != 20 {
			t.Fatalf("seed %d: expected 20 chars, got %d: %q", seed, Length(result), result)
		}
	}
}

func TestStuff_ExcludesSubjectWords(t *testing.T) {
	pool := keywords.Pool{"report", "annual report", "data", "chart"}
	for seed := range uint64(30) {
		result := Stuff("report", pool, StufferOptions{Budget: 200, Stride: 3}, fixedVocabulary(), testRNG(seed))
		if strings.Contains(strings.ToLower(result[len("report"):]), "report") {
			t.Fatalf("seed %d: subject word reused in %q", seed, result)
		}
	}
}

func TestStuff_LongSubjectIsTruncated(t *testing.T) {
	subject := strings.Repeat("word ", 50)
	result := Stuff(strings.TrimSpace(subject), keywords.Pool{"a"}, StufferOptions{Budget: 100}, fixedVocabulary(), testRNG(1))
	if Length(result) > 100 {
		t.Errorf("expected at most 100 chars, got %d", Length(result))
	}
}

// --- Connector tests ---

func TestConnect(t *testing.T) {
	rng := testRNG(1)

	if got := Connect("Quality", "with", keywords.Pool{}, rng); got != "Quality with" {
		t.Errorf("expected 'Quality with', got %q", got)
	}
	if got := Connect("Quality", "with", keywords.Pool{"review"}, rng); got != "Quality with review" {
		t.Errorf("expected 'Quality with review', got %q", got)
	}

	pool := keywords.Pool{"a1", "b2", "c3", "d4", "e5", "f6", "g7"}
	got := Connect("Quality", "among", pool, rng)
	shape := regexp.MustCompile(`[a-g]\d`).ReplaceAllString(got, "K")
	if shape != "Quality among K, K, K, K and K" {
		t.Errorf("unexpected shape %q (%q)", shape, got)
	}
}

func TestConnect_FallbackWhenTooLong(t *testing.T) {
	pool := keywords.Pool{strings.Repeat("a", 120), strings.Repeat("b", 120)}
	if got := Connect("Quality", "with", pool, testRNG(3)); got != "Quality with" {
		t.Errorf("expected fallback 'Quality with', got %q", got)
	}
}

// --- Text helper tests ---

func TestTruncateAtWord(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{"short", "hello world", 20, "hello world"},
		{"exact", "hello world", 11, "hello world"},
		{"cut at space", "hello world foo", 13, "hello world"},
		{"limit on boundary", "hello world foo", 11, "hello world"},
		{"single long word", "abcdefghij", 5, "abcde"},
		{"unicode", "žluťoučký kůň úpěl", 12, "žluťoučký"},
		{"zero", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateAtWord(tt.input, tt.limit)
			if result != tt.expected {
				t.Errorf("TruncateAtWord(%q, %d) = %q, want %q", tt.input, tt.limit, result, tt.expected)
			}
		})
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"hello":    "Hello",
		"Hello":    "Hello",
		"éclair":   "Éclair",
		"1 second": "1 second",
	}
	for input, expected := range tests {
		if got := capitalize(input); got != expected {
			t.Errorf("capitalize(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestCleanModelOutput(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"Businessman with tablet"`, "Businessman with tablet"},
		{"  'single quoted'  ", "single quoted"},
		{"“Smart quotes”", "Smart quotes"},
		{"First line\nSecond line", "First line"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := cleanModelOutput(tt.input); got != tt.expected {
				t.Errorf("cleanModelOutput(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
