package category

import "testing"

func TestAll(t *testing.T) {
	if len(All) != 21 {
		t.Fatalf("expected 21 categories, got %d", len(All))
	}
	for i, c := range All {
		if c.ID != i+1 {
			t.Errorf("expected id %d at index %d, got %d", i+1, i, c.ID)
		}
	}
}

func TestLabels(t *testing.T) {
	labels := Labels()
	if labels[2] != "3 - Business" {
		t.Errorf("expected '3 - Business', got '%s'", labels[2])
	}
	if labels[16] != "17 - Social Issues" {
		t.Errorf("expected '17 - Social Issues', got '%s'", labels[16])
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"3 - Business", "3", false},
		{"21 - Travel", "21", false},
		{"10", "10", false},
		{" 7 ", "7", false},
		{"social issues", "17", false},
		{"Technology", "19", false},
		{"0", "", true},
		{"22 - Space", "", true},
		{"Space", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %q", tt.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
