package title

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// quoteRunes are stripped from both ends of model output.
const quoteRunes = "\"'`“”‘’«»"

// capitalize upper-cases the first rune of s and leaves the rest untouched.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Length returns the title length in characters (runes).
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// TruncateAtWord shortens s to at most limit runes, cutting at the last
// whitespace at or before the limit. A single word longer than limit is cut hard.
func TruncateAtWord(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 0 {
		return ""
	}

	// The limit itself falls on a boundary.
	if unicode.IsSpace(runes[limit]) {
		return strings.TrimRightFunc(string(runes[:limit]), unicode.IsSpace)
	}

	cut := runes[:limit]
	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			return strings.TrimRightFunc(string(cut[:i]), unicode.IsSpace)
		}
	}
	return string(cut)
}

// cleanModelOutput trims model output to a single unquoted line.
func cleanModelOutput(s string) string {
	s = strings.TrimSpace(s)
	if line, _, ok := strings.Cut(s, "\n"); ok {
		s = strings.TrimSpace(line)
	}
	s = strings.Trim(s, quoteRunes)
	return strings.TrimSpace(s)
}
