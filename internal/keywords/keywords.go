// Package keywords parses, filters and rotates the keyword pool of a generation run.
package keywords

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Pool is an ordered keyword sequence. Order is meaningful (head vs tail) and
// duplicates are preserved. A Pool is never mutated once cleaned.
type Pool []string

// wordPattern matches word tokens the same way a Unicode-aware \w+ does.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Clean splits a comma-separated keyword string into a Pool.
// Pieces are trimmed and otherwise kept byte for byte; empty pieces are dropped.
func Clean(raw string) Pool {
	if raw == "" {
		return Pool{}
	}

	pool := Pool{}
	for piece := range strings.SplitSeq(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		pool = append(pool, piece)
	}
	return pool
}

// Clone returns an independent copy of the pool.
func (p Pool) Clone() Pool {
	out := make(Pool, len(p))
	copy(out, p)
	return out
}

// Join returns the pool as a comma+space separated string.
func (p Pool) Join() string {
	return strings.Join(p, ", ")
}

// Tokens returns the set of lowercase, NFC-normalized word tokens in s.
func Tokens(s string) map[string]struct{} {
	lower := cases.Lower(language.Und).String(norm.NFC.String(s))
	words := wordPattern.FindAllString(lower, -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// sharesToken reports whether any word token of keyword is in forbidden.
func sharesToken(keyword string, forbidden map[string]struct{}) bool {
	if len(forbidden) == 0 {
		return false
	}
	for token := range Tokens(keyword) {
		if _, ok := forbidden[token]; ok {
			return true
		}
	}
	return false
}

// Candidates returns the keywords of pool that share no word token with subject,
// in pool order. The result is a fresh slice.
func Candidates(subject string, pool Pool) []string {
	forbidden := Tokens(subject)
	out := make([]string, 0, len(pool))
	for _, kw := range pool {
		if sharesToken(kw, forbidden) {
			continue
		}
		out = append(out, kw)
	}
	return out
}
