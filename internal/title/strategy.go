// Package title builds the Title column of generated rows.
package title

import (
	"fmt"
	"strings"
)

// Strategy selects how titles are built.
type Strategy string

const (
	// StrategyNatural fills a sentence template with an action and three keywords.
	StrategyNatural Strategy = "natural"
	// StrategyStuffer packs as many keywords as fit into the character budget.
	StrategyStuffer Strategy = "stuffer"
	// StrategyExternal asks a language model for the title.
	StrategyExternal Strategy = "ai"
	// StrategyConnector appends up to five keywords after a fixed connector word.
	StrategyConnector Strategy = "connector"
)

// Strategies lists all strategies in display order.
var Strategies = []Strategy{StrategyNatural, StrategyStuffer, StrategyExternal, StrategyConnector}

// ParseStrategy parses a strategy name or one of its aliases.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "natural", "template":
		return StrategyNatural, nil
	case "stuffer", "stuffing", "seo":
		return StrategyStuffer, nil
	case "ai", "external", "external-assisted", "externalassisted":
		return StrategyExternal, nil
	case "connector", "classic":
		return StrategyConnector, nil
	}
	return "", fmt.Errorf("unknown title strategy %q (supported: natural, stuffer, ai, connector)", s)
}

// IsPromptShape reports whether s can select the prompt shape of an AI title.
func (s Strategy) IsPromptShape() bool {
	return s == StrategyNatural || s == StrategyStuffer
}
