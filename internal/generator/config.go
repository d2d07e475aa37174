package generator

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/kozaktomas/stock-metadata/internal/ai"
	"github.com/kozaktomas/stock-metadata/internal/category"
	"github.com/kozaktomas/stock-metadata/internal/constants"
	"github.com/kozaktomas/stock-metadata/internal/keywords"
	"github.com/kozaktomas/stock-metadata/internal/title"
)

// GenerationConfig is the immutable input of one run.
type GenerationConfig struct {
	Subject         string
	Keywords        keywords.Pool
	Category        string // numeric id, label or name; normalized to the id
	Mode            keywords.RotationMode
	Strategy        title.Strategy
	AIShape         title.Strategy // prompt shape for AI titles: natural or stuffer
	Tier            ai.ModelTier
	Rows            int
	HeadSize        int
	StufferBudget   int
	ConnectorStride int
	Connector       string // fixed connector word for connector titles, random when empty
	Seed            uint64 // 0 picks a random seed
	Concurrency     int
	AIConcurrency   int
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// WithDefaults fills zero-valued fields with their defaults.
func (c GenerationConfig) WithDefaults() GenerationConfig {
	c.Subject = strings.TrimSpace(c.Subject)
	if c.Category == "" {
		c.Category = constants.DefaultCategory
	}
	if c.Mode == "" {
		c.Mode = keywords.ModeA
	}
	if c.Strategy == "" {
		c.Strategy = title.StrategyNatural
	}
	if c.AIShape == "" {
		c.AIShape = title.StrategyNatural
	}
	if c.Tier == "" {
		c.Tier = ai.TierCheap
	}
	if c.Rows == 0 {
		c.Rows = constants.DefaultRows
	}
	if c.HeadSize == 0 {
		c.HeadSize = constants.DefaultHeadSize
	}
	if c.StufferBudget == 0 {
		c.StufferBudget = constants.DefaultStufferBudget
	}
	if c.ConnectorStride == 0 {
		c.ConnectorStride = constants.DefaultConnectorStride
	}
	if c.Concurrency <= 0 {
		c.Concurrency = constants.DefaultConcurrency
	}
	if c.AIConcurrency <= 0 {
		c.AIConcurrency = constants.DefaultAIConcurrency
	}
	return c
}

// Validate checks the configuration and normalizes Category to its numeric id.
// hasProvider reports whether an AI requester is available.
func (c *GenerationConfig) Validate(hasProvider bool) error {
	if c.Subject == "" {
		return invalid("subject", "must not be empty")
	}
	if n := utf8.RuneCountInString(c.Subject); n > constants.MaxSubjectLength {
		return invalid("subject", "is %d characters long, maximum is %d", n, constants.MaxSubjectLength)
	}
	if len(c.Keywords) == 0 {
		return invalid("keywords", "at least one keyword is required")
	}
	if c.Rows < constants.MinRows || c.Rows > constants.MaxRows {
		return invalid("rows", "must be between %d and %d, got %d", constants.MinRows, constants.MaxRows, c.Rows)
	}

	id, err := category.Parse(c.Category)
	if err != nil {
		return invalid("category", "%v", err)
	}
	c.Category = id

	if !slices.Contains(keywords.Modes, c.Mode) {
		return invalid("mode", "unknown rotation mode %q", c.Mode)
	}
	if !slices.Contains(title.Strategies, c.Strategy) {
		return invalid("strategy", "unknown title strategy %q", c.Strategy)
	}
	if c.Strategy == title.StrategyExternal {
		if !c.AIShape.IsPromptShape() {
			return invalid("ai_shape", "must be natural or stuffer, got %q", c.AIShape)
		}
		if _, err := ai.ParseModelTier(string(c.Tier)); err != nil {
			return invalid("tier", "%v", err)
		}
		if !hasProvider {
			return invalid("strategy", "ai titles need a configured AI provider")
		}
	}

	if c.HeadSize < 1 {
		return invalid("head_size", "must be at least 1, got %d", c.HeadSize)
	}
	if c.StufferBudget < 1 {
		return invalid("budget", "must be at least 1, got %d", c.StufferBudget)
	}
	if c.ConnectorStride < 1 {
		return invalid("stride", "must be at least 1, got %d", c.ConnectorStride)
	}
	return nil
}
