// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Keyword rotation constants
const (
	// DefaultHeadSize is the number of leading keywords treated as the rotation "head"
	DefaultHeadSize = 10

	// LegacyHeadSize is the head size used by the first generator release
	LegacyHeadSize = 7
)

// Title constants
const (
	// TitleMaxLength is the hard ceiling for any generated title (in runes)
	TitleMaxLength = 200

	// DefaultStufferBudget is the character budget for keyword-stuffed titles
	DefaultStufferBudget = 200

	// DefaultConnectorStride controls how often the stuffer uses a connector word instead of a comma
	DefaultConnectorStride = 3

	// NaturalTitleObjects is the number of keywords a natural title is built from
	NaturalTitleObjects = 3

	// ConnectorTitleKeywords is the maximum number of keywords appended by the connector strategy
	ConnectorTitleKeywords = 5

	// ConnectorTitleAttempts is how many samples the connector strategy draws before giving up
	ConnectorTitleAttempts = 10

	// AIPromptKeywordSample is the number of keywords offered to the model for natural titles
	AIPromptKeywordSample = 8

	// MaxSubjectLength is the maximum subject length accepted from the user (in runes)
	MaxSubjectLength = 100
)

// Row generation constants
const (
	// MinRows is the minimum number of rows per run
	MinRows = 1

	// MaxRows is the maximum number of rows per run
	MaxRows = 100

	// DefaultRows is the default number of rows per run
	DefaultRows = 100

	// DefaultConcurrency is the default number of parallel row workers
	DefaultConcurrency = 5

	// DefaultAIConcurrency is the default cap on in-flight external model calls
	DefaultAIConcurrency = 5

	// DefaultAIRetries is the number of retries for a failed external model call
	DefaultAIRetries = 2

	// PreviewRows is the number of rows printed as a preview after a CLI run
	PreviewRows = 10
)

// Output constants
const (
	// FilenamePrefix is the prefix of generated image filenames
	FilenamePrefix = "custom-"

	// FilenameExtension is the extension of generated image filenames
	FilenameExtension = ".jpg"

	// ReleasesValue is the constant value of the Releases column
	ReleasesValue = "no"

	// DefaultCategory is the category preselected when none is given
	DefaultCategory = "3 - Business"
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for event channels
	EventChannelBuffer = 100
)

// AI provider names
const (
	ProviderOpenAI   = "openai"
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderLlamaCpp = "llamacpp"
)
