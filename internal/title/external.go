package title

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kozaktomas/stock-metadata/internal/ai"
	"github.com/kozaktomas/stock-metadata/internal/constants"
	"github.com/kozaktomas/stock-metadata/internal/keywords"
)

//go:embed prompts/natural.txt
var naturalPrompt string

//go:embed prompts/stuffer.txt
var stufferPrompt string

const (
	aiMaxTokens   = 150
	aiTemperature = 0.8

	errorPrefix = "AI Error: "
)

// Result is the outcome of an AI title request.
type Result struct {
	Title string
	Err   error
}

// OK reports whether the request produced a title.
func (r Result) OK() bool {
	return r.Err == nil
}

// Display returns the title, or a visibly tagged "AI Error: ..." value on failure.
func (r Result) Display() string {
	if r.Err != nil {
		return errorPrefix + r.Err.Error()
	}
	return r.Title
}

// RequesterOptions configures a Requester.
type RequesterOptions struct {
	Timeout time.Duration // per attempt
	Retries int
	Logger  zerolog.Logger
}

// Requester asks an external language model for titles.
type Requester struct {
	provider ai.TextProvider
	opts     RequesterOptions
}

// NewRequester creates a Requester. provider must not be nil.
func NewRequester(provider ai.TextProvider, opts RequesterOptions) (*Requester, error) {
	if provider == nil {
		return nil, errors.New("text provider is required")
	}
	return &Requester{provider: provider, opts: opts}, nil
}

// Request builds a prompt of the given shape (natural or stuffer), calls the
// model and post-processes the answer. Failures are returned in Result.Err;
// they never panic or abort the caller.
func (r *Requester) Request(ctx context.Context, subject string, pool keywords.Pool, shape Strategy, tier ai.ModelTier, rng *rand.Rand) Result {
	prompt, err := BuildPrompt(subject, pool, shape, rng)
	if err != nil {
		return Result{Err: err}
	}

	text, err := ai.CompleteWithRetry(ctx, r.provider, ai.CompletionRequest{
		Prompt:      prompt,
		Tier:        tier,
		MaxTokens:   aiMaxTokens,
		Temperature: aiTemperature,
	}, ai.RetryPolicy{
		Retries: r.opts.Retries,
		Timeout: r.opts.Timeout,
		OnRetry: func(err error, wait time.Duration) {
			r.opts.Logger.Debug().Err(err).Dur("wait", wait).Msg("retrying title request")
		},
	})
	if err != nil {
		return Result{Err: err}
	}

	title := PostProcess(text)
	if title == "" {
		return Result{Err: errors.New("model returned an empty title")}
	}
	return Result{Title: title}
}

// BuildPrompt renders the prompt for the given shape.
// Natural prompts offer a random sample of up to eight keywords, stuffer prompts the whole pool.
func BuildPrompt(subject string, pool keywords.Pool, shape Strategy, rng *rand.Rand) (string, error) {
	switch shape {
	case StrategyNatural:
		picked := sample(pool, constants.AIPromptKeywordSample, rng)
		return fmt.Sprintf(naturalPrompt, subject, strings.Join(picked, ", ")), nil
	case StrategyStuffer:
		return fmt.Sprintf(stufferPrompt, subject, pool.Join()), nil
	}
	return "", fmt.Errorf("unsupported prompt shape %q", shape)
}

// PostProcess strips quotes and extra lines from model output and truncates it
// at a word boundary to the title length limit.
func PostProcess(text string) string {
	return TruncateAtWord(cleanModelOutput(text), constants.TitleMaxLength)
}
