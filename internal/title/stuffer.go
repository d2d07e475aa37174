package title

import (
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/kozaktomas/stock-metadata/internal/constants"
	"github.com/kozaktomas/stock-metadata/internal/keywords"
)

// StufferOptions configures keyword stuffing.
type StufferOptions struct {
	Budget int // maximum title length in characters
	Stride int // every Stride-th keyword is joined with a connector word instead of a comma
}

func (o StufferOptions) withDefaults() StufferOptions {
	if o.Budget <= 0 {
		o.Budget = constants.DefaultStufferBudget
	}
	if o.Stride <= 0 {
		o.Stride = constants.DefaultConnectorStride
	}
	return o
}

// Stuff builds "{subject} {action}" followed by as many shuffled keywords as fit
// into the budget. A keyword is only appended if the result still fits; the
// first keyword that does not fit ends the title.
func Stuff(subject string, pool keywords.Pool, opts StufferOptions, vocab *Vocabulary, rng *rand.Rand) string {
	opts = opts.withDefaults()

	candidates := slices.Clone(keywords.Candidates(subject, pool))
	rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	title := TruncateAtWord(subject+" "+pick(vocab.Actions, rng), opts.Budget)
	length := Length(title)

	for i, kw := range candidates {
		sep := ", "
		if i%opts.Stride == 0 {
			sep = " " + pick(vocab.Connectors, rng) + " "
		}
		segment := sep + kw
		segLen := Length(segment)
		if length+segLen > opts.Budget {
			break
		}
		title += segment
		length += segLen
	}

	title = strings.TrimSuffix(strings.TrimSpace(title), ",")
	return capitalize(title)
}
