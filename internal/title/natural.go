package title

import (
	"math/rand/v2"
	"strings"

	"github.com/kozaktomas/stock-metadata/internal/constants"
	"github.com/kozaktomas/stock-metadata/internal/keywords"
)

// Natural builds a short grammatical title from the subject, a random action
// and three keywords that do not repeat any subject word.
// With fewer than three usable keywords it falls back to "{subject} concept with ...".
func Natural(subject string, pool keywords.Pool, vocab *Vocabulary, rng *rand.Rand) string {
	candidates := keywords.Candidates(subject, pool)
	if len(candidates) < constants.NaturalTitleObjects {
		return subject + " concept with " + strings.Join(candidates, ", ")
	}

	action := pick(vocab.Actions, rng)
	picked := sample(candidates, constants.NaturalTitleObjects, rng)
	tpl := pick(vocab.Templates, rng)

	return capitalize(render(tpl, subject, action, picked[0], picked[1], picked[2]))
}

func pick(items []string, rng *rand.Rand) string {
	return items[rng.IntN(len(items))]
}

// sample draws n distinct elements uniformly without replacement.
func sample(items []string, n int, rng *rand.Rand) []string {
	n = min(n, len(items))
	out := make([]string, n)
	for i, idx := range rng.Perm(len(items))[:n] {
		out[i] = items[idx]
	}
	return out
}
