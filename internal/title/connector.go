package title

import (
	"math/rand/v2"
	"strings"

	"github.com/kozaktomas/stock-metadata/internal/constants"
	"github.com/kozaktomas/stock-metadata/internal/keywords"
)

// Connect builds "{subject} {connector} k1, k2, k3, k4 and k5" from up to five
// random keywords. Up to ten samples are drawn to find one within the title
// length limit; otherwise only "{subject} {connector}" is returned.
func Connect(subject, connector string, pool keywords.Pool, rng *rand.Rand) string {
	base := subject + " " + connector
	candidates := keywords.Candidates(subject, pool)

	n := min(constants.ConnectorTitleKeywords, len(candidates))
	if n == 0 {
		return base
	}

	for range constants.ConnectorTitleAttempts {
		picked := sample(candidates, n, rng)

		suffix := picked[0]
		if len(picked) > 1 {
			suffix = strings.Join(picked[:len(picked)-1], ", ") + " and " + picked[len(picked)-1]
		}

		title := base + " " + suffix
		if Length(title) <= constants.TitleMaxLength {
			return title
		}
	}
	return base
}
