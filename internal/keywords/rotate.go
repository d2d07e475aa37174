package keywords

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// RotationMode selects which part of the pool is shuffled.
type RotationMode string

const (
	// ModeA shuffles the head and keeps the tail in order.
	ModeA RotationMode = "A"
	// ModeB keeps the head in order and shuffles the tail.
	ModeB RotationMode = "B"
	// ModeC shuffles head and tail independently.
	ModeC RotationMode = "C"
)

// Modes lists all rotation modes in display order.
var Modes = []RotationMode{ModeA, ModeB, ModeC}

// Description returns a human readable description of the mode for the given head size.
func (m RotationMode) Description(headSize int) string {
	switch m {
	case ModeA:
		return fmt.Sprintf("shuffle first %d keywords, keep the rest", headSize)
	case ModeB:
		return fmt.Sprintf("keep first %d keywords, shuffle the rest", headSize)
	case ModeC:
		return fmt.Sprintf("shuffle first %d keywords and the rest separately", headSize)
	}
	return "unknown"
}

func (m RotationMode) shufflesHead() bool {
	return m == ModeA || m == ModeC
}

func (m RotationMode) shufflesTail() bool {
	return m == ModeB || m == ModeC
}

// ParseRotationMode parses "A", "b", or a label such as "C: shuffle both".
func ParseRotationMode(s string) (RotationMode, error) {
	s = strings.TrimSpace(s)
	if head, _, ok := strings.Cut(s, ":"); ok {
		s = strings.TrimSpace(head)
	}
	switch RotationMode(strings.ToUpper(s)) {
	case ModeA:
		return ModeA, nil
	case ModeB:
		return ModeB, nil
	case ModeC:
		return ModeC, nil
	}
	return "", fmt.Errorf("unknown rotation mode %q (supported: A, B, C)", s)
}

// Rotate returns one rotation of pool as a comma+space joined string.
// Pools shorter than headSize are fully shuffled regardless of mode.
// The input pool is never modified.
func Rotate(pool Pool, mode RotationMode, headSize int, rng *rand.Rand) string {
	if len(pool) == 0 {
		return ""
	}

	rotated := pool.Clone()
	if len(rotated) < headSize {
		shuffle(rotated, rng)
		return rotated.Join()
	}

	head := rotated[:headSize]
	tail := rotated[headSize:]
	if mode.shufflesHead() {
		shuffle(head, rng)
	}
	if mode.shufflesTail() {
		shuffle(tail, rng)
	}
	return rotated.Join()
}

func shuffle(s []string, rng *rand.Rand) {
	rng.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
}
