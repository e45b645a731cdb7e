// internal/game/selector.go
//
// Selection policies used by the word strategy to break ties.
// Lexical is deterministic; Seeded replays the same picks for the same seed.

package game

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Selector picks one option out of a non-empty, lexically sorted list.
// The word strategy uses it to break ties between equally good categories
// and to choose which candidate word to guess.
type Selector interface {
	Pick(options []string) string
}

// Lexical always picks the first option.
type Lexical struct{}

// Pick returns options[0].
func (Lexical) Pick(options []string) string { return options[0] }

// Seeded picks uniformly with a PCG generator, so a given seed replays the
// same choices for the same sequence of calls.
type Seeded struct {
	rng *rand.Rand
}

// NewSeeded returns a Seeded selector for seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))}
}

// Pick returns a uniformly chosen option.
func (s *Seeded) Pick(options []string) string {
	if len(options) == 1 {
		return options[0]
	}
	return options[s.rng.IntN(len(options))]
}

// NewSeed draws a seed from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
