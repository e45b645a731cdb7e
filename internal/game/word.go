// internal/game/word.go
//
// Twenty-questions style word guessing over a catalog.
// Responsibilities:
//   - Pick the category question that splits the candidates most evenly.
//   - Filter candidates on every category answer.
//   - Fall back to guessing words one at a time.
//
// Notes:
//   - Ties between categories and the choice of word to guess go through the
//     injected Selector, so runs are reproducible for a given selector.

package game

import (
	"fmt"
	"slices"

	"github.com/robalobadob/gamezone/internal/words"
)

// WordStrategy plays twenty questions over a word catalog.
//
// It asks about the category whose yes/no split of the remaining candidates
// is most balanced (max of min(yes, no)), and switches to guessing words
// directly once one candidate is left, no category splits the candidates,
// or the question limit is spent.
type WordStrategy struct {
	catalog    *words.Catalog
	selector   Selector
	candidates []string // sorted; always consistent with every answer given
	asked      []string // categories in the order they were asked
	askedSet   map[string]struct{}

	questionLimit int  // 0 = unlimited
	interleave    bool // guess once after every category answer
	guessNext     bool

	pending *Proposal
	solved  string
}

// WordOption configures a WordStrategy.
type WordOption func(*WordStrategy)

// WithSelector replaces the default Lexical selector.
func WithSelector(sel Selector) WordOption {
	return func(s *WordStrategy) {
		if sel != nil {
			s.selector = sel
		}
	}
}

// WithQuestionLimit caps the number of category questions; after n of them
// the strategy only guesses words.
func WithQuestionLimit(n int) WordOption {
	return func(s *WordStrategy) {
		if n > 0 {
			s.questionLimit = n
		}
	}
}

// WithInterleavedGuesses makes the strategy take one direct guess after each
// answered category question before asking the next one.
func WithInterleavedGuesses() WordOption {
	return func(s *WordStrategy) { s.interleave = true }
}

// NewWordStrategy starts with every catalog word as a candidate.
func NewWordStrategy(c *words.Catalog, opts ...WordOption) *WordStrategy {
	s := &WordStrategy{
		catalog:    c,
		selector:   Lexical{},
		candidates: c.Words(),
		askedSet:   map[string]struct{}{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Kind reports KindWord.
func (s *WordStrategy) Kind() Kind { return KindWord }

// Candidates returns the words still consistent with every answer.
func (s *WordStrategy) Candidates() []string { return slices.Clone(s.candidates) }

// Asked returns the categories asked so far, in order.
func (s *WordStrategy) Asked() []string { return slices.Clone(s.asked) }

// Propose returns a category question while one is informative, otherwise a
// direct guess. The proposal is cached until the next Apply.
func (s *WordStrategy) Propose() Proposal {
	if s.pending != nil {
		return *s.pending
	}
	var p Proposal
	if tag, ok := s.nextCategory(); ok {
		p = Proposal{
			Kind:     ProposalCategory,
			Subject:  tag,
			Question: fmt.Sprintf("Is your word related to '%s'?", tag),
			Options:  answerOptions,
		}
	} else {
		w := s.selector.Pick(s.candidates)
		p = Proposal{
			Kind:     ProposalGuess,
			Subject:  w,
			Question: fmt.Sprintf("Is your word '%s'?", w),
			Options:  answerOptions,
		}
	}
	s.pending = &p
	return p
}

// Apply consumes the answer to the pending proposal.
func (s *WordStrategy) Apply(a Answer) {
	p := s.pending
	if p == nil {
		return
	}
	s.pending = nil
	switch p.Kind {
	case ProposalCategory:
		s.asked = append(s.asked, p.Subject)
		s.askedSet[p.Subject] = struct{}{}
		s.candidates = slices.DeleteFunc(s.candidates, func(w string) bool {
			return s.catalog.HasTag(w, p.Subject) != bool(a)
		})
		s.guessNext = s.interleave
	case ProposalGuess:
		s.guessNext = false
		if a == Yes {
			s.solved = p.Subject
			return
		}
		s.candidates = slices.DeleteFunc(s.candidates, func(w string) bool { return w == p.Subject })
	}
}

// Outcome is solved on a confirmed guess and exhausted once no candidate is
// left.
func (s *WordStrategy) Outcome() Outcome {
	switch {
	case s.solved != "":
		return Outcome{Status: StatusSolved, Value: s.solved}
	case len(s.candidates) == 0:
		return Outcome{Status: StatusExhausted}
	}
	return Outcome{Status: StatusAwaiting}
}

// nextCategory picks the unasked category with the most balanced split of
// the remaining candidates. It reports false when the strategy should guess.
func (s *WordStrategy) nextCategory() (string, bool) {
	if len(s.candidates) <= 1 || s.guessNext {
		return "", false
	}
	if s.questionLimit > 0 && len(s.asked) >= s.questionLimit {
		return "", false
	}
	var best []string
	bestScore := 0
	for _, tag := range s.catalog.Vocabulary() {
		if _, done := s.askedSet[tag]; done {
			continue
		}
		yes := 0
		for _, w := range s.candidates {
			if s.catalog.HasTag(w, tag) {
				yes++
			}
		}
		score := min(yes, len(s.candidates)-yes)
		switch {
		case score == 0:
			// labels none or all of the candidates: nothing to learn
		case score > bestScore:
			bestScore = score
			best = append(best[:0], tag)
		case score == bestScore:
			best = append(best, tag)
		}
	}
	if len(best) == 0 {
		return "", false
	}
	return s.selector.Pick(best), true
}
