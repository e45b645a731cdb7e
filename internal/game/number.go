// internal/game/number.go
//
// Number guessing by bisection over an inclusive integer range.
// Every threshold question halves the interval still consistent with the
// answers, so a range of n values is solved in at most ceil(log2(n)) turns.

package game

import (
	"fmt"
	"strconv"
)

// NumberRange is an inclusive integer interval.
type NumberRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// DefaultNumberRange is the range players are asked to pick from.
var DefaultNumberRange = NumberRange{Low: 1, High: 50}

// NumberStrategy guesses a number by binary search: each proposal asks
// whether the target is greater than the midpoint of the remaining range.
type NumberStrategy struct {
	r NumberRange
}

// NewNumberStrategy starts a search over r. Ranges with Low >= High resolve
// to Low immediately.
func NewNumberStrategy(r NumberRange) *NumberStrategy {
	return &NumberStrategy{r: r}
}

// Kind reports KindNumber.
func (s *NumberStrategy) Kind() Kind { return KindNumber }

// Range is the interval still consistent with every answer.
func (s *NumberStrategy) Range() NumberRange { return s.r }

// mid is floor((low+high)/2). The span is computed in uint so ranges wider
// than MaxInt (e.g. [-10, MaxInt]) do not wrap around.
func (s *NumberStrategy) mid() int {
	return s.r.Low + int((uint(s.r.High)-uint(s.r.Low))/2)
}

// Propose asks whether the target is above the midpoint.
func (s *NumberStrategy) Propose() Proposal {
	m := s.mid()
	return Proposal{
		Kind:     ProposalThreshold,
		Subject:  strconv.Itoa(m),
		Question: fmt.Sprintf("Is your number greater than %d?", m),
		Options:  answerOptions,
	}
}

// Apply keeps the upper half on yes and the lower half on no.
func (s *NumberStrategy) Apply(a Answer) {
	if s.r.Low >= s.r.High {
		return
	}
	m := s.mid()
	if a == Yes {
		s.r.Low = m + 1
	} else {
		s.r.High = m
	}
}

// Outcome is solved once a single value remains.
func (s *NumberStrategy) Outcome() Outcome {
	if s.r.Low >= s.r.High {
		return Outcome{Status: StatusSolved, Value: strconv.Itoa(s.r.Low)}
	}
	return Outcome{Status: StatusAwaiting}
}
