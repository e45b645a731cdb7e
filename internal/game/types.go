// internal/game/types.go
//
// Core type definitions for the guessing engine.
// Defines:
//   - Kind: which game a session plays (number | word).
//   - Answer: a validated yes/no response.
//   - Proposal: the single question pending for the current turn.
//   - Outcome / Status: where a session is in its lifecycle.
//   - StepResult: what callers get back after every turn.

package game

import (
	"errors"
	"strings"
)

// Kind selects one of the two games.
type Kind string

const (
	KindNumber Kind = "number"
	KindWord   Kind = "word"
)

// Errors shared by the engine and the layers that drive it.
var (
	// ErrInvalidSelection reports an unrecognized game choice.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrInvalidResponse reports input that is neither yes nor no.
	// Boundary layers return it from ParseAnswer; the engine never sees it.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrFinished is returned when answering a session that already ended.
	ErrFinished = errors.New("game finished")
)

// ParseKind maps a menu token to a Kind.
// Accepts "number", "word", their menu numbers "1"/"2", and the
// "number game"/"word game" labels, case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "number", "number game":
		return KindNumber, nil
	case "2", "word", "word game":
		return KindWord, nil
	}
	return "", ErrInvalidSelection
}

// IsExit reports whether a menu token asks to leave ("3", "exit", "quit").
func IsExit(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "3", "exit", "quit", "exit game":
		return true
	}
	return false
}

// Answer is a yes/no response to a Proposal.
type Answer bool

const (
	Yes Answer = true
	No  Answer = false
)

func (a Answer) String() string {
	if a {
		return "yes"
	}
	return "no"
}

// ParseAnswer validates user input into an Answer.
func ParseAnswer(s string) (Answer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return Yes, nil
	case "no", "n":
		return No, nil
	}
	return No, ErrInvalidResponse
}

// ProposalKind tells what a Proposal asks.
type ProposalKind string

const (
	ProposalThreshold ProposalKind = "threshold" // number game: "greater than N?"
	ProposalCategory  ProposalKind = "category"  // word game: "related to T?"
	ProposalGuess     ProposalKind = "guess"     // word game: "is it W?"
)

// answerOptions are the labels offered for every proposal.
var answerOptions = []string{"yes", "no"}

// Proposal is one yes/no question presented for a turn.
type Proposal struct {
	Kind     ProposalKind `json:"kind"`
	Subject  string       `json:"subject"` // midpoint, category tag or guessed word
	Question string       `json:"question"`
	Options  []string     `json:"options"`
}

// Status is the coarse state of a session.
type Status string

const (
	StatusAwaiting  Status = "awaiting_answer"
	StatusSolved    Status = "solved"
	StatusExhausted Status = "exhausted"
)

// Outcome records how a session ended. Value is set only when solved.
type Outcome struct {
	Status Status `json:"status"`
	Value  string `json:"value,omitempty"`
}

// Terminal reports whether no further proposals will be issued.
func (o Outcome) Terminal() bool { return o.Status != StatusAwaiting }

// StepResult is returned after every turn: either a pending proposal or a
// terminal outcome.
type StepResult struct {
	SessionID string    `json:"sessionId"`
	Game      Kind      `json:"game"`
	Status    Status    `json:"status"`
	Proposal  *Proposal `json:"proposal,omitempty"`
	Value     string    `json:"value,omitempty"`
	Attempts  int       `json:"attempts"`
}

// Terminal reports whether the result ends the session.
func (r StepResult) Terminal() bool { return r.Status != StatusAwaiting }
